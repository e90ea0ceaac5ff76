package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taxsync/internal/apperr"
	"taxsync/internal/service"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	queueGroup      = "taxsync"
	dispatchTimeout = 30 * time.Second
)

// Dispatcher is the part of the order lifecycle the subscriber drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev service.Event) (*service.DispatchResult, error)
}

// Subscriber turns order events published by the host on NATS into
// lifecycle dispatches. Subscribers share a queue group, so each event is
// handled by one process.
type Subscriber struct {
	conn       *nats.Conn
	sub        *nats.Subscription
	dispatcher Dispatcher
	log        *zap.Logger
}

func NewSubscriber(conn *nats.Conn, dispatcher Dispatcher, log *zap.Logger) *Subscriber {
	return &Subscriber{conn: conn, dispatcher: dispatcher, log: log.Named("events")}
}

// Start subscribes to subject. Call Stop to drain.
func (s *Subscriber) Start(subject string) error {
	sub, err := s.conn.QueueSubscribe(subject, queueGroup, s.Handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.sub = sub
	s.log.Info("listening for order events", zap.String("subject", subject))
	return nil
}

func (s *Subscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Drain()
}

// Handle decodes one event and dispatches it. Requests carrying a reply
// subject get the dispatch result back.
func (s *Subscriber) Handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	result, err := s.process(ctx, msg.Data)
	if err != nil {
		s.log.Warn("order event failed", zap.String("kind", apperr.Kind(err)), zap.Error(err))
	}

	if msg.Reply == "" {
		return
	}
	payload, _ := json.Marshal(reply{Result: result, Error: errorText(err)})
	if err := msg.Respond(payload); err != nil {
		s.log.Warn("reply failed", zap.Error(err))
	}
}

type reply struct {
	Result *service.DispatchResult `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

func (s *Subscriber) process(ctx context.Context, data []byte) (*service.DispatchResult, error) {
	var ev service.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", errors.Join(apperr.ErrInvalidRequest, err))
	}
	if ev.Type == service.EventRetryFired {
		return nil, fmt.Errorf("retry_fired is internal: %w", apperr.ErrInvalidRequest)
	}
	return s.dispatcher.Dispatch(ctx, ev)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
