package events

import (
	"context"
	"testing"

	"taxsync/internal/apperr"
	"taxsync/internal/service"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingDispatcher struct {
	events []service.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev service.Event) (*service.DispatchResult, error) {
	d.events = append(d.events, ev)
	return &service.DispatchResult{Event: ev.Type, OrderID: ev.OrderID, Action: service.ActionSkipped}, nil
}

func TestSubscriber_Process(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantErr  error
		wantSent int
	}{
		{"completed", `{"event":"order_completed","order_id":100}`, nil, 1},
		{"refund", `{"event":"refund_added","order_id":100,"refund_id":3}`, nil, 1},
		{"garbage", `{not json`, apperr.ErrInvalidRequest, 0},
		{"internal event", `{"event":"retry_fired","order_id":100}`, apperr.ErrInvalidRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &recordingDispatcher{}
			s := NewSubscriber(nil, dispatcher, zap.NewNop())

			_, err := s.process(context.Background(), []byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, dispatcher.events, tt.wantSent)
		})
	}
}

func TestSubscriber_HandleWithoutReply(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	s := NewSubscriber(nil, dispatcher, zap.NewNop())

	s.Handle(&nats.Msg{Subject: "taxsync.order.events", Data: []byte(`{"event":"order_deleted","order_id":9}`)})

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, service.EventOrderDeleted, dispatcher.events[0].Type)
	assert.Equal(t, int64(9), dispatcher.events[0].OrderID)
}

func TestSubscriber_StopWithoutStart(t *testing.T) {
	assert.NoError(t, NewSubscriber(nil, &recordingDispatcher{}, zap.NewNop()).Stop())
}
