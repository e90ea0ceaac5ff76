package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"taxsync/internal/apperr"
	"taxsync/internal/metrics"
	"taxsync/internal/model"
	"taxsync/internal/repository"
	"taxsync/internal/taxapi"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// EventType names an order lifecycle event reported by the host store.
type EventType string

const (
	EventOrderCreated       EventType = "order_created"
	EventOrderCompleted     EventType = "order_completed"
	EventOrderItemsSaved    EventType = "order_items_saved"
	EventOrderStatusChanged EventType = "order_status_changed"
	EventRefundAdded        EventType = "refund_added"
	EventRefundDeleted      EventType = "refund_deleted"
	EventOrderDeleted       EventType = "order_deleted"
	EventRetryFired         EventType = "retry_fired"
)

// Actions reported back for a dispatched event.
const (
	ActionCreated        = "created"
	ActionCommitted      = "committed"
	ActionCalculated     = "calculated"
	ActionCancelled      = "cancelled"
	ActionDeleted        = "deleted"
	ActionRetryScheduled = "retry_scheduled"
	ActionFailed         = "failed"
	ActionSkipped        = "skipped"
	ActionStale          = "stale"
)

// statuses that pull an order back out of filing
var reopenStatuses = map[string]bool{
	model.OrderStatusSaved:      true,
	model.OrderStatusPending:    true,
	model.OrderStatusProcessing: true,
	model.OrderStatusOnHold:     true,
	model.OrderStatusCancelled:  true,
	model.OrderStatusFailed:     true,
}

// --- DTOs ---

type Event struct {
	Type            EventType `json:"event" binding:"required"`
	OrderID         int64     `json:"order_id"`
	Status          string    `json:"status"`
	PreviousStatus  string    `json:"previous_status"`
	RefundID        int64     `json:"refund_id"`
	TaxExempt       bool      `json:"tax_exempt"`
	CartDocumentKey string    `json:"cart_document_key"`
	CartCustomerKey string    `json:"cart_customer_key"`
}

type DispatchResult struct {
	Event   EventType `json:"event"`
	OrderID int64     `json:"order_id"`
	Action  string    `json:"action"`
}

// --- Interface ---

// OrderTaxLifecycle decides when an order is calculated, filed or cancelled
// at the tax service. Remote failures never surface as errors; they leave
// the order uncommitted and book a retry.
type OrderTaxLifecycle interface {
	Dispatch(ctx context.Context, ev Event) (*DispatchResult, error)
	CommitCartDocument(ctx context.Context, orderID int64) (*model.OrderTaxState, error)
	GetTaxState(ctx context.Context, orderID int64) (*model.OrderTaxState, error)
}

type OrderTaxLifecycleDeps struct {
	Client           taxapi.Client
	Resolver         AddressResolver
	Builder          LineItemBuilder
	Reconciler       TaxReconciler
	Scheduler        RetryScheduler
	Orders           repository.OrderRepository
	TaxStates        repository.TaxStateRepository
	TxManager        repository.TransactionManager
	TaxLog           TaxLogService
	Metrics          *metrics.Metrics
	Logger           *zap.Logger
	Clock            func() time.Time
	TaxExemptEnabled bool
}

type eventHandler func(ctx context.Context, ev Event) (string, error)

type orderTaxLifecycle struct {
	client           taxapi.Client
	resolver         AddressResolver
	builder          LineItemBuilder
	reconciler       TaxReconciler
	scheduler        RetryScheduler
	orders           repository.OrderRepository
	taxStates        repository.TaxStateRepository
	txManager        repository.TransactionManager
	taxLog           TaxLogService
	metrics          *metrics.Metrics
	log              *zap.Logger
	now              func() time.Time
	taxExemptEnabled bool

	handlers map[EventType]eventHandler
}

func NewOrderTaxLifecycle(deps OrderTaxLifecycleDeps) OrderTaxLifecycle {
	l := &orderTaxLifecycle{
		client:           deps.Client,
		resolver:         deps.Resolver,
		builder:          deps.Builder,
		reconciler:       deps.Reconciler,
		scheduler:        deps.Scheduler,
		orders:           deps.Orders,
		taxStates:        deps.TaxStates,
		txManager:        deps.TxManager,
		taxLog:           deps.TaxLog,
		metrics:          deps.Metrics,
		log:              deps.Logger,
		now:              deps.Clock,
		taxExemptEnabled: deps.TaxExemptEnabled,
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	if l.now == nil {
		l.now = time.Now
	}

	l.handlers = map[EventType]eventHandler{
		EventOrderCreated:       l.onOrderCreated,
		EventOrderCompleted:     l.onOrderCompleted,
		EventOrderItemsSaved:    l.onItemsSaved,
		EventOrderStatusChanged: l.onStatusChanged,
		EventRefundAdded:        l.onRefundAdded,
		EventRefundDeleted:      l.onRefundDeleted,
		EventOrderDeleted:       l.onOrderDeleted,
		EventRetryFired:         l.onRetryFired,
	}
	return l
}

// --- Implementation ---

func (l *orderTaxLifecycle) Dispatch(ctx context.Context, ev Event) (*DispatchResult, error) {
	handler, ok := l.handlers[ev.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event %q: %w", ev.Type, apperr.ErrInvalidRequest)
	}
	if ev.OrderID <= 0 {
		return nil, fmt.Errorf("event %s without order id: %w", ev.Type, apperr.ErrInvalidRequest)
	}

	action, err := handler(ctx, ev)
	if err != nil {
		l.metrics.ObserveLifecycleEvent(string(ev.Type), "error")
		return nil, fmt.Errorf("%s order %d: %w", ev.Type, ev.OrderID, err)
	}

	l.metrics.ObserveLifecycleEvent(string(ev.Type), action)
	l.log.Debug("lifecycle event handled",
		zap.String("event", string(ev.Type)),
		zap.Int64("order_id", ev.OrderID),
		zap.String("action", action))
	return &DispatchResult{Event: ev.Type, OrderID: ev.OrderID, Action: action}, nil
}

func (l *orderTaxLifecycle) GetTaxState(ctx context.Context, orderID int64) (*model.OrderTaxState, error) {
	return l.taxStates.Find(ctx, orderID)
}

// CommitCartDocument files the document calculated at checkout under a new
// committed key.
func (l *orderTaxLifecycle) CommitCartDocument(ctx context.Context, orderID int64) (*model.OrderTaxState, error) {
	state, err := l.taxStates.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if state.CartDocumentKey == "" {
		return nil, fmt.Errorf("order %d has no checkout document: %w", orderID, apperr.ErrInvalidRequest)
	}

	committedKey := ulid.Make().String()
	if _, err := l.client.CommitTax(ctx, state.CartDocumentKey, committedKey); err != nil {
		l.taxLog.Error(ctx, orderID, "commit of checkout document failed", err)
		return nil, err
	}

	state.CommittedDocumentKey = committedKey
	state.MarkCommitted(l.now())
	if err := l.taxStates.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save tax state: %w", err)
	}
	return state, nil
}

func (l *orderTaxLifecycle) onOrderCreated(ctx context.Context, ev Event) (string, error) {
	state, err := l.loadState(ctx, ev.OrderID)
	if err != nil {
		return "", err
	}
	state.TaxExempt = l.taxExemptEnabled && ev.TaxExempt
	state.CartDocumentKey = ev.CartDocumentKey
	state.CartCustomerKey = ev.CartCustomerKey

	if err := l.taxStates.Save(ctx, state); err != nil {
		return "", fmt.Errorf("save tax state: %w", err)
	}
	return ActionCreated, nil
}

func (l *orderTaxLifecycle) onOrderCompleted(ctx context.Context, ev Event) (string, error) {
	return l.calculate(ctx, ev.OrderID, true)
}

func (l *orderTaxLifecycle) onItemsSaved(ctx context.Context, ev Event) (string, error) {
	state, err := l.loadState(ctx, ev.OrderID)
	if err != nil {
		return "", err
	}
	if state.IsCommitted {
		return ActionSkipped, nil
	}
	// edited items always invalidate the document, whatever the order status
	if _, err := l.findOrder(ctx, ev.OrderID); err != nil {
		return "", err
	}
	return l.cancelAndRecalculate(ctx, ev.OrderID)
}

func (l *orderTaxLifecycle) onStatusChanged(ctx context.Context, ev Event) (string, error) {
	return l.reopen(ctx, ev.OrderID, ev.Status)
}

func (l *orderTaxLifecycle) onRefundAdded(ctx context.Context, ev Event) (string, error) {
	order, err := l.findOrder(ctx, ev.OrderID)
	if err != nil {
		return "", err
	}
	if !order.FullyRefunded() {
		return l.calculate(ctx, ev.OrderID, true)
	}

	ok, err := l.cancel(ctx, ev.OrderID)
	if err != nil {
		return "", err
	}
	if !ok {
		return ActionFailed, nil
	}
	return ActionCancelled, nil
}

func (l *orderTaxLifecycle) onRefundDeleted(ctx context.Context, ev Event) (string, error) {
	return l.calculate(ctx, ev.OrderID, true)
}

func (l *orderTaxLifecycle) onOrderDeleted(ctx context.Context, ev Event) (string, error) {
	if _, err := l.client.CancelTax(ctx, documentKey(ev.OrderID)); err != nil {
		l.taxLog.Error(ctx, ev.OrderID, "cancel of deleted order failed", err)
	}

	err := l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := l.scheduler.UnscheduleAll(txCtx, ev.OrderID); err != nil {
			return err
		}
		if err := l.taxStates.Delete(txCtx, ev.OrderID); err != nil {
			return fmt.Errorf("delete tax state: %w", err)
		}
		if err := l.orders.Delete(txCtx, ev.OrderID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return ActionDeleted, nil
}

func (l *orderTaxLifecycle) onRetryFired(ctx context.Context, ev Event) (string, error) {
	order, err := l.orders.FindByID(ctx, ev.OrderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.taxLog.Error(ctx, ev.OrderID, "retry fired for a missing order",
				fmt.Errorf("order %d: %w", ev.OrderID, apperr.ErrStaleReference))
			return ActionStale, nil
		}
		return "", fmt.Errorf("load order: %w", err)
	}
	if order.Status != model.OrderStatusCompleted {
		return ActionSkipped, nil
	}

	state, err := l.loadState(ctx, ev.OrderID)
	if err != nil {
		return "", err
	}
	if state.IsCommitted {
		return ActionSkipped, nil
	}
	return l.calculate(ctx, ev.OrderID, true)
}

// reopen handles a status change that pulls the order out of filing.
// Completed and refunded orders are left alone.
func (l *orderTaxLifecycle) reopen(ctx context.Context, orderID int64, status string) (string, error) {
	if !reopenStatuses[status] {
		return ActionSkipped, nil
	}

	order, err := l.findOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.Status == model.OrderStatusCompleted || order.Status == model.OrderStatusRefunded {
		return ActionSkipped, nil
	}
	return l.cancelAndRecalculate(ctx, orderID)
}

// cancelAndRecalculate voids the filed document and prices the order again
// without committing.
func (l *orderTaxLifecycle) cancelAndRecalculate(ctx context.Context, orderID int64) (string, error) {
	ok, err := l.cancel(ctx, orderID)
	if err != nil {
		return "", err
	}
	if !ok {
		return ActionFailed, nil
	}
	return l.calculate(ctx, orderID, false)
}

// cancel calls CancelTax and uncommits on success. A remote failure is
// logged and reported as false.
func (l *orderTaxLifecycle) cancel(ctx context.Context, orderID int64) (bool, error) {
	if _, err := l.client.CancelTax(ctx, documentKey(orderID)); err != nil {
		l.taxLog.Error(ctx, orderID, "cancel failed", err)
		return false, nil
	}

	state, err := l.loadState(ctx, orderID)
	if err != nil {
		return false, err
	}
	state.MarkUncommitted()
	if err := l.taxStates.Save(ctx, state); err != nil {
		return false, fmt.Errorf("save tax state: %w", err)
	}
	return true, nil
}

// calculate is the completed-order path. With commit set a success files
// the order; any remote failure uncommits it and books a missed-order retry.
func (l *orderTaxLifecycle) calculate(ctx context.Context, orderID int64, commit bool) (string, error) {
	order, err := l.findOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if !order.Total.IsPositive() {
		return ActionSkipped, nil
	}

	dest := l.resolver.ResolveOrderAddress(order)
	if !l.resolver.Valid(dest) {
		return ActionSkipped, nil
	}

	lines, shipping, err := l.builder.BuildOrderLines(ctx, order)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return ActionSkipped, nil
	}
	if shipping != nil {
		lines = append(lines, *shipping)
	}

	state, err := l.loadState(ctx, orderID)
	if err != nil {
		return "", err
	}

	req := taxapi.TaxRequest{
		DocumentKey: documentKey(orderID),
		CustomerKey: customerKey(order, state),
		TaxDate:     order.CreatedAt,
		IsCommitted: commit,
		Origin:      l.resolver.StoreAddress(),
		Destination: &dest,
		Lines:       lines,
		Discounts:   l.builder.BuildRefundDiscounts(order),
	}
	if state.TaxExempt {
		req.IsExempt = taxapi.ExemptCode
	}

	result, err := l.client.CalculateTax(ctx, req)
	if err != nil {
		return l.handleCalculateFailure(ctx, state, err)
	}

	totals := l.reconciler.ApplyToOrder(result, order, state.TaxExempt)
	state.OrderTax = totals.OrderTax
	state.ShippingTax = totals.ShippingTax
	state.TotalTax = totals.TotalTax
	if commit {
		state.MarkCommitted(l.now())
	}

	err = l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := l.orders.SaveTaxes(txCtx, order); err != nil {
			return fmt.Errorf("save order taxes: %w", err)
		}
		if err := l.taxStates.Save(txCtx, state); err != nil {
			return fmt.Errorf("save tax state: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if commit {
		return ActionCommitted, nil
	}
	return ActionCalculated, nil
}

func (l *orderTaxLifecycle) handleCalculateFailure(ctx context.Context, state *model.OrderTaxState, callErr error) (string, error) {
	if !apperr.Retryable(callErr) {
		l.taxLog.Error(ctx, state.OrderID, "calculation request was not sent", callErr)
		return ActionFailed, nil
	}

	state.MarkUncommitted()
	if err := l.taxStates.Save(ctx, state); err != nil {
		return "", fmt.Errorf("save tax state: %w", err)
	}

	l.taxLog.Error(ctx, state.OrderID, fmt.Sprintf(
		"calculation failed. An attempt will be made to file order# %d again one hour from now", state.OrderID), callErr)

	if _, err := l.scheduler.ScheduleMissedOrder(ctx, state.OrderID); err != nil {
		if errors.Is(err, apperr.ErrStaleReference) {
			return ActionFailed, nil
		}
		return "", err
	}
	return ActionRetryScheduled, nil
}

func (l *orderTaxLifecycle) findOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := l.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			stale := fmt.Errorf("order %d: %w", orderID, apperr.ErrStaleReference)
			l.taxLog.Error(ctx, orderID, "event for a missing order", stale)
			return nil, stale
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

// loadState returns the stored state or a fresh, uncommitted one.
func (l *orderTaxLifecycle) loadState(ctx context.Context, orderID int64) (*model.OrderTaxState, error) {
	state, err := l.taxStates.Find(ctx, orderID)
	if err == nil {
		return state, nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return &model.OrderTaxState{OrderID: orderID}, nil
	}
	return nil, fmt.Errorf("load tax state: %w", err)
}

func documentKey(orderID int64) string {
	return strconv.FormatInt(orderID, 10)
}

// customerKey is the registered customer id, or the checkout cart key for guests.
func customerKey(order *model.Order, state *model.OrderTaxState) string {
	if order.CustomerID != 0 {
		return strconv.FormatInt(order.CustomerID, 10)
	}
	if state.CartCustomerKey != "" {
		return state.CartCustomerKey
	}
	return state.CartDocumentKey
}
