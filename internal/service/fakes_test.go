package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"taxsync/internal/apperr"
	"taxsync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[int64]*model.Order
	saved  int
}

func newFakeOrderRepo(orders ...*model.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[int64]*model.Order{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) Upsert(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id int64) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, apperr.ErrNotFound)
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	cp.Refunds = append([]model.Refund(nil), o.Refunds...)
	return &cp, nil
}

func (r *fakeOrderRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.orders[id]
	return ok, nil
}

func (r *fakeOrderRepo) SaveTaxes(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[order.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	o.ShippingTax = order.ShippingTax
	o.CartTax = order.CartTax
	o.TotalTax = order.TotalTax
	o.Items = append([]model.OrderItem(nil), order.Items...)
	r.saved++
	return nil
}

func (r *fakeOrderRepo) ListCompletedSince(_ context.Context, since time.Time) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.Status == model.OrderStatusCompleted && !o.CreatedAt.Before(since) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

type fakeCustomerRepo struct {
	customers map[int64]*model.Customer
}

func (r *fakeCustomerRepo) Upsert(_ context.Context, c *model.Customer) error {
	if r.customers == nil {
		r.customers = map[int64]*model.Customer{}
	}
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id int64) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, apperr.ErrNotFound)
	}
	return c, nil
}

type fakeProductRepo struct {
	products map[int64]model.Product
	lookups  int
}

func newFakeProductRepo(products ...model.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[int64]model.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Upsert(_ context.Context, products []model.Product) error {
	for _, p := range products {
		r.products[p.ID] = p
	}
	return nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []int64) (map[int64]model.Product, error) {
	r.lookups++
	out := make(map[int64]model.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeTaxStateRepo struct {
	states map[int64]model.OrderTaxState
}

func newFakeTaxStateRepo(states ...model.OrderTaxState) *fakeTaxStateRepo {
	r := &fakeTaxStateRepo{states: map[int64]model.OrderTaxState{}}
	for _, s := range states {
		r.states[s.OrderID] = s
	}
	return r
}

func (r *fakeTaxStateRepo) Find(_ context.Context, orderID int64) (*model.OrderTaxState, error) {
	s, ok := r.states[orderID]
	if !ok {
		return nil, fmt.Errorf("tax state of order %d: %w", orderID, apperr.ErrNotFound)
	}
	return &s, nil
}

func (r *fakeTaxStateRepo) Save(_ context.Context, state *model.OrderTaxState) error {
	r.states[state.OrderID] = *state
	return nil
}

func (r *fakeTaxStateRepo) Delete(_ context.Context, orderID int64) error {
	delete(r.states, orderID)
	return nil
}

type fakeRetryRepo struct {
	mu      sync.Mutex
	retries []model.ScheduledRetry
}

func (r *fakeRetryRepo) Create(_ context.Context, retry *model.ScheduledRetry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.retries {
		if existing.Status == model.RetryPending && existing.Hook == retry.Hook && existing.OrderID == retry.OrderID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.retries = append(r.retries, *retry)
	return nil
}

func (r *fakeRetryRepo) FindPending(_ context.Context, hook string, orderID int64) (*model.ScheduledRetry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.retries {
		if existing.Status == model.RetryPending && existing.Hook == hook && existing.OrderID == orderID {
			cp := existing
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRetryRepo) ListDue(_ context.Context, now time.Time, limit int) ([]model.ScheduledRetry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ScheduledRetry
	for _, existing := range r.retries {
		if existing.Status == model.RetryPending && !existing.FireAt.After(now) {
			out = append(out, existing)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRetryRepo) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.retries {
		if r.retries[i].ID == id && r.retries[i].Status == model.RetryPending {
			r.retries[i].Status = model.RetryDone
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRetryRepo) CancelPending(_ context.Context, hook string, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.retries {
		if r.retries[i].Status == model.RetryPending && r.retries[i].Hook == hook && r.retries[i].OrderID == orderID {
			r.retries[i].Status = model.RetryCancelled
		}
	}
	return nil
}

func (r *fakeRetryRepo) CancelAllForOrder(_ context.Context, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.retries {
		if r.retries[i].Status == model.RetryPending && r.retries[i].OrderID == orderID {
			r.retries[i].Status = model.RetryCancelled
		}
	}
	return nil
}

func (r *fakeRetryRepo) List(_ context.Context, status string, page, limit int) ([]model.ScheduledRetry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ScheduledRetry
	for _, existing := range r.retries {
		if status == "" || existing.Status == status {
			out = append(out, existing)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRetryRepo) pending() []model.ScheduledRetry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ScheduledRetry
	for _, existing := range r.retries {
		if existing.Status == model.RetryPending {
			out = append(out, existing)
		}
	}
	return out
}

type fakeOptionRepo struct {
	values map[string]string
}

func (r *fakeOptionRepo) Get(_ context.Context, name string) (string, bool, error) {
	v, ok := r.values[name]
	return v, ok, nil
}

func (r *fakeOptionRepo) Set(_ context.Context, name, value string) error {
	if r.values == nil {
		r.values = map[string]string{}
	}
	r.values[name] = value
	return nil
}

type fakeTaxLogRepo struct {
	entries []model.TaxLogEntry
}

func (r *fakeTaxLogRepo) Log(_ context.Context, entry *model.TaxLogEntry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeTaxLogRepo) List(_ context.Context, orderID *int64, page, limit int) ([]model.TaxLogEntry, int64, error) {
	var out []model.TaxLogEntry
	for _, e := range r.entries {
		if orderID == nil || (e.OrderID != nil && *e.OrderID == *orderID) {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

type recordingPublisher struct {
	published []any
}

func (p *recordingPublisher) Publish(v any) {
	p.published = append(p.published, v)
}
