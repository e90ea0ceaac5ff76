package service_test

import (
	"context"
	"testing"

	"taxsync/internal/apperr"
	"taxsync/internal/model"
	"taxsync/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderSync_Sync(t *testing.T) {
	orders := newFakeOrderRepo()
	customers := &fakeCustomerRepo{}
	products := newFakeProductRepo()
	svc := service.NewOrderSyncService(orders, customers, products, fakeTxManager{})

	snapshot := &service.OrderSnapshot{
		Order: model.Order{
			ID:         100,
			Status:     model.OrderStatusProcessing,
			CustomerID: 9,
			Total:      dec("50.00"),
			Items:      []model.OrderItem{{ID: 1, ProductID: 7, Quantity: 2, LineTotal: dec("45.00")}},
			Refunds:    []model.Refund{{ID: 3, Amount: dec("10.00")}},
		},
		Customer: &model.Customer{ID: 9},
		Products: []model.Product{{ID: 7, SKU: "MUG-7"}, {ID: 0, SKU: "ignored"}},
	}

	order, err := svc.Sync(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, int64(100), order.Items[0].OrderID)
	assert.True(t, order.Refunds[0].Amount.Equal(dec("-10.00")))
	assert.True(t, order.TotalRefunded().Equal(dec("10.00")))

	stored, err := orders.FindByID(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, stored.Status)
	assert.Contains(t, customers.customers, int64(9))
	assert.Len(t, products.products, 1)
}

func TestOrderSync_RejectsBadSnapshots(t *testing.T) {
	tests := []struct {
		name  string
		order model.Order
	}{
		{"missing id", model.Order{}},
		{"zero quantity", model.Order{ID: 1, Items: []model.OrderItem{{ID: 1, ProductID: 7}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewOrderSyncService(newFakeOrderRepo(), &fakeCustomerRepo{}, newFakeProductRepo(), fakeTxManager{})
			_, err := svc.Sync(context.Background(), &service.OrderSnapshot{Order: tt.order})
			assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
		})
	}
}
