package service

import (
	"context"
	"fmt"

	"taxsync/internal/apperr"
	"taxsync/internal/model"
	"taxsync/internal/repository"

	"github.com/samber/lo"
)

// --- DTOs ---

// OrderSnapshot is the host's current view of an order, with the catalog
// rows and customer profile needed to tax it.
type OrderSnapshot struct {
	Order    model.Order     `json:"order" binding:"required"`
	Customer *model.Customer `json:"customer"`
	Products []model.Product `json:"products"`
}

// --- Interface ---

type OrderSyncService interface {
	Sync(ctx context.Context, snapshot *OrderSnapshot) (*model.Order, error)
}

type orderSyncService struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	txManager repository.TransactionManager
}

func NewOrderSyncService(orders repository.OrderRepository, customers repository.CustomerRepository,
	products repository.ProductRepository, txManager repository.TransactionManager) OrderSyncService {
	return &orderSyncService{orders: orders, customers: customers, products: products, txManager: txManager}
}

// --- Implementation ---

func (s *orderSyncService) Sync(ctx context.Context, snapshot *OrderSnapshot) (*model.Order, error) {
	order := &snapshot.Order
	if order.ID <= 0 {
		return nil, fmt.Errorf("order id is required: %w", apperr.ErrInvalidRequest)
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		if order.Items[i].Quantity < 1 {
			return nil, fmt.Errorf("item %d quantity must be positive: %w", order.Items[i].ID, apperr.ErrInvalidRequest)
		}
	}
	for i := range order.Refunds {
		order.Refunds[i].OrderID = order.ID
		// hosts are inconsistent about the sign; store refunds negative
		order.Refunds[i].Amount = order.Refunds[i].Amount.Abs().Neg()
	}

	products := lo.Filter(snapshot.Products, func(p model.Product, _ int) bool { return p.ID > 0 })

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if snapshot.Customer != nil && snapshot.Customer.ID > 0 {
			if err := s.customers.Upsert(txCtx, snapshot.Customer); err != nil {
				return fmt.Errorf("upsert customer: %w", err)
			}
		}
		if len(products) > 0 {
			if err := s.products.Upsert(txCtx, products); err != nil {
				return fmt.Errorf("upsert products: %w", err)
			}
		}
		if err := s.orders.Upsert(txCtx, order); err != nil {
			return fmt.Errorf("upsert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
