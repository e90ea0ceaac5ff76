package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxsync/internal/apperr"
	"taxsync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Upsert(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id int64) (*model.Order, error)
	Exists(ctx context.Context, id int64) (bool, error)
	SaveTaxes(ctx context.Context, order *model.Order) error
	ListCompletedSince(ctx context.Context, since time.Time) ([]model.Order, error)
	Delete(ctx context.Context, id int64) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Host-owned columns refreshed on every sync. The tax columns belong to
// SaveTaxes and survive a re-sync of the same order.
var (
	orderSyncColumns = append([]string{
		"status", "customer_id", "total", "shipping_method_id", "shipping_total", "updated_at",
	}, append(addressColumns("billing_"), addressColumns("shipping_")...)...)

	itemSyncColumns = []string{"order_id", "product_id", "variation_id", "name", "quantity", "line_total"}
)

func addressColumns(prefix string) []string {
	fields := []string{
		"first_name", "last_name", "company", "address1", "address2",
		"city", "state", "postcode", "country", "email", "phone",
	}
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = prefix + f
	}
	return cols
}

// Upsert stores the host's snapshot of an order. Items are merged by id so
// their stored line tax survives; refunds are replaced.
func (r *orderRepository) Upsert(ctx context.Context, order *model.Order) error {
	db := GetDB(ctx, r.db)

	if err := db.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(orderSyncColumns),
		}).
		Create(order).Error; err != nil {
		return fmt.Errorf("upsert order %d: %w", order.ID, err)
	}

	itemIDs := make([]int64, 0, len(order.Items))
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		itemIDs = append(itemIDs, order.Items[i].ID)
	}
	for i := range order.Refunds {
		order.Refunds[i].OrderID = order.ID
	}

	stale := db.Where("order_id = ?", order.ID)
	if len(itemIDs) > 0 {
		stale = stale.Where("id NOT IN ?", itemIDs)
	}
	if err := stale.Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", order.ID).Delete(&model.Refund{}).Error; err != nil {
		return err
	}

	if len(order.Items) > 0 {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(itemSyncColumns),
		}).Create(&order.Items).Error; err != nil {
			return fmt.Errorf("store items of order %d: %w", order.ID, err)
		}
	}
	if len(order.Refunds) > 0 {
		if err := db.Create(&order.Refunds).Error; err != nil {
			return fmt.Errorf("store refunds of order %d: %w", order.ID, err)
		}
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Refunds").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveTaxes writes the computed tax columns of the order and its items.
func (r *orderRepository) SaveTaxes(ctx context.Context, order *model.Order) error {
	db := GetDB(ctx, r.db)

	if err := db.Model(&model.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"shipping_tax": order.ShippingTax,
		"cart_tax":     order.CartTax,
		"total_tax":    order.TotalTax,
	}).Error; err != nil {
		return fmt.Errorf("save taxes of order %d: %w", order.ID, err)
	}

	for _, item := range order.Items {
		if err := db.Model(&model.OrderItem{}).
			Where("id = ? AND order_id = ?", item.ID, order.ID).
			Update("line_tax", item.LineTax).Error; err != nil {
			return fmt.Errorf("save tax of item %d: %w", item.ID, err)
		}
	}
	return nil
}

// ListCompletedSince returns completed orders created at or after since, oldest first.
func (r *orderRepository) ListCompletedSince(ctx context.Context, since time.Time) ([]model.Order, error) {
	var orders []model.Order
	if err := GetDB(ctx, r.db).
		Preload("Refunds").
		Where("status = ? AND created_at >= ?", model.OrderStatusCompleted, since).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	return GetDB(ctx, r.db).Select(clause.Associations).Delete(&model.Order{ID: id}).Error
}
