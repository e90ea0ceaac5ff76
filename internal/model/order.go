package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status constants, as reported by the host store
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusOnHold     = "on-hold"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
	OrderStatusFailed     = "failed"

	// OrderStatusSaved is not a real status; it marks an admin save of order items.
	OrderStatusSaved = "saved"
)

// Address is a postal address as the host store stores it.
type Address struct {
	FirstName string `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string `gorm:"type:varchar(100)" json:"last_name"`
	Company   string `gorm:"type:varchar(255)" json:"company"`
	Address1  string `gorm:"type:varchar(255)" json:"address_1"`
	Address2  string `gorm:"type:varchar(255)" json:"address_2"`
	City      string `gorm:"type:varchar(100)" json:"city"`
	State     string `gorm:"type:varchar(50)" json:"state"`
	Postcode  string `gorm:"type:varchar(20)" json:"postcode"`
	Country   string `gorm:"type:varchar(50)" json:"country"`
	Email     string `gorm:"type:varchar(255)" json:"email"`
	Phone     string `gorm:"type:varchar(50)" json:"phone"`
}

// Order is a snapshot of a host store order, keyed by the host's order id.
type Order struct {
	ID               int64           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Status           string          `gorm:"type:varchar(20);not null;index" json:"status"`
	CustomerID       int64           `gorm:"index" json:"customer_id"` // 0 for guest checkouts
	Total            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	ShippingMethodID string          `gorm:"type:varchar(100)" json:"shipping_method_id"`
	ShippingTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"shipping_total"`
	ShippingTax      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"shipping_tax"`
	CartTax          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cart_tax"`
	TotalTax         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_tax"`
	Billing          Address         `gorm:"embedded;embeddedPrefix:billing_" json:"billing"`
	Shipping         Address         `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Refunds          []Refund        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"refunds"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderItem is one product row of an order.
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	OrderID     int64           `gorm:"not null;index" json:"order_id"`
	ProductID   int64           `gorm:"not null;index" json:"product_id"`
	VariationID int64           `json:"variation_id"`
	Name        string          `gorm:"type:varchar(255)" json:"name"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"line_total"`
	LineTax     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"line_tax"`
}

// Refund amounts are stored the way the host reports them: negative.
type Refund struct {
	ID        int64           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	OrderID   int64           `gorm:"not null;index" json:"order_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Reason    string          `gorm:"type:text" json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}

// ProductKey returns the id the tax service uses to join this row back.
func (i OrderItem) ProductKey() int64 {
	if i.VariationID != 0 {
		return i.VariationID
	}
	return i.ProductID
}

// TotalRefunded is the positive sum of all refunds on the order.
func (o *Order) TotalRefunded() decimal.Decimal {
	total := decimal.Zero
	for _, r := range o.Refunds {
		total = total.Add(r.Amount.Abs())
	}
	return total
}

// FullyRefunded reports whether refunds cover the whole order total.
func (o *Order) FullyRefunded() bool {
	return o.Status == OrderStatusRefunded || o.TotalRefunded().GreaterThanOrEqual(o.Total)
}
