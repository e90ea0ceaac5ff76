package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderTaxState is the per-order filing state kept alongside the host order.
// CommittedDate is set iff IsCommitted.
type OrderTaxState struct {
	OrderID              int64           `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	IsCommitted          bool            `gorm:"not null;default:false;index" json:"is_committed"`
	CommittedDate        *time.Time      `json:"committed_date"`
	OrderTax             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"order_tax"`
	ShippingTax          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"shipping_tax"`
	TotalTax             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_tax"`
	TaxExempt            bool            `gorm:"not null;default:false" json:"tax_exempt"`
	CartDocumentKey      string          `gorm:"type:varchar(100)" json:"cart_document_key"`
	CartCustomerKey      string          `gorm:"type:varchar(100)" json:"cart_customer_key"`
	CommittedDocumentKey string          `gorm:"type:varchar(100)" json:"committed_document_key"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// MarkCommitted records a successful filing at the given time.
func (s *OrderTaxState) MarkCommitted(at time.Time) {
	s.IsCommitted = true
	s.CommittedDate = &at
}

// MarkUncommitted clears the filing flag and its date.
func (s *OrderTaxState) MarkUncommitted() {
	s.IsCommitted = false
	s.CommittedDate = nil
}
