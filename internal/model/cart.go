package model

import "github.com/shopspring/decimal"

// Cart is the in-flight checkout content sent by the host. It is not persisted.
type Cart struct {
	DocumentKey      string          `json:"document_key"`
	CustomerID       int64           `json:"customer_id"`
	SessionID        string          `json:"session_id"`
	TaxExempt        bool            `json:"tax_exempt"`
	Billing          Address         `json:"billing"`
	Shipping         Address         `json:"shipping"`
	Items            []CartItem      `json:"items"`
	ShippingMethodID string          `json:"shipping_method_id"`
	ShippingTotal    decimal.Decimal `json:"shipping_total"`
}

type CartItem struct {
	Key         string          `json:"key"`
	ProductID   int64           `json:"product_id"`
	VariationID int64           `json:"variation_id"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	LineTax     decimal.Decimal `json:"line_tax"`
}

// ProductKey mirrors OrderItem.ProductKey.
func (i CartItem) ProductKey() int64 {
	if i.VariationID != 0 {
		return i.VariationID
	}
	return i.ProductID
}
