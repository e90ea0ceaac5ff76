package taxapi

import (
	"fmt"
	"time"

	"taxsync/internal/apperr"

	"github.com/shopspring/decimal"
)

const (
	// ShippingItemKey tags the single line carrying the shipping cost.
	ShippingItemKey = "shipping_cost"

	// ExemptCode is the customer taxability code of a tax-exempt customer.
	ExemptCode = "exempt"

	TaxabilityTaxable  = "taxable"
	TaxabilityNone     = "none"
	TaxabilityShipping = "Shipping"
)

type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailure Status = "Failure"
)

type DiscountType string

const (
	DiscountCart   DiscountType = "cart"
	DiscountRefund DiscountType = "refund"
)

// Address is a structured postal address as the tax service expects it.
type Address struct {
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Company    string `json:"company,omitempty"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// LineItem is one taxable row. LineNumber joins the response back to its source row.
type LineItem struct {
	LineNumber         int64           `json:"line_number"`
	ItemKey            string          `json:"item_key"`
	Description        string          `json:"description,omitempty"`
	ExtendedPrice      decimal.Decimal `json:"extended_price"`
	TaxIncludedInPrice bool            `json:"tax_included_in_price"`
	Quantity           int             `json:"quantity"`
	TaxabilityCode     string          `json:"taxability_code"`
}

// IsShipping reports whether the line is the shipping cost line.
func (l LineItem) IsShipping() bool {
	return l.ItemKey == ShippingItemKey
}

type Discount struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
	Type   DiscountType    `json:"discount_type"`
}

// TaxRequest is one outbound calculation. DocumentKey and CustomerKey are
// sent unprefixed; the client applies the store prefix.
type TaxRequest struct {
	DocumentKey string     `json:"document_key"`
	CustomerKey string     `json:"customer_key"`
	TaxDate     time.Time  `json:"tax_date"`
	IsCommitted bool       `json:"is_committed"`
	IsExempt    string     `json:"is_exempt"`
	Origin      *Address   `json:"origin_address,omitempty"`
	Destination *Address   `json:"destination_address,omitempty"`
	Lines       []LineItem `json:"line_items"`
	Discounts   []Discount `json:"discounts"`
}

// IsEmpty reports a zero-value request, which must never reach the network.
func (r TaxRequest) IsEmpty() bool {
	return r.DocumentKey == "" && r.CustomerKey == "" && len(r.Lines) == 0 &&
		len(r.Discounts) == 0 && r.Destination == nil && r.Origin == nil
}

// Validate checks the request invariants before dispatch.
func (r TaxRequest) Validate() error {
	if r.DocumentKey == "" {
		return fmt.Errorf("document key is required: %w", apperr.ErrInvalidRequest)
	}
	if r.IsExempt != "" && r.IsExempt != ExemptCode {
		return fmt.Errorf("unknown exempt code %q: %w", r.IsExempt, apperr.ErrInvalidRequest)
	}

	shippingLines := 0
	for _, line := range r.Lines {
		if line.Quantity < 1 {
			return fmt.Errorf("line %d has quantity %d: %w", line.LineNumber, line.Quantity, apperr.ErrInvalidRequest)
		}
		if line.ExtendedPrice.IsNegative() {
			return fmt.Errorf("line %d has negative price: %w", line.LineNumber, apperr.ErrInvalidRequest)
		}
		if line.IsShipping() {
			shippingLines++
		}
	}
	if shippingLines > 1 {
		return fmt.Errorf("%d shipping lines: %w", shippingLines, apperr.ErrInvalidRequest)
	}

	for _, d := range r.Discounts {
		if !d.Amount.IsPositive() {
			return fmt.Errorf("discount %q amount must be positive: %w", d.Code, apperr.ErrInvalidRequest)
		}
		if d.Type != DiscountCart && d.Type != DiscountRefund {
			return fmt.Errorf("unknown discount type %q: %w", d.Type, apperr.ErrInvalidRequest)
		}
	}
	return nil
}

// TaxLineDetail is the tax computed for one submitted line.
type TaxLineDetail struct {
	ItemKey        string          `json:"item_key"`
	LineNumber     int64           `json:"line_number"`
	SalesTaxAmount decimal.Decimal `json:"sales_tax_amount"`
}

type TaxResult struct {
	Status         Status          `json:"status"`
	SalesTaxAmount decimal.Decimal `json:"sales_tax_amount"`
	Lines          []TaxLineDetail `json:"tax_line_details"`
	Errors         []string        `json:"errors,omitempty"`
}

// Result is the outcome of CancelTax and CommitTax.
type Result struct {
	Status Status   `json:"status"`
	Errors []string `json:"errors,omitempty"`
}

type AddressResult struct {
	Status  Status   `json:"status"`
	Address Address  `json:"address"`
	Errors  []string `json:"errors,omitempty"`
}
