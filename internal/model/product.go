package model

// Native tax status values of a product
const (
	TaxStatusTaxable  = "taxable"
	TaxStatusShipping = "shipping"
	TaxStatusNone     = "none"
)

// Product is the catalog data needed to build tax lines.
// TaxClass holds a remote taxability code override; empty means none.
type Product struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ParentID  int64  `gorm:"index" json:"parent_id"` // set for variations
	Name      string `gorm:"type:varchar(255)" json:"name"`
	SKU       string `gorm:"type:varchar(100);index" json:"sku"`
	Slug      string `gorm:"type:varchar(255)" json:"slug"`
	TaxStatus string `gorm:"type:varchar(20)" json:"tax_status"`
	TaxClass  string `gorm:"type:varchar(100)" json:"tax_class"`
}

// ItemKey returns the SKU, falling back to the slug.
func (p Product) ItemKey() string {
	if p.SKU != "" {
		return p.SKU
	}
	return p.Slug
}
