package model

// Customer holds the saved addresses of a registered customer.
type Customer struct {
	ID       int64   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Billing  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing"`
	Shipping Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
}
