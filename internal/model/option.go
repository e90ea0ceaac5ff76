package model

import "time"

// Option names
const (
	OptionBulkBackfillScheduled = "bulk_backfill_scheduled"
	OptionTaxClasses            = "tax_classes"
)

// Option is a small persisted key/value setting owned by the engine.
type Option struct {
	Name      string    `gorm:"type:varchar(100);primaryKey" json:"name"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
