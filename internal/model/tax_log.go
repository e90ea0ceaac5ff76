package model

import (
	"time"

	"github.com/google/uuid"
)

// Tax log levels
const (
	LogLevelNotice = "NOTICE"
	LogLevelError  = "ERROR"
)

// TaxLogEntry is one line of the admin-facing debug log.
type TaxLogEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   *int64    `gorm:"index" json:"order_id"`
	Level     string    `gorm:"type:varchar(10);not null;index" json:"level"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Kind      string    `gorm:"type:varchar(40)" json:"kind,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
