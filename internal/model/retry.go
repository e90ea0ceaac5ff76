package model

import (
	"time"

	"github.com/google/uuid"
)

// Retry hooks
const (
	HookBulkBackfill     = "bulk_backfill"
	HookMissedOrderRetry = "missed_order_retry"
)

// Retry status
const (
	RetryPending   = "PENDING"
	RetryDone      = "DONE"
	RetryCancelled = "CANCELLED"
)

// ScheduledRetry is a durable "run hook for order at fire_at" entry.
// At most one PENDING row exists per (hook, order_id).
type ScheduledRetry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Hook      string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_retry_pending,where:status = 'PENDING'" json:"hook"`
	OrderID   int64     `gorm:"not null;uniqueIndex:idx_retry_pending,where:status = 'PENDING';index" json:"order_id"`
	FireAt    time.Time `gorm:"not null;index" json:"fire_at"`
	Status    string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
