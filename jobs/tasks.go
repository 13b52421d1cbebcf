// Package jobs holds the background worker: the QRIS expiry sweep and the
// idempotency key cleanup, both scheduled over Asynq.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskQRISExpireSweep cancels stale awaiting-payment QRIS invoices.
	TaskQRISExpireSweep = "qris:expire_sweep"
	// TaskIdempotencyCleanup prunes old checkout idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// QRISExpireSweepPayload configures one sweep run. Zero values fall back to
// the handler defaults.
type QRISExpireSweepPayload struct {
	TTLMinutes int `json:"ttl_minutes"`
}

// NewQRISExpireSweepTask constructs the sweep task.
func NewQRISExpireSweepTask(payload QRISExpireSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQRISExpireSweep, data), nil
}

// IdempotencyCleanupPayload configures one cleanup run.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
