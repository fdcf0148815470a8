package port

import (
	"context"
	"time"
)

// Outcome statuses recorded in the history log.
const (
	StatusOK      = "ok"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// HistoryEntry is one gated query, whatever its outcome.
type HistoryEntry struct {
	Time           time.Time `json:"time"`
	Source         string    `json:"source,omitempty"`
	Question       string    `json:"question,omitempty"`
	SQL            string    `json:"sql"`
	Classification string    `json:"classification"`
	Decision       string    `json:"decision"`
	Confirmed      bool      `json:"confirmed"`
	Status         string    `json:"status"`
	Rows           int64     `json:"rows"`
	DurationMS     int64     `json:"duration_ms"`
	Error          string    `json:"error,omitempty"`
}

// HistoryRecorder stores history entries. Record is best effort and never
// fails the query it describes.
type HistoryRecorder interface {
	Record(ctx context.Context, entry HistoryEntry)
	Close() error
}
