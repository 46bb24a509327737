package ports

import (
	"context"
	"time"

	"warden/internal/shared/events"
)

// ItemExecutor performs the actual moderation action for one item against the
// backend. Any returned error is treated as recoverable up to the retry limit.
type ItemExecutor func(ctx context.Context, itemID string) error

// EligibilityFilter decides whether an item is processed or skipped without
// execution. Evaluated once per item, before the executor runs.
type EligibilityFilter func(itemID string) bool

// ActionProvider binds an operation kind to per-item capabilities. Implemented
// by the moderation service; the engine treats kinds as opaque tags.
type ActionProvider interface {
	ExecutorFor(kind string, params map[string]string) (ItemExecutor, error)
	EligibilityAbove(threshold float64) EligibilityFilter
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

// ArchivedItem is the durable audit row for one item's final snapshot,
// including items abandoned mid-flight by a cancel.
type ArchivedItem struct {
	ItemID     string
	State      string
	RetryCount int
	LastError  string
}

// ArchivedOperation is the durable record of a terminal operation.
type ArchivedOperation struct {
	OperationID string
	Kind        string
	State       string
	StartedAt   time.Time
	EndedAt     time.Time
	Total       int
	Succeeded   int
	Failed      int
	Skipped     int
	Items       []ArchivedItem
}

// HistoryRepository persists terminal operations for dashboard history.
// Archived operations are read-only; they are never resurrected.
type HistoryRepository interface {
	ArchiveOperation(ctx context.Context, row ArchivedOperation) error
	ListRecentOperations(ctx context.Context, limit int) ([]ArchivedOperation, error)
	PruneOperationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditEntry records who issued a batch control action.
type AuditEntry struct {
	AuditID     string
	ActorID     string
	Action      string
	OperationID string
	OccurredAt  time.Time
}

type AuditRepository interface {
	AppendAuditLog(ctx context.Context, row AuditEntry) error
	ListRecentAuditLogs(ctx context.Context, limit int) ([]AuditEntry, error)
}
