package entities

import "time"

// ItemState is the lifecycle state of one work item inside a batch operation.
type ItemState string

const (
	ItemPending    ItemState = "pending"
	ItemProcessing ItemState = "processing"
	ItemSuccess    ItemState = "success"
	ItemError      ItemState = "error"
	ItemSkipped    ItemState = "skipped"
)

// Terminal reports whether no further transitions are possible for the item.
func (s ItemState) Terminal() bool {
	return s == ItemSuccess || s == ItemError || s == ItemSkipped
}

// WorkItem is one unit of work (a single report/content id) within an operation.
// RetryCount only ever increases; Success and Skipped items are never mutated again.
type WorkItem struct {
	ItemID     string
	State      ItemState
	RetryCount int
	LastError  string
}

// OperationState is the lifecycle state of a batch operation.
type OperationState string

const (
	OperationPending    OperationState = "pending"
	OperationInProgress OperationState = "in_progress"
	OperationPaused     OperationState = "paused"
	OperationCompleted  OperationState = "completed"
	OperationCancelled  OperationState = "cancelled"
)

func (s OperationState) Terminal() bool {
	return s == OperationCompleted || s == OperationCancelled
}

// Operation is one batch request covering an ordered set of items and an
// action kind. Item order is submission order, not a processing guarantee.
type Operation struct {
	OperationID string
	Kind        string
	State       OperationState
	Items       []WorkItem
	StartedAt   time.Time
	EndedAt     time.Time // zero until the operation reaches a terminal state
}

// Counts holds per-state item tallies for an operation.
type Counts struct {
	Total      int
	Succeeded  int
	Failed     int
	Skipped    int
	Pending    int
	Processing int
}

// Terminal returns how many items have reached a terminal state.
func (c Counts) Terminal() int {
	return c.Succeeded + c.Failed + c.Skipped
}

// CountItems tallies the operation's items by state.
func (o Operation) CountItems() Counts {
	counts := Counts{Total: len(o.Items)}
	for _, item := range o.Items {
		switch item.State {
		case ItemSuccess:
			counts.Succeeded++
		case ItemError:
			counts.Failed++
		case ItemSkipped:
			counts.Skipped++
		case ItemProcessing:
			counts.Processing++
		default:
			counts.Pending++
		}
	}
	return counts
}

// RateLimitPolicy converts a requests-per-window budget into per-item
// dispatch delays. When disabled, items dispatch with no inter-item delay.
type RateLimitPolicy struct {
	MaxRequests int
	TimeWindow  time.Duration
	Enabled     bool
}

// DelayFor returns the delay before the item at 0-based dispatch position i
// may start, measured from operation start. Monotonically non-decreasing in i.
func (p RateLimitPolicy) DelayFor(i int) time.Duration {
	if !p.Enabled || p.MaxRequests <= 0 || i <= 0 {
		return 0
	}
	return time.Duration(i) * (p.TimeWindow / time.Duration(p.MaxRequests))
}

// RetryConfig bounds per-item retries. Retried items re-enter the pending
// queue after RetryDelay rather than the positional rate-limit delay.
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// OperationStats is the terminal summary emitted exactly once per operation,
// whether it completed naturally or was cancelled.
type OperationStats struct {
	OperationID    string
	Kind           string
	State          OperationState
	TotalProcessed int
	Succeeded      int
	Failed         int
	Skipped        int
	TimeElapsed    time.Duration
}
