package application

import (
	"time"

	"warden/contexts/trust-safety/batch-operations-service/domain/entities"
)

// Progress is a derived view over an operation's current items. It is
// recomputable at any time without mutating state.
type Progress struct {
	Percent        float64
	Counts         entities.Counts
	Elapsed        time.Duration
	ItemsPerSecond float64
	SuccessRate    float64
}

// ComputeProgress derives progress figures from the operation as of now.
// Once the operation is terminal, elapsed time is frozen at EndedAt.
func ComputeProgress(op entities.Operation, now time.Time) Progress {
	counts := op.CountItems()
	terminal := counts.Terminal()

	progress := Progress{Counts: counts}
	if counts.Total > 0 {
		progress.Percent = 100 * float64(terminal) / float64(counts.Total)
	}

	if !op.StartedAt.IsZero() {
		end := now
		if !op.EndedAt.IsZero() {
			end = op.EndedAt
		}
		if end.After(op.StartedAt) {
			progress.Elapsed = end.Sub(op.StartedAt)
		}
	}

	if seconds := progress.Elapsed.Seconds(); seconds > 0 {
		progress.ItemsPerSecond = float64(terminal) / seconds
	}
	if terminal > 0 {
		progress.SuccessRate = float64(counts.Succeeded) / float64(terminal)
	}
	return progress
}
