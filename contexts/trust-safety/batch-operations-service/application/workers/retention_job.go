package workers

import (
	"context"
	"log/slog"
	"time"

	"warden/contexts/trust-safety/batch-operations-service/ports"
)

// RetentionJob prunes archived operations older than the retention window.
type RetentionJob struct {
	History       ports.HistoryRepository
	Clock         ports.Clock
	RetentionDays int
	Logger        *slog.Logger
}

func (j RetentionJob) RunOnce(ctx context.Context) error {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	days := j.RetentionDays
	if days <= 0 {
		days = 30
	}
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}
	cutoff := now.AddDate(0, 0, -days)

	pruned, err := j.History.PruneOperationsBefore(ctx, cutoff)
	if err != nil {
		logger.Error("history retention prune failed",
			"event", "batch_history_prune_failed",
			"module", "trust-safety/batch-operations-service",
			"layer", "worker",
			"cutoff", cutoff.Format(time.RFC3339),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("history retention prune completed",
		"event", "batch_history_pruned",
		"module", "trust-safety/batch-operations-service",
		"layer", "worker",
		"cutoff", cutoff.Format(time.RFC3339),
		"pruned", pruned,
	)
	return nil
}
