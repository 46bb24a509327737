package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"warden/contexts/trust-safety/batch-operations-service/adapters/memory"
	"warden/contexts/trust-safety/batch-operations-service/ports"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time {
	return c.at
}

type failingHistory struct{}

func (failingHistory) ArchiveOperation(context.Context, ports.ArchivedOperation) error {
	return errors.New("not implemented")
}

func (failingHistory) ListRecentOperations(context.Context, int) ([]ports.ArchivedOperation, error) {
	return nil, errors.New("not implemented")
}

func (failingHistory) PruneOperationsBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("storage offline")
}

func TestRunOncePrunesExpiredOperations(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	ctx := context.Background()

	rows := []ports.ArchivedOperation{
		{OperationID: "op-old", EndedAt: now.AddDate(0, 0, -31)},
		{OperationID: "op-boundary", EndedAt: now.AddDate(0, 0, -30).Add(time.Hour)},
		{OperationID: "op-new", EndedAt: now.AddDate(0, 0, -1)},
	}
	for _, row := range rows {
		if err := store.ArchiveOperation(ctx, row); err != nil {
			t.Fatalf("archive %s failed: %v", row.OperationID, err)
		}
	}

	job := RetentionJob{History: store, Clock: fixedClock{at: now}, RetentionDays: 30}
	if err := job.RunOnce(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	remaining, _ := store.ListRecentOperations(ctx, 10)
	if len(remaining) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(remaining))
	}
	for _, row := range remaining {
		if row.OperationID == "op-old" {
			t.Fatal("expired operation survived the prune")
		}
	}
}

func TestRunOnceDefaultsRetentionWindow(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := store.ArchiveOperation(ctx, ports.ArchivedOperation{
		OperationID: "op-old",
		EndedAt:     now.AddDate(0, 0, -45),
	}); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	job := RetentionJob{History: store, Clock: fixedClock{at: now}}
	if err := job.RunOnce(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	remaining, _ := store.ListRecentOperations(ctx, 10)
	if len(remaining) != 0 {
		t.Fatalf("expected default 30-day window to prune, got %d survivors", len(remaining))
	}
}

func TestRunOnceSurfacesStorageErrors(t *testing.T) {
	job := RetentionJob{History: failingHistory{}, RetentionDays: 30}
	if err := job.RunOnce(context.Background()); err == nil {
		t.Fatal("expected storage error to propagate")
	}
}
