package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	batcherrors "warden/contexts/trust-safety/batch-operations-service/domain/errors"
	"warden/contexts/trust-safety/moderation-service/adapters/memory"
	"warden/contexts/trust-safety/moderation-service/domain/entities"
	domainerrors "warden/contexts/trust-safety/moderation-service/domain/errors"
	"warden/contexts/trust-safety/moderation-service/ports"
)

func newTestService() (Service, *memory.Store) {
	store := memory.NewStore()
	return Service{Repo: store, Templates: store, Clock: store}, store
}

func seedReports(store *memory.Store, n int) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		store.Seed(entities.Report{
			ReportID:  fmt.Sprintf("report-%03d", i),
			ContentID: fmt.Sprintf("content-%03d", i),
			Reason:    "spam",
			Status:    entities.ReportStatusOpen,
			RiskScore: float64(i) / 10,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestListQueueDefaultsAndClamps(t *testing.T) {
	service, store := newTestService()
	seedReports(store, 30)
	ctx := context.Background()

	reports, err := service.ListQueue(ctx, ports.QueueFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(reports) != 20 {
		t.Fatalf("expected default limit 20, got %d", len(reports))
	}
	if reports[0].ReportID != "report-000" {
		t.Fatalf("expected oldest first, got %s", reports[0].ReportID)
	}

	reports, err = service.ListQueue(ctx, ports.QueueFilter{Limit: 500})
	if err != nil {
		t.Fatalf("list with oversized limit failed: %v", err)
	}
	if len(reports) != 30 {
		t.Fatalf("clamp to 100 should still return all 30, got %d", len(reports))
	}

	reports, err = service.ListQueue(ctx, ports.QueueFilter{Limit: 5, Offset: 28})
	if err != nil {
		t.Fatalf("list with offset failed: %v", err)
	}
	if len(reports) != 2 || reports[0].ReportID != "report-028" {
		t.Fatalf("unexpected offset page: %+v", reports)
	}
}

func TestListQueueRejectsBadFilter(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	if _, err := service.ListQueue(ctx, ports.QueueFilter{Status: "bogus"}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("bad status: expected invalid request, got %v", err)
	}
	if _, err := service.ListQueue(ctx, ports.QueueFilter{Offset: -1}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("negative offset: expected invalid request, got %v", err)
	}
}

func TestListQueueFiltersByStatus(t *testing.T) {
	service, store := newTestService()
	seedReports(store, 4)
	store.Seed(entities.Report{
		ReportID:  "report-escalated",
		Status:    entities.ReportStatusEscalated,
		CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	})

	reports, err := service.ListQueue(context.Background(), ports.QueueFilter{Status: "ESCALATED"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(reports) != 1 || reports[0].ReportID != "report-escalated" {
		t.Fatalf("unexpected filtered page: %+v", reports)
	}
}

func TestExecutorForReview(t *testing.T) {
	service, store := newTestService()
	seedReports(store, 1)

	executor, err := service.ExecutorFor("review", nil)
	if err != nil {
		t.Fatalf("executor binding failed: %v", err)
	}
	if err := executor(context.Background(), "report-000"); err != nil {
		t.Fatalf("executor failed: %v", err)
	}

	report, _ := store.GetReport(context.Background(), "report-000")
	if report.Status != entities.ReportStatusReviewed {
		t.Fatalf("expected reviewed, got %s", report.Status)
	}
	if report.UpdatedAt.IsZero() {
		t.Fatal("expected updated timestamp to be set")
	}
}

func TestExecutorForDelete(t *testing.T) {
	service, store := newTestService()
	seedReports(store, 1)

	executor, err := service.ExecutorFor("delete", nil)
	if err != nil {
		t.Fatalf("executor binding failed: %v", err)
	}
	if err := executor(context.Background(), "report-000"); err != nil {
		t.Fatalf("executor failed: %v", err)
	}
	if _, err := store.GetReport(context.Background(), "report-000"); !errors.Is(err, domainerrors.ErrReportNotFound) {
		t.Fatalf("expected report gone, got %v", err)
	}

	// A second delete surfaces the backend error to the engine.
	if err := executor(context.Background(), "report-000"); !errors.Is(err, domainerrors.ErrReportNotFound) {
		t.Fatalf("expected not found on repeat delete, got %v", err)
	}
}

func TestExecutorForUpdateStatus(t *testing.T) {
	service, store := newTestService()
	seedReports(store, 1)

	if _, err := service.ExecutorFor("update_status", nil); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("missing status: expected invalid request, got %v", err)
	}
	if _, err := service.ExecutorFor("update_status", map[string]string{"status": "bogus"}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("bad status: expected invalid request, got %v", err)
	}

	executor, err := service.ExecutorFor("update_status", map[string]string{"status": "Dismissed"})
	if err != nil {
		t.Fatalf("executor binding failed: %v", err)
	}
	if err := executor(context.Background(), "report-000"); err != nil {
		t.Fatalf("executor failed: %v", err)
	}
	report, _ := store.GetReport(context.Background(), "report-000")
	if report.Status != entities.ReportStatusDismissed {
		t.Fatalf("expected dismissed, got %s", report.Status)
	}
}

func TestExecutorForApplyTemplate(t *testing.T) {
	service, store := newTestService()
	seedReports(store, 1)
	store.SeedTemplate(entities.ResolutionTemplate{
		TemplateID: "tmpl-spam",
		Title:      "Spam takedown",
		Body:       "Removed under the spam policy.",
		Status:     entities.ReportStatusActioned,
	})

	if _, err := service.ExecutorFor("apply_template", nil); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("missing template id: expected invalid request, got %v", err)
	}

	executor, err := service.ExecutorFor("apply_template", map[string]string{"template_id": "tmpl-spam"})
	if err != nil {
		t.Fatalf("executor binding failed: %v", err)
	}
	if err := executor(context.Background(), "report-000"); err != nil {
		t.Fatalf("executor failed: %v", err)
	}
	report, _ := store.GetReport(context.Background(), "report-000")
	if report.Status != entities.ReportStatusActioned {
		t.Fatalf("expected actioned, got %s", report.Status)
	}
	if report.ResolutionNote != "Removed under the spam policy." {
		t.Fatalf("template body not applied: %q", report.ResolutionNote)
	}

	executor, _ = service.ExecutorFor("apply_template", map[string]string{"template_id": "tmpl-missing"})
	if err := executor(context.Background(), "report-000"); !errors.Is(err, domainerrors.ErrTemplateNotFound) {
		t.Fatalf("expected template not found, got %v", err)
	}
}

func TestExecutorForUnknownKind(t *testing.T) {
	service, _ := newTestService()
	if _, err := service.ExecutorFor("purge_everything", nil); !errors.Is(err, batcherrors.ErrUnknownActionKind) {
		t.Fatalf("expected unknown action kind, got %v", err)
	}
}

func TestEligibilityAbove(t *testing.T) {
	service, store := newTestService()
	store.Seed(entities.Report{ReportID: "low", RiskScore: 0.2, Status: entities.ReportStatusOpen})
	store.Seed(entities.Report{ReportID: "edge", RiskScore: 0.5, Status: entities.ReportStatusOpen})
	store.Seed(entities.Report{ReportID: "high", RiskScore: 0.9, Status: entities.ReportStatusOpen})

	eligible := service.EligibilityAbove(0.5)
	if eligible("low") {
		t.Fatal("low risk report must be ineligible")
	}
	if !eligible("edge") {
		t.Fatal("threshold is inclusive, edge report must be eligible")
	}
	if !eligible("high") {
		t.Fatal("high risk report must be eligible")
	}
	if eligible("missing") {
		t.Fatal("unloadable report must be ineligible")
	}
}
