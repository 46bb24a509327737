package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	batcherrors "warden/contexts/trust-safety/batch-operations-service/domain/errors"
	batchports "warden/contexts/trust-safety/batch-operations-service/ports"
	"warden/contexts/trust-safety/moderation-service/domain/entities"
	domainerrors "warden/contexts/trust-safety/moderation-service/domain/errors"
	"warden/contexts/trust-safety/moderation-service/ports"
)

// Service owns the report queue and the per-report actions the batch engine
// executes. It implements the engine's ActionProvider port.
type Service struct {
	Repo      ports.Repository
	Templates ports.TemplateRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (s Service) ListQueue(ctx context.Context, filter ports.QueueFilter) ([]entities.Report, error) {
	filter.Status = strings.TrimSpace(strings.ToLower(filter.Status))
	if filter.Status != "" && !entities.ValidReportStatus(filter.Status) {
		return nil, domainerrors.ErrInvalidRequest
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		return nil, domainerrors.ErrInvalidRequest
	}
	return s.Repo.ListQueue(ctx, filter)
}

// Review marks a report as human-reviewed.
func (s Service) Review(ctx context.Context, reportID string) error {
	return s.mutate(ctx, reportID, func(report *entities.Report) error {
		report.Status = entities.ReportStatusReviewed
		return nil
	})
}

// Delete removes a report from the queue entirely.
func (s Service) Delete(ctx context.Context, reportID string) error {
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return domainerrors.ErrInvalidRequest
	}
	return s.Repo.DeleteReport(ctx, reportID)
}

// UpdateStatus moves a report to an explicit queue status.
func (s Service) UpdateStatus(ctx context.Context, reportID string, status string) error {
	status = strings.TrimSpace(strings.ToLower(status))
	if !entities.ValidReportStatus(status) {
		return domainerrors.ErrInvalidRequest
	}
	return s.mutate(ctx, reportID, func(report *entities.Report) error {
		report.Status = status
		return nil
	})
}

// ApplyTemplate resolves a report with a canned resolution template.
func (s Service) ApplyTemplate(ctx context.Context, reportID string, templateID string) error {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return domainerrors.ErrInvalidRequest
	}
	if s.Templates == nil {
		return domainerrors.ErrTemplateNotFound
	}
	template, err := s.Templates.GetTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	status := template.Status
	if status == "" {
		status = entities.ReportStatusActioned
	}
	return s.mutate(ctx, reportID, func(report *entities.Report) error {
		report.Status = status
		report.ResolutionNote = template.Body
		return nil
	})
}

// ExecutorFor binds an operation kind to a per-item executor. The engine
// treats the kind as opaque; this is where it gains meaning.
func (s Service) ExecutorFor(kind string, params map[string]string) (batchports.ItemExecutor, error) {
	switch strings.TrimSpace(strings.ToLower(kind)) {
	case "review":
		return func(ctx context.Context, itemID string) error {
			return s.Review(ctx, itemID)
		}, nil
	case "delete":
		return func(ctx context.Context, itemID string) error {
			return s.Delete(ctx, itemID)
		}, nil
	case "update_status":
		status := strings.TrimSpace(strings.ToLower(params["status"]))
		if !entities.ValidReportStatus(status) {
			return nil, domainerrors.ErrInvalidRequest
		}
		return func(ctx context.Context, itemID string) error {
			return s.UpdateStatus(ctx, itemID, status)
		}, nil
	case "apply_template":
		templateID := strings.TrimSpace(params["template_id"])
		if templateID == "" {
			return nil, domainerrors.ErrInvalidRequest
		}
		return func(ctx context.Context, itemID string) error {
			return s.ApplyTemplate(ctx, itemID, templateID)
		}, nil
	default:
		return nil, batcherrors.ErrUnknownActionKind
	}
}

// EligibilityAbove builds the risk-score predicate consumed by the engine.
// Reports that cannot be loaded are treated as ineligible rather than failed.
func (s Service) EligibilityAbove(threshold float64) batchports.EligibilityFilter {
	return func(itemID string) bool {
		report, err := s.Repo.GetReport(context.Background(), itemID)
		if err != nil {
			return false
		}
		return report.RiskScore >= threshold
	}
}

func (s Service) mutate(ctx context.Context, reportID string, apply func(*entities.Report) error) error {
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return domainerrors.ErrInvalidRequest
	}
	report, err := s.Repo.GetReport(ctx, reportID)
	if err != nil {
		return err
	}
	if err := apply(&report); err != nil {
		return err
	}
	report.UpdatedAt = s.now()
	if err := s.Repo.UpdateReport(ctx, report); err != nil {
		return err
	}
	resolveLogger(s.Logger).Debug("report mutation committed",
		"event", "moderation_report_mutated",
		"module", "trust-safety/moderation-service",
		"layer", "application",
		"report_id", reportID,
		"status", report.Status,
	)
	return nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
