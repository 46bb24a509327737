package ports

import (
	"context"
	"time"

	"warden/contexts/trust-safety/moderation-service/domain/entities"
)

type Clock interface {
	Now() time.Time
}

type QueueFilter struct {
	Status string
	Limit  int
	Offset int
}

type Repository interface {
	ListQueue(ctx context.Context, filter QueueFilter) ([]entities.Report, error)
	GetReport(ctx context.Context, reportID string) (entities.Report, error)
	UpdateReport(ctx context.Context, report entities.Report) error
	DeleteReport(ctx context.Context, reportID string) error
}

type TemplateRepository interface {
	GetTemplate(ctx context.Context, templateID string) (entities.ResolutionTemplate, error)
}
