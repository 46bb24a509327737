package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"warden/contexts/trust-safety/moderation-service/domain/entities"
	domainerrors "warden/contexts/trust-safety/moderation-service/domain/errors"
	"warden/contexts/trust-safety/moderation-service/ports"
)

// Store is the in-memory report repository. Tests and DSN-less runs seed it
// directly.
type Store struct {
	mu        sync.Mutex
	reports   map[string]entities.Report
	templates map[string]entities.ResolutionTemplate
}

func NewStore() *Store {
	return &Store{
		reports:   make(map[string]entities.Report),
		templates: make(map[string]entities.ResolutionTemplate),
	}
}

// Seed inserts or replaces a report.
func (s *Store) Seed(report entities.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ReportID] = report
}

// SeedTemplate inserts or replaces a resolution template.
func (s *Store) SeedTemplate(template entities.ResolutionTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[template.TemplateID] = template
}

func (s *Store) ListQueue(_ context.Context, filter ports.QueueFilter) ([]entities.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.Report, 0, len(s.reports))
	for _, report := range s.reports {
		if filter.Status != "" && report.Status != filter.Status {
			continue
		}
		out = append(out, report)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ReportID < out[j].ReportID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return []entities.Report{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) GetReport(_ context.Context, reportID string) (entities.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[reportID]
	if !ok {
		return entities.Report{}, domainerrors.ErrReportNotFound
	}
	return report, nil
}

func (s *Store) UpdateReport(_ context.Context, report entities.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.ReportID]; !ok {
		return domainerrors.ErrReportNotFound
	}
	s.reports[report.ReportID] = report
	return nil
}

func (s *Store) DeleteReport(_ context.Context, reportID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[reportID]; !ok {
		return domainerrors.ErrReportNotFound
	}
	delete(s.reports, reportID)
	return nil
}

func (s *Store) GetTemplate(_ context.Context, templateID string) (entities.ResolutionTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	template, ok := s.templates[templateID]
	if !ok {
		return entities.ResolutionTemplate{}, domainerrors.ErrTemplateNotFound
	}
	return template, nil
}

// Now implements ports.Clock for in-memory wiring.
func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
