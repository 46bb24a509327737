package entities

import "time"

const (
	ReportStatusOpen      = "open"
	ReportStatusReviewed  = "reviewed"
	ReportStatusActioned  = "actioned"
	ReportStatusDismissed = "dismissed"
	ReportStatusEscalated = "escalated"
)

// Report is one user-submitted moderation report over a piece of content.
type Report struct {
	ReportID       string
	ContentID      string
	ReporterID     string
	Reason         string
	Status         string
	RiskScore      float64
	ResolutionNote string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ResolutionTemplate is a canned resolution applied in bulk.
type ResolutionTemplate struct {
	TemplateID string
	Title      string
	Body       string
	Status     string
}

// ValidReportStatus reports whether s is a known queue status.
func ValidReportStatus(s string) bool {
	switch s {
	case ReportStatusOpen, ReportStatusReviewed, ReportStatusActioned,
		ReportStatusDismissed, ReportStatusEscalated:
		return true
	}
	return false
}
