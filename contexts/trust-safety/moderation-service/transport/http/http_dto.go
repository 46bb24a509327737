package http

type QueueItemBody struct {
	ReportID       string  `json:"report_id"`
	ContentID      string  `json:"content_id"`
	ReporterID     string  `json:"reporter_id"`
	Reason         string  `json:"reason"`
	Status         string  `json:"status"`
	RiskScore      float64 `json:"risk_score"`
	ResolutionNote string  `json:"resolution_note,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type ListQueueResponse struct {
	Reports []QueueItemBody `json:"reports"`
}

type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Status    string    `json:"status"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}
