package http

type RateLimitBody struct {
	MaxRequests  int   `json:"max_requests"`
	TimeWindowMS int64 `json:"time_window_ms"`
	Enabled      bool  `json:"enabled"`
}

type RetryBody struct {
	MaxRetries   int   `json:"max_retries"`
	RetryDelayMS int64 `json:"retry_delay_ms"`
}

type StartOperationRequest struct {
	Kind          string            `json:"kind"`
	ItemIDs       []string          `json:"item_ids"`
	Params        map[string]string `json:"params,omitempty"`
	RiskThreshold *float64          `json:"risk_threshold,omitempty"`
	RateLimit     *RateLimitBody    `json:"rate_limit,omitempty"`
	Retry         *RetryBody        `json:"retry,omitempty"`
}

type StartOperationResponse struct {
	OperationID string `json:"operation_id"`
	State       string `json:"state"`
}

type ControlResponse struct {
	OperationID string `json:"operation_id"`
	State       string `json:"state"`
}

type WorkItemBody struct {
	ItemID     string `json:"item_id"`
	State      string `json:"state"`
	RetryCount int    `json:"retry_count"`
	LastError  string `json:"last_error,omitempty"`
}

type ProgressBody struct {
	Percent        float64 `json:"percent"`
	Total          int     `json:"total"`
	Succeeded      int     `json:"succeeded"`
	Failed         int     `json:"failed"`
	Skipped        int     `json:"skipped"`
	Pending        int     `json:"pending"`
	Processing     int     `json:"processing"`
	ElapsedMS      int64   `json:"elapsed_ms"`
	ItemsPerSecond float64 `json:"items_per_second"`
	SuccessRate    float64 `json:"success_rate"`
}

type StatsBody struct {
	TotalProcessed int    `json:"total_processed"`
	Succeeded      int    `json:"succeeded"`
	Failed         int    `json:"failed"`
	Skipped        int    `json:"skipped"`
	Kind           string `json:"kind"`
	ElapsedMS      int64  `json:"elapsed_ms"`
}

type OperationSnapshotResponse struct {
	OperationID string         `json:"operation_id"`
	Kind        string         `json:"kind"`
	State       string         `json:"state"`
	StartedAt   string         `json:"started_at"`
	EndedAt     string         `json:"ended_at,omitempty"`
	Items       []WorkItemBody `json:"items"`
	Progress    ProgressBody   `json:"progress"`
	Stats       *StatsBody     `json:"stats,omitempty"`
}

type ListOperationsResponse struct {
	Operations []OperationSnapshotResponse `json:"operations"`
}

type HistoryOperationBody struct {
	OperationID string         `json:"operation_id"`
	Kind        string         `json:"kind"`
	State       string         `json:"state"`
	StartedAt   string         `json:"started_at"`
	EndedAt     string         `json:"ended_at"`
	Total       int            `json:"total"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	Skipped     int            `json:"skipped"`
	Items       []WorkItemBody `json:"items"`
}

type ListHistoryResponse struct {
	Operations []HistoryOperationBody `json:"operations"`
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
