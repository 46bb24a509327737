package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	batchoperations "warden/contexts/trust-safety/batch-operations-service"
	batchhttp "warden/contexts/trust-safety/batch-operations-service/transport/http"
	moderation "warden/contexts/trust-safety/moderation-service"
	moderationentities "warden/contexts/trust-safety/moderation-service/domain/entities"
	moderationhttp "warden/contexts/trust-safety/moderation-service/transport/http"
)

func newTestServer(t *testing.T) (*Server, moderation.Module) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	moderationModule := moderation.NewInMemoryModule(logger)
	batchModule := batchoperations.NewInMemoryModule(moderationModule.Service, logger)
	return New(batchModule, moderationModule, logger, ":0"), moderationModule
}

func seedQueue(module moderation.Module, n int) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		module.Store.Seed(moderationentities.Report{
			ReportID:  fmt.Sprintf("report-%03d", i),
			ContentID: fmt.Sprintf("content-%03d", i),
			Reason:    "harassment",
			Status:    moderationentities.ReportStatusOpen,
			RiskScore: 0.8,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func doRequest(t *testing.T, server *Server, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authorized {
		req.Header.Set("Authorization", "Bearer test-token")
		req.Header.Set("X-User-Id", "moderator-7")
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return out
}

const fastPolicies = `"rate_limit": {"max_requests": 100, "time_window_ms": 10, "enabled": true},
	"retry": {"max_retries": 0, "retry_delay_ms": 1}`

func TestBatchEndpointsRequireBearerToken(t *testing.T) {
	server, _ := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/batch/operations"},
		{http.MethodGet, "/v1/batch/operations"},
		{http.MethodGet, "/v1/batch/operations/active"},
		{http.MethodGet, "/v1/batch/operations/some-id"},
		{http.MethodPost, "/v1/batch/operations/some-id/pause"},
		{http.MethodPost, "/v1/batch/operations/some-id/resume"},
		{http.MethodPost, "/v1/batch/operations/some-id/cancel"},
		{http.MethodGet, "/v1/moderation/queue"},
	}
	for _, p := range paths {
		rec := doRequest(t, server, p.method, p.path, "", false)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
		envelope := decodeBody[batchhttp.ErrorEnvelope](t, rec)
		if envelope.Error.Code != "UNAUTHORIZED" {
			t.Fatalf("%s %s: unexpected error code %s", p.method, p.path, envelope.Error.Code)
		}
	}
}

func TestBatchStartRequiresUserHeader(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/batch/operations", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	envelope := decodeBody[batchhttp.ErrorEnvelope](t, rec)
	if envelope.Error.Code != "USER_REQUIRED" {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func TestBatchStartRejectsMalformedJSON(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/v1/batch/operations", "{not json", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBatchStartRejectsUnknownKind(t *testing.T) {
	server, _ := newTestServer(t)

	body := `{"kind": "purge_everything", "item_ids": ["report-000"]}`
	rec := doRequest(t, server, http.MethodPost, "/v1/batch/operations", body, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	envelope := decodeBody[batchhttp.ErrorEnvelope](t, rec)
	if envelope.Error.Code != "UNKNOWN_ACTION_KIND" {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func TestBatchStartRejectsEmptySelection(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/v1/batch/operations", `{"kind": "review", "item_ids": []}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	envelope := decodeBody[batchhttp.ErrorEnvelope](t, rec)
	if envelope.Error.Code != "INVALID_ARGUMENT" {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func TestBatchLifecycleOverHTTP(t *testing.T) {
	server, moderationModule := newTestServer(t)
	seedQueue(moderationModule, 3)

	body := fmt.Sprintf(`{
	"kind": "review",
	"item_ids": ["report-000", "report-001", "report-002"],
	%s
}`, fastPolicies)
	rec := doRequest(t, server, http.MethodPost, "/v1/batch/operations", body, true)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	started := decodeBody[batchhttp.StartOperationResponse](t, rec)
	if started.OperationID == "" || started.State != "in_progress" {
		t.Fatalf("unexpected start response: %+v", started)
	}

	var snapshot batchhttp.OperationSnapshotResponse
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = doRequest(t, server, http.MethodGet, "/v1/batch/operations/"+started.OperationID, "", true)
		if rec.Code != http.StatusOK {
			t.Fatalf("snapshot: expected 200, got %d", rec.Code)
		}
		snapshot = decodeBody[batchhttp.OperationSnapshotResponse](t, rec)
		if snapshot.State == "completed" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("operation did not complete: %+v", snapshot)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if snapshot.Progress.Succeeded != 3 || snapshot.Progress.Percent != 100 {
		t.Fatalf("unexpected final progress: %+v", snapshot.Progress)
	}
	if snapshot.Stats == nil || snapshot.Stats.TotalProcessed != 3 {
		t.Fatalf("unexpected final stats: %+v", snapshot.Stats)
	}

	// The executors must have hit the moderation backend.
	queueRec := doRequest(t, server, http.MethodGet, "/v1/moderation/queue?status=reviewed", "", true)
	if queueRec.Code != http.StatusOK {
		t.Fatalf("queue: expected 200, got %d", queueRec.Code)
	}
	queue := decodeBody[moderationhttp.ListQueueResponse](t, queueRec)
	if len(queue.Reports) != 3 {
		t.Fatalf("expected 3 reviewed reports, got %d", len(queue.Reports))
	}

	// Terminal operations are archived for the history endpoint.
	deadline = time.Now().Add(2 * time.Second)
	for {
		rec = doRequest(t, server, http.MethodGet, "/v1/batch/operations?limit=10", "", true)
		if rec.Code != http.StatusOK {
			t.Fatalf("history: expected 200, got %d", rec.Code)
		}
		history := decodeBody[batchhttp.ListHistoryResponse](t, rec)
		if len(history.Operations) == 1 && history.Operations[0].OperationID == started.OperationID {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("operation never archived: %+v", history)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Control actions on a terminal operation are conflicts.
	rec = doRequest(t, server, http.MethodPost, "/v1/batch/operations/"+started.OperationID+"/pause", "", true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("pause after completion: expected 409, got %d", rec.Code)
	}
}

func TestBatchControlOnUnknownOperation(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/v1/batch/operations/missing/cancel", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	envelope := decodeBody[batchhttp.ErrorEnvelope](t, rec)
	if envelope.Error.Code != "OPERATION_NOT_FOUND" {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func TestBatchHistoryRejectsBadLimit(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/v1/batch/operations?limit=lots", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestModerationQueueRejectsBadStatus(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/v1/moderation/queue?status=bogus", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	envelope := decodeBody[moderationhttp.ErrorEnvelope](t, rec)
	if envelope.Error.Code != "INVALID_REQUEST" {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}
