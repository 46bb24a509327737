package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	batcherrors "warden/contexts/trust-safety/batch-operations-service/domain/errors"
	batchhttp "warden/contexts/trust-safety/batch-operations-service/transport/http"
	moderationerrors "warden/contexts/trust-safety/moderation-service/domain/errors"
)

func writeBatchError(w http.ResponseWriter, status int, code string, message string, details map[string]any) {
	writeJSON(w, status, batchhttp.ErrorEnvelope{
		Status: "error",
		Error: batchhttp.ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeBatchDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, batcherrors.ErrInvalidArgument):
		writeBatchError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error(), nil)
	case errors.Is(err, batcherrors.ErrUnknownActionKind):
		writeBatchError(w, http.StatusBadRequest, "UNKNOWN_ACTION_KIND", err.Error(), nil)
	case errors.Is(err, moderationerrors.ErrInvalidRequest):
		writeBatchError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, batcherrors.ErrOperationNotFound):
		writeBatchError(w, http.StatusNotFound, "OPERATION_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, batcherrors.ErrInvalidTransition):
		writeBatchError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, batcherrors.ErrDependencyUnavailable):
		writeBatchError(w, http.StatusServiceUnavailable, "DEPENDENCY_UNAVAILABLE", err.Error(), nil)
	default:
		writeBatchError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

func requireBatchAuthorization(w http.ResponseWriter, r *http.Request) bool {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		writeBatchError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization bearer token is required", nil)
		return false
	}
	return true
}

func requireBatchUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeBatchError(w, http.StatusUnauthorized, "USER_REQUIRED", "X-User-Id header is required", nil)
		return "", false
	}
	return userID, true
}

func (s *Server) handleBatchStart(w http.ResponseWriter, r *http.Request) {
	if !requireBatchAuthorization(w, r) {
		return
	}
	actorID, ok := requireBatchUser(w, r)
	if !ok {
		return
	}
	var req batchhttp.StartOperationRequest
	if !s.decodeJSON(w, r, &req, func(w http.ResponseWriter, status int, code string, message string) {
		writeBatchError(w, status, strings.ToUpper(code), message, nil)
	}) {
		return
	}
	resp, err := s.batch.Handler.StartHandler(r.Context(), actorID, req)
	if err != nil {
		writeBatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleBatchSnapshot(w http.ResponseWriter, r *http.Request) {
	if !requireBatchAuthorization(w, r) {
		return
	}
	resp, err := s.batch.Handler.SnapshotHandler(r.Context(), r.PathValue("operation_id"))
	if err != nil {
		writeBatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatchListActive(w http.ResponseWriter, r *http.Request) {
	if !requireBatchAuthorization(w, r) {
		return
	}
	resp, err := s.batch.Handler.ListActiveHandler(r.Context())
	if err != nil {
		writeBatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatchHistory(w http.ResponseWriter, r *http.Request) {
	if !requireBatchAuthorization(w, r) {
		return
	}
	resp, err := s.batch.Handler.ListHistoryHandler(r.Context(), r.URL.Query().Get("limit"))
	if err != nil {
		writeBatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatchPause(w http.ResponseWriter, r *http.Request) {
	s.handleBatchControl(w, r, s.batch.Handler.PauseHandler)
}

func (s *Server) handleBatchResume(w http.ResponseWriter, r *http.Request) {
	s.handleBatchControl(w, r, s.batch.Handler.ResumeHandler)
}

func (s *Server) handleBatchCancel(w http.ResponseWriter, r *http.Request) {
	s.handleBatchControl(w, r, s.batch.Handler.CancelHandler)
}

func (s *Server) handleBatchControl(
	w http.ResponseWriter,
	r *http.Request,
	control func(ctx context.Context, actorID, operationID string) (batchhttp.ControlResponse, error),
) {
	if !requireBatchAuthorization(w, r) {
		return
	}
	actorID, ok := requireBatchUser(w, r)
	if !ok {
		return
	}
	resp, err := control(r.Context(), actorID, r.PathValue("operation_id"))
	if err != nil {
		writeBatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
