package httpserver

import (
	"errors"
	"net/http"
	"time"

	moderationerrors "warden/contexts/trust-safety/moderation-service/domain/errors"
	moderationhttp "warden/contexts/trust-safety/moderation-service/transport/http"
)

func writeModerationError(w http.ResponseWriter, status int, code string, message string, details map[string]any) {
	writeJSON(w, status, moderationhttp.ErrorEnvelope{
		Status: "error",
		Error: moderationhttp.ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeModerationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, moderationerrors.ErrInvalidRequest):
		writeModerationError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, moderationerrors.ErrReportNotFound):
		writeModerationError(w, http.StatusNotFound, "REPORT_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, moderationerrors.ErrTemplateNotFound):
		writeModerationError(w, http.StatusNotFound, "TEMPLATE_NOT_FOUND", err.Error(), nil)
	default:
		writeModerationError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

func (s *Server) handleModerationQueue(w http.ResponseWriter, r *http.Request) {
	if !requireBatchAuthorization(w, r) {
		return
	}
	resp, err := s.moderation.Handler.ListQueueHandler(
		r.Context(),
		r.URL.Query().Get("status"),
		r.URL.Query().Get("limit"),
		r.URL.Query().Get("offset"),
	)
	if err != nil {
		writeModerationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
