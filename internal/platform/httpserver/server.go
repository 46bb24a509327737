package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	batchoperations "warden/contexts/trust-safety/batch-operations-service"
	moderation "warden/contexts/trust-safety/moderation-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "warden/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	batch      batchoperations.Module
	moderation moderation.Module
}

func New(
	batch batchoperations.Module,
	moderationModule moderation.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		batch:      batch,
		moderation: moderationModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/batch/operations", s.handleBatchStart)
	s.mux.HandleFunc("GET /v1/batch/operations", s.handleBatchHistory)
	s.mux.HandleFunc("GET /v1/batch/operations/active", s.handleBatchListActive)
	s.mux.HandleFunc("GET /v1/batch/operations/{operation_id}", s.handleBatchSnapshot)
	s.mux.HandleFunc("POST /v1/batch/operations/{operation_id}/pause", s.handleBatchPause)
	s.mux.HandleFunc("POST /v1/batch/operations/{operation_id}/resume", s.handleBatchResume)
	s.mux.HandleFunc("POST /v1/batch/operations/{operation_id}/cancel", s.handleBatchCancel)

	s.mux.HandleFunc("GET /v1/moderation/queue", s.handleModerationQueue)
}

func (s *Server) decodeJSON(
	w http.ResponseWriter,
	r *http.Request,
	target any,
	writeErr func(http.ResponseWriter, int, string, string),
) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
