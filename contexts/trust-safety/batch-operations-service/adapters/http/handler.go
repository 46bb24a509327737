package http

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"warden/contexts/trust-safety/batch-operations-service/application"
	"warden/contexts/trust-safety/batch-operations-service/domain/entities"
	domainerrors "warden/contexts/trust-safety/batch-operations-service/domain/errors"
	"warden/contexts/trust-safety/batch-operations-service/ports"
	httptransport "warden/contexts/trust-safety/batch-operations-service/transport/http"
)

type Handler struct {
	Engine           *application.Engine
	Actions          ports.ActionProvider
	History          ports.HistoryRepository
	Audit            ports.AuditRepository
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	DefaultRateLimit entities.RateLimitPolicy
	DefaultRetry     entities.RetryConfig
	Logger           *slog.Logger
}

func (h Handler) StartHandler(
	ctx context.Context,
	actorID string,
	req httptransport.StartOperationRequest,
) (httptransport.StartOperationResponse, error) {
	if h.Actions == nil {
		return httptransport.StartOperationResponse{}, domainerrors.ErrDependencyUnavailable
	}

	executor, err := h.Actions.ExecutorFor(strings.TrimSpace(req.Kind), req.Params)
	if err != nil {
		return httptransport.StartOperationResponse{}, err
	}

	var eligibility ports.EligibilityFilter
	if req.RiskThreshold != nil {
		eligibility = h.Actions.EligibilityAbove(*req.RiskThreshold)
	}

	rateLimit := h.DefaultRateLimit
	if req.RateLimit != nil {
		rateLimit = entities.RateLimitPolicy{
			MaxRequests: req.RateLimit.MaxRequests,
			TimeWindow:  time.Duration(req.RateLimit.TimeWindowMS) * time.Millisecond,
			Enabled:     req.RateLimit.Enabled,
		}
	}
	retry := h.DefaultRetry
	if req.Retry != nil {
		retry = entities.RetryConfig{
			MaxRetries: req.Retry.MaxRetries,
			RetryDelay: time.Duration(req.Retry.RetryDelayMS) * time.Millisecond,
		}
	}

	operationID, err := h.Engine.Start(ctx, application.StartInput{
		Kind:        req.Kind,
		ItemIDs:     req.ItemIDs,
		Executor:    executor,
		Eligibility: eligibility,
		RateLimit:   rateLimit,
		Retry:       retry,
	})
	if err != nil {
		return httptransport.StartOperationResponse{}, err
	}

	h.recordAudit(ctx, actorID, "batch_start", operationID)
	return httptransport.StartOperationResponse{
		OperationID: operationID,
		State:       string(entities.OperationInProgress),
	}, nil
}

func (h Handler) PauseHandler(ctx context.Context, actorID, operationID string) (httptransport.ControlResponse, error) {
	if err := h.Engine.Pause(operationID); err != nil {
		return httptransport.ControlResponse{}, err
	}
	h.recordAudit(ctx, actorID, "batch_pause", operationID)
	return h.controlResponse(operationID)
}

func (h Handler) ResumeHandler(ctx context.Context, actorID, operationID string) (httptransport.ControlResponse, error) {
	if err := h.Engine.Resume(operationID); err != nil {
		return httptransport.ControlResponse{}, err
	}
	h.recordAudit(ctx, actorID, "batch_resume", operationID)
	return h.controlResponse(operationID)
}

func (h Handler) CancelHandler(ctx context.Context, actorID, operationID string) (httptransport.ControlResponse, error) {
	if err := h.Engine.Cancel(operationID); err != nil {
		return httptransport.ControlResponse{}, err
	}
	h.recordAudit(ctx, actorID, "batch_cancel", operationID)
	return h.controlResponse(operationID)
}

func (h Handler) SnapshotHandler(_ context.Context, operationID string) (httptransport.OperationSnapshotResponse, error) {
	snapshot, err := h.Engine.Snapshot(operationID)
	if err != nil {
		return httptransport.OperationSnapshotResponse{}, err
	}
	return snapshotToDTO(snapshot), nil
}

func (h Handler) ListActiveHandler(_ context.Context) (httptransport.ListOperationsResponse, error) {
	snapshots := h.Engine.ListActive()
	resp := httptransport.ListOperationsResponse{
		Operations: make([]httptransport.OperationSnapshotResponse, 0, len(snapshots)),
	}
	for _, snapshot := range snapshots {
		resp.Operations = append(resp.Operations, snapshotToDTO(snapshot))
	}
	return resp, nil
}

func (h Handler) ListHistoryHandler(ctx context.Context, limitRaw string) (httptransport.ListHistoryResponse, error) {
	if h.History == nil {
		return httptransport.ListHistoryResponse{}, domainerrors.ErrDependencyUnavailable
	}
	limit := 0
	if strings.TrimSpace(limitRaw) != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil || parsed < 0 {
			return httptransport.ListHistoryResponse{}, domainerrors.ErrInvalidArgument
		}
		limit = parsed
	}
	rows, err := h.History.ListRecentOperations(ctx, limit)
	if err != nil {
		return httptransport.ListHistoryResponse{}, err
	}

	resp := httptransport.ListHistoryResponse{
		Operations: make([]httptransport.HistoryOperationBody, 0, len(rows)),
	}
	for _, row := range rows {
		body := httptransport.HistoryOperationBody{
			OperationID: row.OperationID,
			Kind:        row.Kind,
			State:       row.State,
			StartedAt:   row.StartedAt.UTC().Format(time.RFC3339),
			EndedAt:     row.EndedAt.UTC().Format(time.RFC3339),
			Total:       row.Total,
			Succeeded:   row.Succeeded,
			Failed:      row.Failed,
			Skipped:     row.Skipped,
			Items:       make([]httptransport.WorkItemBody, 0, len(row.Items)),
		}
		for _, item := range row.Items {
			body.Items = append(body.Items, httptransport.WorkItemBody{
				ItemID:     item.ItemID,
				State:      item.State,
				RetryCount: item.RetryCount,
				LastError:  item.LastError,
			})
		}
		resp.Operations = append(resp.Operations, body)
	}
	return resp, nil
}

func (h Handler) controlResponse(operationID string) (httptransport.ControlResponse, error) {
	snapshot, err := h.Engine.Snapshot(operationID)
	if err != nil {
		return httptransport.ControlResponse{}, err
	}
	return httptransport.ControlResponse{
		OperationID: operationID,
		State:       string(snapshot.Operation.State),
	}, nil
}

// recordAudit appends a control-action audit row. Audit failures are logged
// and do not fail the action itself.
func (h Handler) recordAudit(ctx context.Context, actorID, action, operationID string) {
	if h.Audit == nil || h.IDGen == nil {
		return
	}
	auditID, err := h.IDGen.NewID(ctx)
	if err == nil {
		now := time.Now().UTC()
		if h.Clock != nil {
			now = h.Clock.Now().UTC()
		}
		err = h.Audit.AppendAuditLog(ctx, ports.AuditEntry{
			AuditID:     auditID,
			ActorID:     actorID,
			Action:      action,
			OperationID: operationID,
			OccurredAt:  now,
		})
	}
	if err != nil && h.Logger != nil {
		h.Logger.Error("batch audit append failed",
			"event", "batch_audit_append_failed",
			"module", "trust-safety/batch-operations-service",
			"layer", "adapter",
			"operation_id", operationID,
			"action", action,
			"error", err.Error(),
		)
	}
}

func snapshotToDTO(snapshot application.Snapshot) httptransport.OperationSnapshotResponse {
	op := snapshot.Operation
	resp := httptransport.OperationSnapshotResponse{
		OperationID: op.OperationID,
		Kind:        op.Kind,
		State:       string(op.State),
		StartedAt:   op.StartedAt.UTC().Format(time.RFC3339),
		Items:       make([]httptransport.WorkItemBody, 0, len(op.Items)),
		Progress: httptransport.ProgressBody{
			Percent:        snapshot.Progress.Percent,
			Total:          snapshot.Progress.Counts.Total,
			Succeeded:      snapshot.Progress.Counts.Succeeded,
			Failed:         snapshot.Progress.Counts.Failed,
			Skipped:        snapshot.Progress.Counts.Skipped,
			Pending:        snapshot.Progress.Counts.Pending,
			Processing:     snapshot.Progress.Counts.Processing,
			ElapsedMS:      snapshot.Progress.Elapsed.Milliseconds(),
			ItemsPerSecond: snapshot.Progress.ItemsPerSecond,
			SuccessRate:    snapshot.Progress.SuccessRate,
		},
	}
	if !op.EndedAt.IsZero() {
		resp.EndedAt = op.EndedAt.UTC().Format(time.RFC3339)
	}
	for _, item := range op.Items {
		resp.Items = append(resp.Items, httptransport.WorkItemBody{
			ItemID:     item.ItemID,
			State:      string(item.State),
			RetryCount: item.RetryCount,
			LastError:  item.LastError,
		})
	}
	if snapshot.Stats != nil {
		resp.Stats = &httptransport.StatsBody{
			TotalProcessed: snapshot.Stats.TotalProcessed,
			Succeeded:      snapshot.Stats.Succeeded,
			Failed:         snapshot.Stats.Failed,
			Skipped:        snapshot.Stats.Skipped,
			Kind:           snapshot.Stats.Kind,
			ElapsedMS:      snapshot.Stats.TimeElapsed.Milliseconds(),
		}
	}
	return resp
}
