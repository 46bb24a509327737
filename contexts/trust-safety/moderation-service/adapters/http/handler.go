package http

import (
	"context"
	"strconv"
	"strings"
	"time"

	"warden/contexts/trust-safety/moderation-service/application"
	domainerrors "warden/contexts/trust-safety/moderation-service/domain/errors"
	"warden/contexts/trust-safety/moderation-service/ports"
	httptransport "warden/contexts/trust-safety/moderation-service/transport/http"
)

type Handler struct {
	Service application.Service
}

func (h Handler) ListQueueHandler(
	ctx context.Context,
	statusRaw string,
	limitRaw string,
	offsetRaw string,
) (httptransport.ListQueueResponse, error) {
	filter := ports.QueueFilter{Status: statusRaw}
	if strings.TrimSpace(limitRaw) != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			return httptransport.ListQueueResponse{}, domainerrors.ErrInvalidRequest
		}
		filter.Limit = limit
	}
	if strings.TrimSpace(offsetRaw) != "" {
		offset, err := strconv.Atoi(offsetRaw)
		if err != nil {
			return httptransport.ListQueueResponse{}, domainerrors.ErrInvalidRequest
		}
		filter.Offset = offset
	}

	reports, err := h.Service.ListQueue(ctx, filter)
	if err != nil {
		return httptransport.ListQueueResponse{}, err
	}

	resp := httptransport.ListQueueResponse{
		Reports: make([]httptransport.QueueItemBody, 0, len(reports)),
	}
	for _, report := range reports {
		resp.Reports = append(resp.Reports, httptransport.QueueItemBody{
			ReportID:       report.ReportID,
			ContentID:      report.ContentID,
			ReporterID:     report.ReporterID,
			Reason:         report.Reason,
			Status:         report.Status,
			RiskScore:      report.RiskScore,
			ResolutionNote: report.ResolutionNote,
			CreatedAt:      report.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:      report.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}
