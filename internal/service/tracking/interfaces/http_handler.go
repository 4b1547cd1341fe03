// internal/service/tracking/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"minimall/internal/pkg/httpx"
	"minimall/internal/service/tracking/application"
	"minimall/internal/service/tracking/domain"
)

const serviceName = "tracking-service"

// TrackingHandler 封装追踪服务的 HTTP 处理器。
type TrackingHandler struct {
	service *application.TrackingApplicationService
	hub     *WatchHub
}

func NewTrackingHandler(service *application.TrackingApplicationService, hub *WatchHub) *TrackingHandler {
	return &TrackingHandler{service: service, hub: hub}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *TrackingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/track/create", h.createTracker)
	mux.HandleFunc("PATCH /api/v1/track/update/{trackerId}", h.updateStatus)
	mux.HandleFunc("GET /api/v1/track/{trackerId}", h.getTracker)
	mux.HandleFunc("GET /api/v1/track/watch/{trackerId}", h.watchTracker)
}

type trackResponse struct {
	TrackerID string `json:"trackerId"`
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
}

func toResponse(t *domain.Track) trackResponse {
	return trackResponse{TrackerID: t.ID, OrderID: t.OrderID, Status: string(t.Status)}
}

func (h *TrackingHandler) createTracker(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "tracking-service.CreateTracker")
	defer span.End()

	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	track, err := h.service.CreateTracker(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrTrackerExists) {
			httpx.WriteError(w, http.StatusConflict, "tracker already exists for this order")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "could not create tracker")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toResponse(track))
}

func (h *TrackingHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "tracking-service.UpdateStatus")
	defer span.End()

	trackerID := r.PathValue("trackerId")
	var req struct {
		NewStatus string `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := domain.ParseTarget(req.NewStatus)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "newStatus must be paid or canceled")
		return
	}

	track, err := h.service.UpdateStatus(ctx, trackerID, target)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTrackerNotFound):
			httpx.WriteError(w, http.StatusNotFound, "tracker not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			httpx.WriteError(w, http.StatusBadRequest, "tracker already reached a terminal state")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "could not update tracker")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(track))
}

func (h *TrackingHandler) getTracker(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "tracking-service.GetTracker")
	defer span.End()

	track, err := h.service.GetTracker(ctx, r.PathValue("trackerId"))
	if err != nil {
		if errors.Is(err, domain.ErrTrackerNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "tracker not found")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "could not load tracker")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(track))
}
