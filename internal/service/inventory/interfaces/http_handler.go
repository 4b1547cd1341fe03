// internal/service/inventory/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"minimall/internal/pkg/httpx"
	"minimall/internal/service/inventory/application"
	"minimall/internal/service/inventory/domain"
)

const serviceName = "inventory-service"

// InventoryHandler 封装库存服务的 HTTP 处理器，服务于同步编排路径。
type InventoryHandler struct {
	service *application.InventoryApplicationService
}

func NewInventoryHandler(service *application.InventoryApplicationService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/inventory", h.checkAndReserve)
	mux.HandleFunc("PATCH /api/v1/inventory/update/{orderId}", h.fulfill)
}

func (h *InventoryHandler) checkAndReserve(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "inventory-service.CheckAndReserve")
	defer span.End()

	var req struct {
		OrderID    string   `json:"orderId"`
		ProductIDs []string `json:"productIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" || len(req.ProductIDs) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "orderId and productIds are required")
		return
	}

	available, err := h.service.CheckAndReserve(ctx, req.OrderID, req.ProductIDs)
	if err != nil {
		if errors.Is(err, domain.ErrNoProductsFound) {
			httpx.WriteError(w, http.StatusNotFound, "no such products")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "inventory check failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orderId":     req.OrderID,
		"isAvailable": available,
	})
}

func (h *InventoryHandler) fulfill(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "inventory-service.Fulfill")
	defer span.End()

	orderID := r.PathValue("orderId")
	if err := h.service.Fulfill(ctx, orderID); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "order has no reservations")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "stock update failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"orderId": orderID})
}
