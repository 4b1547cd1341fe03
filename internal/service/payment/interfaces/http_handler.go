// internal/service/payment/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"minimall/internal/pkg/httpx"
	"minimall/internal/service/payment/application"
	"minimall/internal/service/payment/domain"
)

const serviceName = "payment-service"

// PaymentHandler 封装支付服务的 HTTP 处理器，服务于同步编排路径。
type PaymentHandler struct {
	service *application.PaymentApplicationService
}

func NewPaymentHandler(service *application.PaymentApplicationService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payment", h.settle)
}

func (h *PaymentHandler) settle(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "payment-service.Settle")
	defer span.End()

	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	status, err := h.service.Settle(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "order not found")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "settlement failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"orderId": req.OrderID,
		"status":  string(status),
	})
}
