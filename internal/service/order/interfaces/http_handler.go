// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"minimall/internal/pkg/httpx"
	"minimall/internal/service/order/application"
	"minimall/internal/service/order/application/saga"
	"minimall/internal/service/order/domain"
)

const serviceName = "order-service"

var orderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "order_requests_total",
	Help: "Order placement requests by coordination mode and outcome.",
}, []string{"mode", "outcome"})

// OrderHandler 暴露下单与查询接口。
// v1 走同步编排，v2 走异步编舞，两条路径互斥，由调用方选择。
type OrderHandler struct {
	service *application.OrderApplicationService
}

func NewOrderHandler(service *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/order", h.placeSync)
	mux.HandleFunc("POST /api/v2/order", h.placeAsync)
	mux.HandleFunc("GET /api/v1/order/{orderId}", h.getOrder)
}

type placeOrderRequest struct {
	ProductID string `json:"productId"`
}

type orderResponse struct {
	OrderID   string                `json:"orderId"`
	UserID    string                `json:"userId"`
	Products  []domain.OrderProduct `json:"products,omitempty"`
	User      *domain.User          `json:"user,omitempty"`
	Track     *domain.Track         `json:"track,omitempty"`
	CreatedAt int64                 `json:"createdAt"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	return orderResponse{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Products:  order.Products,
		User:      order.User,
		Track:     order.Track,
		CreatedAt: order.CreatedAt.UnixMilli(),
	}
}

func (h *OrderHandler) placeSync(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "order-service.PlaceOrderSync")
	defer span.End()

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		orderRequests.WithLabelValues("sync", "bad_request").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.PlaceOrderSync(ctx, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyProductID):
			orderRequests.WithLabelValues("sync", "bad_request").Inc()
			httpx.WriteError(w, http.StatusBadRequest, "productId is required")
		case errors.Is(err, saga.ErrNotAvailable):
			orderRequests.WithLabelValues("sync", "not_available").Inc()
			httpx.WriteError(w, http.StatusBadRequest, "order is not available")
		case errors.Is(err, saga.ErrPaymentFailed):
			orderRequests.WithLabelValues("sync", "payment_failed").Inc()
			httpx.WriteError(w, http.StatusBadRequest, "order couldn't be paid")
		default:
			orderRequests.WithLabelValues("sync", "error").Inc()
			httpx.WriteError(w, http.StatusInternalServerError, "order placement failed")
		}
		return
	}

	orderRequests.WithLabelValues("sync", "paid").Inc()
	httpx.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) placeAsync(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "order-service.PlaceOrderAsync")
	defer span.End()

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		orderRequests.WithLabelValues("async", "bad_request").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.PlaceOrderAsync(ctx, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyProductID):
			orderRequests.WithLabelValues("async", "bad_request").Inc()
			httpx.WriteError(w, http.StatusBadRequest, "productId is required")
		case errors.Is(err, application.ErrBusUnavailable):
			orderRequests.WithLabelValues("async", "bus_unavailable").Inc()
			httpx.WriteError(w, http.StatusInternalServerError, "event bus unavailable")
		default:
			orderRequests.WithLabelValues("async", "error").Inc()
			httpx.WriteError(w, http.StatusInternalServerError, "order placement failed")
		}
		return
	}

	orderRequests.WithLabelValues("async", "accepted").Inc()
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"orderId": order.ID,
		"status":  "created",
	})
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "order-service.GetOrder")
	defer span.End()

	order, err := h.service.GetOrder(ctx, r.PathValue("orderId"))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "order not found")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}
