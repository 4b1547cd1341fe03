// internal/service/order/infrastructure/payment_http_adapter.go
package infrastructure

import (
	"context"
	"net/http"

	"minimall/internal/pkg/constants"
	"minimall/internal/pkg/httpclient"
)

// PaymentHTTPAdapter 通过同步 HTTP 调用支付服务，实现编排路径的支付端口。
type PaymentHTTPAdapter struct {
	client *httpclient.Client
}

func NewPaymentHTTPAdapter(client *httpclient.Client) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{client: client}
}

type paymentRequest struct {
	OrderID string `json:"orderId"`
}

type paymentResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// Settle 结算订单。余额不足不是传输错误，
// 支付服务会以 200 + status=failed 表达，由调用方决定是否补偿。
func (a *PaymentHTTPAdapter) Settle(ctx context.Context, orderID string) (string, error) {
	var resp paymentResponse
	err := a.client.CallService(ctx, constants.PaymentService, http.MethodPost, constants.PaymentPath, nil, paymentRequest{OrderID: orderID}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}
