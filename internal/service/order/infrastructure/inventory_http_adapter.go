// internal/service/order/infrastructure/inventory_http_adapter.go
package infrastructure

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"minimall/internal/pkg/constants"
	"minimall/internal/pkg/httpclient"
)

// InventoryHTTPAdapter 通过同步 HTTP 调用库存服务，实现编排路径的库存端口。
type InventoryHTTPAdapter struct {
	client *httpclient.Client
}

func NewInventoryHTTPAdapter(client *httpclient.Client) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client}
}

type inventoryCheckRequest struct {
	OrderID    string   `json:"orderId"`
	ProductIDs []string `json:"productIds"`
}

type inventoryCheckResponse struct {
	OrderID     string `json:"orderId"`
	IsAvailable bool   `json:"isAvailable"`
}

// CheckAndReserve 调用库存校验接口。
// 404 表示请求的商品一个都不存在，对编排而言等价于不可满足，不作为错误上抛。
func (a *InventoryHTTPAdapter) CheckAndReserve(ctx context.Context, orderID string, productIDs []string) (bool, error) {
	req := inventoryCheckRequest{OrderID: orderID, ProductIDs: productIDs}
	var resp inventoryCheckResponse
	err := a.client.CallService(ctx, constants.InventoryService, http.MethodGet, constants.InventoryCheckPath, nil, req, &resp)
	if err != nil {
		if errors.Is(err, httpclient.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return resp.IsAvailable, nil
}

// Fulfill 在支付成功后触发扣减已预留的库存。
func (a *InventoryHTTPAdapter) Fulfill(ctx context.Context, orderID string) error {
	return a.client.CallService(ctx, constants.InventoryService, http.MethodPatch, constants.InventoryUpdatePath+orderID, nil, nil, nil)
}
