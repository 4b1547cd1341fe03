// internal/service/order/infrastructure/tracking_http_adapter.go
package infrastructure

import (
	"context"
	"net/http"

	"minimall/internal/pkg/constants"
	"minimall/internal/pkg/httpclient"
)

// TrackingHTTPAdapter 通过同步 HTTP 调用追踪服务，实现编排路径的追踪端口。
type TrackingHTTPAdapter struct {
	client *httpclient.Client
}

func NewTrackingHTTPAdapter(client *httpclient.Client) *TrackingHTTPAdapter {
	return &TrackingHTTPAdapter{client: client}
}

type trackCreateRequest struct {
	OrderID string `json:"orderId"`
}

type trackCreateResponse struct {
	TrackerID string `json:"trackerId"`
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
}

type trackUpdateRequest struct {
	NewStatus string `json:"newStatus"`
}

func (a *TrackingHTTPAdapter) Create(ctx context.Context, orderID string) (string, error) {
	var resp trackCreateResponse
	err := a.client.CallService(ctx, constants.TrackingService, http.MethodPost, constants.TrackCreatePath, nil, trackCreateRequest{OrderID: orderID}, &resp)
	if err != nil {
		return "", err
	}
	return resp.TrackerID, nil
}

func (a *TrackingHTTPAdapter) UpdateStatus(ctx context.Context, trackerID, status string) error {
	return a.client.CallService(ctx, constants.TrackingService, http.MethodPatch, constants.TrackUpdatePath+trackerID, nil, trackUpdateRequest{NewStatus: status}, nil)
}
