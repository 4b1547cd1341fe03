// internal/service/order/port/ports.go
package port

import "context"

// InventoryService 是编排路径对库存服务的出站端口。
type InventoryService interface {
	// CheckAndReserve 校验并预留库存，返回是否可满足。
	CheckAndReserve(ctx context.Context, orderID string, productIDs []string) (bool, error)
	// Fulfill 在支付成功后扣减已预留的库存。
	Fulfill(ctx context.Context, orderID string) error
}

// PaymentService 是编排路径对支付服务的出站端口。
type PaymentService interface {
	// Settle 结算订单，返回 "success" 或 "failed"。
	Settle(ctx context.Context, orderID string) (string, error)
}

// TrackingService 是编排路径对追踪服务的出站端口。
type TrackingService interface {
	Create(ctx context.Context, orderID string) (trackerID string, err error)
	UpdateStatus(ctx context.Context, trackerID, status string) error
}

// OrderEventPublisher 是编舞路径的出站端口。
type OrderEventPublisher interface {
	// Ready 上报事件总线是否就绪。异步下单在创建订单前必须先检查，
	// 否则会留下既无追踪也无待处理事件的孤儿订单。
	Ready() bool
	PublishOrderCreated(ctx context.Context, orderID string, productIDs []string) error
}
