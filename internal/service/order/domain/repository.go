// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 定义订单聚合的持久化接口，由基础设施层实现。
type OrderRepository interface {
	// Create 持久化一个新订单（不含关联）。
	Create(ctx context.Context, order *Order) error

	// FindByID 加载订单及其商品、买家、追踪关联。
	FindByID(ctx context.Context, id string) (*Order, error)
}
