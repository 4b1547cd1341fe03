// internal/service/inventory/domain/repository.go
package domain

import "context"

// ProductRepository 定义库存数据的持久化接口。
type ProductRepository interface {
	// FindByIDs 返回存在的商品行；不存在的 ID 被静默跳过。
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)

	// Reserve 把订单与商品的预留关系落库（软占用，不动库存数字）。
	Reserve(ctx context.Context, orderID string, quantities map[string]int) error

	// ReservedQuantities 返回订单预留的 商品 -> 数量。
	ReservedQuantities(ctx context.Context, orderID string) (map[string]int, error)

	// DecrementStock 条件扣减库存: stock = stock - qty WHERE stock >= qty。
	// 返回是否扣减成功。这是并发下单时库存不为负的唯一保证。
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
}
