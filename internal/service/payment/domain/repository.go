// internal/service/payment/domain/repository.go
package domain

import "context"

// PaymentRepository 定义结算需要的数据访问接口。
type PaymentRepository interface {
	// OrderTotal 返回订单已预留商品的总价（Σ 单价×数量）和买家 ID。
	// 订单不存在返回 ErrOrderNotFound；没有预留商品时总价为 0。
	OrderTotal(ctx context.Context, orderID string) (total float64, userID string, err error)

	// DebitIfSufficient 条件扣款: balance = balance - amount WHERE balance >= amount。
	// 返回是否扣款成功。余额校验与扣减在同一条语句里完成，
	// 同一买家的并发订单不会把余额扣成负数。
	DebitIfSufficient(ctx context.Context, userID string, amount float64) (bool, error)
}
