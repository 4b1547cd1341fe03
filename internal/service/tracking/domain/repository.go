// internal/service/tracking/domain/repository.go
package domain

import "context"

// TrackRepository 定义追踪记录的持久化接口，由基础设施层实现。
type TrackRepository interface {
	// Create 持久化一条新的追踪记录。
	// 同一订单重复创建必须返回 ErrTrackerExists（order_id 唯一索引兜底）。
	Create(ctx context.Context, track *Track) error

	FindByID(ctx context.Context, id string) (*Track, error)

	FindByOrderID(ctx context.Context, orderID string) (*Track, error)

	// CompareAndSetStatus 以条件更新推进状态：只有当前状态等于 from 时才写入 to。
	// 返回是否写入成功。并发下保证终态不会被覆盖。
	CompareAndSetStatus(ctx context.Context, id string, from, to Status) (bool, error)
}
