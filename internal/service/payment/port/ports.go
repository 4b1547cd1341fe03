// internal/service/payment/port/ports.go
package port

import (
	"context"

	"minimall/internal/event"
)

// EventPublisher 是支付服务的出站事件端口。
type EventPublisher interface {
	Publish(ctx context.Context, key string, env event.Envelope) error
}

// IdempotencyGuard 见 inventory/port：同一 key 只放行第一次处理，
// 动作失败且无副作用时用 Release 归还标记，交给下一次重投。
type IdempotencyGuard interface {
	Once(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
