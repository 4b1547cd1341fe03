// internal/pkg/redis/client.go
package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// markerTTL 是幂等标记的保留时长，覆盖 broker 可能的重投窗口即可。
const markerTTL = 24 * time.Hour

// Client 封装 go-redis，当前只承担消费侧的幂等去重。
type Client struct {
	rdb *goredis.Client
}

// NewClient 连接 Redis 并做一次连通性检查。
func NewClient(addr string) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return &Client{rdb: rdb}, nil
}

// Once 对 key 做一次 SET NX。第一次调用返回 true，之后都返回 false。
// 消费者用它吸收 at-least-once 投递带来的重复消息：
// 只有拿到标记的那次处理才执行扣减/扣款这类不可重入的动作。
func (c *Client) Once(ctx context.Context, key string) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, 1, markerTTL).Result()
	if err != nil {
		return false, errors.Wrapf(err, "set idempotency marker %s", key)
	}
	return ok, nil
}

// Release 删除幂等标记，把执行机会还给下一次投递。
// 只能在被保护的动作失败且确定没有留下副作用时调用。
func (c *Client) Release(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(err, "release idempotency marker %s", key)
	}
	return nil
}

// GetClient 暴露底层客户端，便于少数需要原生命令的场景。
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}
