// internal/pkg/mq/bus.go
package mq

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"minimall/internal/event"
	"minimall/internal/pkg/logger"
)

// ErrNotReady 表示与 broker 的连接尚未就绪。
// 调用方必须把它当作一次普通的下游失败处理，而不是静默丢弃。
var ErrNotReady = errors.New("event bus is not ready")

// reconnectInterval 是连接探测失败后的固定重试间隔。
// 不做指数退避，也不设重试上限。
const reconnectInterval = 5 * time.Second

// Handler 处理一条已解码的事件。每条投递调用一次。
type Handler func(ctx context.Context, env event.Envelope)

// Bus 是每个服务进程持有的事件总线网关。
//
// 四个服务共享同一个主题；每个服务使用自己的 consumer group，
// 因此每条事件每个服务各收到一份（等价于 fanout）。
// 消息按 orderId 作为 key 发布，同一订单的事件落在同一分区，
// 单个消费组内得以按序串行处理。
type Bus struct {
	brokers []string
	topic   string
	group   string

	writer *kafka.Writer
	ready  atomic.Bool
}

// NewBus 创建网关。group 是本服务的消费组名。
func NewBus(brokers []string, topic, group string) *Bus {
	return &Bus{
		brokers: brokers,
		topic:   topic,
		group:   group,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Start 启动连接维护循环：每 5 秒探测一次 broker，探测结果决定就绪状态。
// 阻塞运行直到 ctx 结束，调用方应放到独立 goroutine / worker 中。
func (b *Bus) Start(ctx context.Context) error {
	b.probe(ctx)
	ticker := time.NewTicker(reconnectInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.ready.Store(false)
			return b.writer.Close()
		case <-ticker.C:
			b.probe(ctx)
		}
	}
}

func (b *Bus) probe(ctx context.Context) {
	dialCtx, cancel := context.WithTimeout(ctx, reconnectInterval)
	defer cancel()

	conn, err := kafka.DialContext(dialCtx, "tcp", b.brokers[0])
	if err != nil {
		if b.ready.Swap(false) {
			logger.Ctx(ctx).Warn().Err(err).Msg("lost connection to broker, retrying every 5s")
		}
		return
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(b.topic); err != nil {
		if b.ready.Swap(false) {
			logger.Ctx(ctx).Warn().Err(err).Str("topic", b.topic).Msg("topic unavailable, retrying every 5s")
		}
		return
	}

	if !b.ready.Swap(true) {
		logger.Ctx(ctx).Info().Str("topic", b.topic).Msg("event bus ready")
	}
}

// Ready 上报网关当前是否可用。异步下单路径在创建订单前必须先检查它。
func (b *Bus) Ready() bool {
	return b.ready.Load()
}

// Publish 发布一条事件。key 应取 orderId，保证同一订单的事件有序。
// 只负责投递到 broker，从不等待下游消费。
func (b *Bus) Publish(ctx context.Context, key string, env event.Envelope) error {
	if !b.ready.Load() {
		return ErrNotReady
	}

	value, err := env.Bytes()
	if err != nil {
		return errors.Wrap(err, "encode event")
	}

	msg := kafka.Message{Key: []byte(key), Value: value}
	InjectTraceContext(ctx, &msg.Headers)

	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		// 写失败视为连接不可用，交给探测循环恢复
		b.ready.Store(false)
		return errors.Wrapf(err, "publish %s", env.Message)
	}
	return nil
}

// Subscribe 以本服务的消费组消费主题，每条消息调用一次 handler。
// offset 在 handler 返回后才提交（at-least-once）；解不开的消息记日志后跳过，
// 永远不会中断消费循环。阻塞运行直到 ctx 结束。
func (b *Bus) Subscribe(ctx context.Context, handler Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: b.brokers,
		Topic:   b.topic,
		GroupID: b.group,
	})
	defer reader.Close()

	logger.Ctx(ctx).Info().Str("topic", b.topic).Str("group", b.group).Msg("consumer loop started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Ctx(ctx).Info().Msg("consumer loop shutting down")
				return nil
			}
			logger.Ctx(ctx).Error().Err(err).Msg("could not read message, retrying")
			time.Sleep(reconnectInterval)
			continue
		}

		env, err := event.Decode(msg.Value)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("malformed event payload, skipping")
		} else {
			msgCtx := ExtractTraceContext(ctx, msg.Headers)
			handler(msgCtx, env)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("failed to commit offset")
		}
	}
}
