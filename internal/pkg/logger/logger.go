// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 是进程级别的根 logger，由 Init 初始化。
var Logger zerolog.Logger

func init() {
	// 在 Init 被调用之前也要能用（例如包级 var 初始化阶段的日志）
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Init 初始化服务的根 logger，所有日志都会带上服务名。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = time.RFC3339
	Logger = zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个绑定了追踪上下文的 logger。
// 如果 ctx 中存在有效的 Span，日志会自动带上 trace_id，方便与 Jaeger 关联。
func Ctx(ctx context.Context) *zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return &Logger
	}
	l := Logger.With().
		Str("trace_id", span.SpanContext().TraceID().String()).
		Logger()
	return &l
}
