// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"minimall/internal/pkg/config"
	"minimall/internal/pkg/logger"
	"minimall/internal/pkg/nacos"
	"minimall/internal/pkg/tracing"
	"minimall/internal/pkg/utils"
)

// AppCtx 是注册路由时可用的上下文。
type AppCtx struct {
	Mux   *http.ServeMux
	Nacos *nacos.Client
}

// Worker 是与 HTTP 服务并行运行的后台任务（消费循环、总线探测等），
// 阻塞执行直到传入的 ctx 结束。
type Worker func(ctx context.Context) error

// AppInfo 描述一个微服务的启动参数。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx)
	Workers          []Worker
}

// StartService 封装所有服务共用的启动与优雅关停流程：
// 追踪、Nacos 注册、HTTP 服务、后台 worker，关停时按后进先出清理。
func StartService(info AppInfo) {
	cfg := config.GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	naming, err := nacos.NewClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize nacos client")
	}

	ip, err := utils.GetOutboundIP()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to get outbound ip")
	}

	if err := naming.Register(info.ServiceName, ip, info.Port); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to register service")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: naming})
	}
	// 未匹配的路由统一返回 404 JSON
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: notFoundFallback(mux)}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	g, gCtx := errgroup.WithContext(workerCtx)
	for _, w := range info.Workers {
		worker := w
		g.Go(func() error { return worker(gCtx) })
	}
	g.Go(func() error {
		logger.Logger.Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger.Info().Msgf("shutting down %s", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := naming.Deregister(info.ServiceName, ip, info.Port); err != nil {
		logger.Logger.Error().Err(err).Msg("error deregistering from nacos")
	}
	stopWorkers()
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("error shutting down http server")
	}
	if err := g.Wait(); err != nil {
		logger.Logger.Error().Err(err).Msg("worker exited with error")
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("error shutting down tracer provider")
	}

	logger.Logger.Info().Msgf("%s gracefully shut down", info.ServiceName)
}

func notFoundFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern == "" {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"route not found"}`))
			return
		}
		mux.ServeHTTP(w, r)
	})
}
