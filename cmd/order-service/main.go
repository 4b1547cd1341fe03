// cmd/order-service/main.go
package main

import (
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"minimall/internal/pkg/bootstrap"
	"minimall/internal/pkg/config"
	"minimall/internal/pkg/constants"
	"minimall/internal/pkg/database"
	"minimall/internal/pkg/httpclient"
	"minimall/internal/pkg/logger"
	"minimall/internal/pkg/mq"
	"minimall/internal/service/order/application"
	"minimall/internal/service/order/infrastructure"
	"minimall/internal/service/order/interfaces"
)

const (
	defaultPort = 8080
	// 同步编排单步下游调用的超时
	stepTimeout = 10 * time.Second
)

func main() {
	config.MustLoad()
	logger.Init(constants.OrderService)
	cfg := config.GetCurrentConfig()

	db, err := database.Open(cfg.Infra.Mysql)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	repo := infrastructure.NewGormOrderRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to migrate orders schema")
	}

	bus := mq.NewBus(cfg.Infra.Kafka.BrokerList(), cfg.App.EventTopic, constants.OrderService+"-group")
	producer := infrastructure.NewOrderEventProducer(bus)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.OrderService,
		Port:        port(),
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			// 同步编排的下游调用经由 Nacos 发现，客户端依赖注册阶段拿到的命名客户端
			tracer := otel.Tracer(constants.OrderService)
			client := httpclient.NewClient(tracer, appCtx.Nacos)

			service := application.NewOrderApplicationService(
				repo,
				infrastructure.NewInventoryHTTPAdapter(client),
				infrastructure.NewPaymentHTTPAdapter(client),
				infrastructure.NewTrackingHTTPAdapter(client),
				producer,
				tracer,
				cfg.App.DefaultUserID,
				stepTimeout,
			)
			interfaces.NewOrderHandler(service).RegisterRoutes(appCtx.Mux)
		},
		Workers: []bootstrap.Worker{bus.Start},
	})
}

func port() int {
	if raw := os.Getenv("PORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil {
			return p
		}
	}
	return defaultPort
}
