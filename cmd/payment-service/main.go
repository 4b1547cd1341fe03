// cmd/payment-service/main.go
package main

import (
	"context"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"

	"minimall/internal/pkg/bootstrap"
	"minimall/internal/pkg/config"
	"minimall/internal/pkg/constants"
	"minimall/internal/pkg/database"
	"minimall/internal/pkg/logger"
	"minimall/internal/pkg/mq"
	"minimall/internal/pkg/redis"
	"minimall/internal/service/payment/application"
	"minimall/internal/service/payment/infrastructure"
	"minimall/internal/service/payment/interfaces"
)

const defaultPort = 8082

func main() {
	config.MustLoad()
	logger.Init(constants.PaymentService)
	cfg := config.GetCurrentConfig()

	db, err := database.Open(cfg.Infra.Mysql)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	repo := infrastructure.NewGormPaymentRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to migrate payment schema")
	}

	guard, err := redis.NewClient(cfg.Infra.Redis.Addr)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	bus := mq.NewBus(cfg.Infra.Kafka.BrokerList(), cfg.App.EventTopic, constants.PaymentService+"-group")
	service := application.NewPaymentApplicationService(
		repo,
		infrastructure.NewBusPublisher(bus),
		guard,
		otel.Tracer(constants.PaymentService),
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.PaymentService,
		Port:        port(),
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			interfaces.NewPaymentHandler(service).RegisterRoutes(appCtx.Mux)
		},
		Workers: []bootstrap.Worker{
			bus.Start,
			func(ctx context.Context) error { return bus.Subscribe(ctx, service.HandleEvent) },
		},
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
