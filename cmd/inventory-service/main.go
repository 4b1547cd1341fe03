// cmd/inventory-service/main.go
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
	"minimall/internal/service/inventory/application"
	"minimall/internal/service/inventory/infrastructure"
	"minimall/internal/service/inventory/interfaces"
)

const defaultPort = 8081

func main() {
	config.MustLoad()
	logger.Init(constants.InventoryService)
	cfg := config.GetCurrentConfig()

	db, err := database.Open(cfg.Infra.Mysql)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	repo := infrastructure.NewGormProductRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to migrate inventory schema")
	}

	guard, err := redis.NewClient(cfg.Infra.Redis.Addr)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	bus := mq.NewBus(cfg.Infra.Kafka.BrokerList(), cfg.App.EventTopic, constants.InventoryService+"-group")
	service := application.NewInventoryApplicationService(
		repo,
		infrastructure.NewBusPublisher(bus),
		guard,
		otel.Tracer(constants.InventoryService),
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.InventoryService,
		Port:        port(),
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			interfaces.NewInventoryHandler(service).RegisterRoutes(appCtx.Mux)
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
