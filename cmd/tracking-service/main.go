// cmd/tracking-service/main.go
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
	"minimall/internal/service/tracking/application"
	"minimall/internal/service/tracking/infrastructure"
	"minimall/internal/service/tracking/interfaces"
)

const defaultPort = 8083

func main() {
	config.MustLoad()
	logger.Init(constants.TrackingService)
	cfg := config.GetCurrentConfig()

	db, err := database.Open(cfg.Infra.Mysql)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	repo := infrastructure.NewGormTrackRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to migrate tracking schema")
	}

	// watch 接口的订阅者在状态变更时收到推送
	hub := interfaces.NewWatchHub()
	service := application.NewTrackingApplicationService(repo, otel.Tracer(constants.TrackingService), hub)

	bus := mq.NewBus(cfg.Infra.Kafka.BrokerList(), cfg.App.EventTopic, constants.TrackingService+"-group")

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.TrackingService,
		Port:        port(),
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			interfaces.NewTrackingHandler(service, hub).RegisterRoutes(appCtx.Mux)
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
