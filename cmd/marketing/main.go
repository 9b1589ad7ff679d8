package main

import (
	"clinicops/internal/marketing/handler"
	"clinicops/internal/marketing/repository"
	"clinicops/internal/marketing/service"
	"clinicops/internal/marketing/validator"
	"clinicops/pkg/app"
	"clinicops/pkg/config"
	"clinicops/pkg/kafka"
	kafka_config "clinicops/pkg/kafka/config"
)

const ServiceName = "marketing"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Marketing service")

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.AuditTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer producer.Close()

	marketingHandler := initServices(cfg, producer)
	healthHandler := handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, marketingHandler, healthHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config, producer *kafka.Producer) *handler.MarketingHandler {
	queryRepo := repository.NewMongoQueryRepository(cfg)
	channelRepo := repository.NewMongoChannelRepository(cfg)
	catalogRepo := repository.NewMongoCatalogRepository(cfg)
	lockRepo := repository.NewMongoWriteLockRepository(cfg)

	channelService := service.NewChannelService(
		channelRepo,
		catalogRepo,
		lockRepo,
		validator.NewChannelValidator(),
		producer,
		cfg,
	)
	metricsService := service.NewMetricsService(queryRepo, channelRepo, catalogRepo, cfg)
	attributionService := service.NewAttributionService(queryRepo, catalogRepo, cfg)

	cfg.Log.Info("Marketing service initialized", "database", cfg.MongoDatabaseName)
	return handler.NewMarketingHandler(channelService, metricsService, attributionService, cfg.Log)
}
