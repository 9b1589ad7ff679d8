package main

import (
	"clinicops/internal/records/handler"
	"clinicops/internal/records/repository"
	"clinicops/internal/records/service"
	"clinicops/internal/records/validator"
	"clinicops/pkg/app"
	"clinicops/pkg/config"
	"clinicops/pkg/kafka"
	kafka_config "clinicops/pkg/kafka/config"
)

const ServiceName = "records"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Records service")

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.AuditTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer producer.Close()

	recordHandler := initServices(cfg, producer)
	healthHandler := handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, recordHandler, healthHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config, producer *kafka.Producer) *handler.RecordHandler {
	recordRepo := repository.NewMongoRecordRepository(cfg)
	referenceRepo := repository.NewMongoReferenceRepository(cfg)

	recordService := service.NewRecordService(
		recordRepo,
		referenceRepo,
		validator.NewRecordValidator(),
		producer,
		cfg,
	)

	cfg.Log.Info("Records service initialized", "database", cfg.MongoDatabaseName)
	return handler.NewRecordHandler(recordService, cfg.Log)
}
