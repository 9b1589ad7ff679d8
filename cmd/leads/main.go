package main

import (
	"context"

	"clinicops/internal/leads/handler"
	"clinicops/internal/leads/intake"
	"clinicops/internal/leads/repository"
	"clinicops/internal/leads/service"
	"clinicops/internal/leads/validator"
	marketingrepo "clinicops/internal/marketing/repository"
	"clinicops/pkg/app"
	"clinicops/pkg/config"
	"clinicops/pkg/kafka"
	kafka_config "clinicops/pkg/kafka/config"
)

const ServiceName = "leads"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Leads service")

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.AuditTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer producer.Close()

	leadService := initServices(cfg, producer)

	consumer := startIntake(cfg, kafkaCfg, leadService)
	defer consumer.Close()

	leadHandler := handler.NewLeadHandler(leadService, cfg.Log)
	healthHandler := handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, leadHandler, healthHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config, producer *kafka.Producer) service.LeadService {
	leadRepo := repository.NewMongoLeadRepository(cfg)
	channelRepo := marketingrepo.NewMongoChannelRepository(cfg)

	leadService := service.NewLeadService(
		leadRepo,
		channelRepo,
		validator.NewLeadValidator(),
		producer,
		cfg,
	)

	cfg.Log.Info("Leads service initialized", "database", cfg.MongoDatabaseName)
	return leadService
}

func startIntake(cfg *config.Config, kafkaCfg *kafka_config.Config, leadService service.LeadService) *kafka.Consumer {
	intakeHandler := intake.NewHandler(leadService, cfg.Log)
	consumer, err := kafka.NewConsumer(kafkaCfg, kafkaCfg.LeadIntakeTopic, intakeHandler.HandleMessage, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	go func() {
		if err := consumer.Start(context.Background()); err != nil {
			cfg.Log.Error("Lead intake consumer stopped", "error", err)
		}
	}()

	cfg.Log.Info("Lead intake consumer started", "topic", kafkaCfg.LeadIntakeTopic)
	return consumer
}
