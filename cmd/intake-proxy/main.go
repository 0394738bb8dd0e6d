package main

import (
	"context"

	"attorneyvisit/internal/audit"
	"attorneyvisit/internal/directory"
	"attorneyvisit/internal/intake/handler"
	"attorneyvisit/internal/intake/service"
	"attorneyvisit/internal/intake/validator"
	"attorneyvisit/internal/refine"
	"attorneyvisit/internal/workflow"
	"attorneyvisit/pkg/app"
	"attorneyvisit/pkg/config"
	"attorneyvisit/pkg/kafka"
)

const ServiceName = "intake-proxy"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	application := app.NewApplication(cfg)

	deps := service.Dependencies{
		Forwarder: workflow.NewForwarder(cfg.SubmitWebhookURL, cfg.SubmitWebhookSecret, cfg.UpstreamTimeout, cfg.Log),
		Directory: initDirectory(cfg),
		Refiner:   refine.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.UpstreamTimeout, cfg.Log),
		Validator: validator.NewIntakeValidator(cfg.Log),
		Simulate:  cfg.SubmitSimulate,
		Log:       cfg.Log,
		Source:    ServiceName,
	}

	var db handler.Pinger
	if cfg.Client.Mongo != nil {
		receipts := audit.NewMongoRepository(cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.MongoConnTimeout)
		deps.Receipts = receipts
		db = receipts
		cfg.Log.Info("Submission receipts enabled", "database", cfg.MongoDatabaseName)
	}

	if producer := initProducer(cfg); producer != nil {
		deps.Publisher = producer
		application.OnShutdown(func(context.Context) {
			if err := producer.Close(); err != nil {
				cfg.Log.Warn("Failed to close Kafka producer", "error", err)
			}
		})
	}

	intakeHandler := handler.NewIntakeHandler(service.NewIntakeService(deps), cfg.Log)
	cfg.Log.Info("Intake service initialized")

	application.SetApp(intakeHandler, db)
	application.Run()
}

func initDirectory(cfg *config.Config) *directory.Client {
	tokens := directory.NewTokenCache(directory.Credentials{
		BaseURL:      cfg.DirectoryBaseURL,
		AuthorityURL: cfg.DirectoryAuthorityURL,
		TenantID:     cfg.DirectoryTenantID,
		ClientID:     cfg.DirectoryClientID,
		ClientSecret: cfg.DirectoryClientSecret,
	}, cfg.Log, directory.WithExpiryMargin(cfg.TokenExpiryMargin))

	if !cfg.DirectoryConfigured() {
		cfg.Log.Warn("Directory service not configured, lookups will fail")
	}
	return directory.NewClient(cfg.DirectoryBaseURL, cfg.DirectoryEntitySet, tokens, cfg.Log)
}

func initProducer(cfg *config.Config) *kafka.Producer {
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}

	producer, err := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers, cfg.KafkaSubmissionTopic), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka.LoggingMiddleware(cfg.Log.With("component", "kafka")))
	cfg.Log.Info("Submission events enabled", "topic", producer.Topic(), "brokers", cfg.KafkaBrokers)
	return producer
}
