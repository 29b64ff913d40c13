package main

import (
	"context"
	"errors"

	"roomly/internal/notifications/repository"
	"roomly/internal/notifications/service"
	"roomly/pkg/app"
	"roomly/pkg/config"
	"roomly/pkg/kafka"
	kafka_config "roomly/pkg/kafka/config"
	kafka_middleware "roomly/pkg/kafka/middleware"

	"github.com/joho/godotenv"
)

const ServiceName = "notifications"

// The notifications worker turns booking events into inbox entries. It serves
// only the ops endpoints over HTTP.
func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	inbox := service.NewInboxService(repository.NewMongoNotificationRepository(cfg), cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.BookingEventsTopic,
		cfg.NotificationsGroupID,
		cfg.NotificationsDLQTopic,
		inbox.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		cfg.Log.Info("Consuming booking events",
			"topic", cfg.BookingEventsTopic,
			"group_id", cfg.NotificationsGroupID,
			"dlq_topic", cfg.NotificationsDLQTopic,
		)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Kafka consumer stopped", "error", err)
		}
	}()

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(func(shutdownCtx context.Context) error {
		cancel()
		select {
		case <-done:
		case <-shutdownCtx.Done():
		}
		return consumer.Close()
	})
	serverApp.SetApp()
	serverApp.Run()
}
