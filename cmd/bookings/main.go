package main

import (
	"context"

	bookinghandler "roomly/internal/bookings/handler"
	bookingrepo "roomly/internal/bookings/repository"
	bookingservice "roomly/internal/bookings/service"
	bookingvalidator "roomly/internal/bookings/validator"
	"roomly/internal/notifications"
	"roomly/internal/occupancy"
	roomhandler "roomly/internal/rooms/handler"
	roomrepo "roomly/internal/rooms/repository"
	tenanthandler "roomly/internal/tenants/handler"
	tenantrepo "roomly/internal/tenants/repository"
	tenantservice "roomly/internal/tenants/service"
	tenantvalidator "roomly/internal/tenants/validator"
	"roomly/pkg/app"
	"roomly/pkg/config"
	mongotx "roomly/pkg/db/mongo"
	"roomly/pkg/kafka"
	kafka_config "roomly/pkg/kafka/config"
	kafka_middleware "roomly/pkg/kafka/middleware"
	"roomly/pkg/tracing"

	"github.com/joho/godotenv"
)

const ServiceName = "bookings"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	shutdownTracing, err := tracing.Init(context.Background(), cfg.Log, cfg.OTLPEndpoint, ServiceName, cfg.Environment)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize tracing", "error", err)
	}

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(shutdownTracing)

	dispatcher := initDispatcher(cfg, serverApp)
	handlers := initHandlers(cfg, dispatcher)

	serverApp.SetApp(handlers.bookings, handlers.tenants, handlers.occupancy)
	serverApp.Run()
}

type handlers struct {
	bookings  *bookinghandler.BookingHandler
	tenants   *tenanthandler.TenantHandler
	occupancy *roomhandler.OccupancyHandler
}

func initHandlers(cfg *config.Config, dispatcher notifications.Dispatcher) handlers {
	txManager := mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.TransactionTimeout)

	bookings := bookingrepo.NewMongoBookingRepository(cfg)
	rooms := roomrepo.NewMongoRoomRepository(cfg)
	tenants := tenantrepo.NewMongoTenantRepository(cfg)
	users := tenantrepo.NewMongoUserDirectory(cfg)

	reconciler := occupancy.NewReconciler(rooms, bookings, txManager, cfg.Log)
	materializer := tenantservice.NewMaterializer(tenants, users, cfg.Log)

	bookingService := bookingservice.NewBookingService(
		bookings,
		rooms,
		reconciler,
		materializer,
		txManager,
		dispatcher,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg,
	)
	tenantService := tenantservice.NewTenantService(
		tenants,
		bookings,
		rooms,
		reconciler,
		txManager,
		dispatcher,
		tenantvalidator.NewTenantValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Booking lifecycle services initialized", "database", cfg.MongoDatabaseName)
	return handlers{
		bookings:  bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		tenants:   tenanthandler.NewTenantHandler(tenantService, cfg.Log),
		occupancy: roomhandler.NewOccupancyHandler(reconciler, cfg.Log),
	}
}

// initDispatcher publishes booking events to Kafka when notifications are
// enabled. Otherwise events are dropped.
func initDispatcher(cfg *config.Config, serverApp *app.Application) notifications.Dispatcher {
	if !cfg.NotificationsEnabled {
		cfg.Log.Info("Notifications disabled, booking events are not published")
		return notifications.NoopDispatcher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())
	serverApp.OnShutdown(func(context.Context) error { return producer.Close() })

	return notifications.NewKafkaDispatcher(producer, cfg.NotifyRetries, ServiceName, cfg.Log)
}
