package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	bookingrepo "roomly/internal/bookings/repository"
	"roomly/internal/occupancy"
	roomrepo "roomly/internal/rooms/repository"
	"roomly/pkg/config"
	mongotx "roomly/pkg/db/mongo"

	"github.com/joho/godotenv"
)

const CommandName = "occupancy"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(connect).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// connect wires the reconciler against Mongo. The returned func disconnects.
func connect() (roomReconciler, func(), error) {
	cfg := config.Load(CommandName)
	cfg.SetMongo()

	txManager := mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.TransactionTimeout)
	reconciler := occupancy.NewReconciler(
		roomrepo.NewMongoRoomRepository(cfg),
		bookingrepo.NewMongoBookingRepository(cfg),
		txManager,
		cfg.Log,
	)
	return reconciler, cfg.GracefulShutdown, nil
}
