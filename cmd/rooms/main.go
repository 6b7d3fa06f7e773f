package main

import (
	"log/slog"
	"os"

	"typerace/internal/app"
	"typerace/internal/bus"
	"typerace/internal/config"
	"typerace/internal/logging"
	"typerace/internal/service"
	"typerace/internal/transport/rest"
	"typerace/internal/transport/ws"
)

// @title			typerace rooms API
// @version		1.0
// @description	Room membership, countdown and race trigger
// @BasePath		/
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).With("service", "rooms")

	if err := run(cfg, logger); err != nil {
		logger.Error("rooms service failed", "error", err)
		os.Exit(1)
	}
	logger.Info("rooms service exited")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := app.SignalContext()
	defer stop()

	nc, err := bus.Connect(cfg.NATSURL, "typerace-rooms", logger)
	if err != nil {
		return err
	}
	defer nc.Drain()
	logger.Info("connected to nats", "url", nc.ConnectedUrl())

	hub := ws.NewHub(logger)
	engine := bus.NewEngineClient(nc, cfg.Room.EngineTimeout)
	coordinator := service.NewRoomCoordinator(cfg.Room, engine, hub, logger)
	coordinator.SetDepartureNotifier(bus.NewDeparturePublisher(nc))
	defer coordinator.Stop()

	sub, err := bus.SubscribeFinished(nc, coordinator.MarkFinished, logger)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	router := rest.NewRoomsRouter(&rest.Container{
		AuthService: service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL),
		Rooms:       coordinator,
		WSHub:       hub,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	return app.Serve(ctx, cfg.Addr("8082"), router, logger)
}
