package main

import (
	"log/slog"
	"os"

	"typerace/internal/app"
	"typerace/internal/bus"
	"typerace/internal/cache"
	"typerace/internal/config"
	"typerace/internal/logging"
	"typerace/internal/service"
	"typerace/internal/store"
	"typerace/internal/transport/rest"
	"typerace/internal/transport/ws"
)

// @title			typerace engine API
// @version		1.0
// @description	Race sessions, progress tracking and results
// @BasePath		/
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).With("service", "engine")

	if err := run(cfg, logger); err != nil {
		logger.Error("engine service failed", "error", err)
		os.Exit(1)
	}
	logger.Info("engine service exited")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := app.SignalContext()
	defer stop()

	rdb, err := app.ConnectRedis(ctx, cfg.RedisAddr, logger)
	if err != nil {
		return err
	}
	defer rdb.Close()

	nc, err := bus.Connect(cfg.NATSURL, "typerace-engine", logger)
	if err != nil {
		return err
	}
	defer nc.Drain()
	logger.Info("connected to nats", "url", nc.ConnectedUrl())

	hub := ws.NewHub(logger)
	engine := service.NewRaceEngine(
		cfg.Race,
		store.NewRaceStore(),
		hub,
		cache.NewResultsCache(rdb, cfg.Race.ResultsTTL),
		bus.NewFinishPublisher(nc),
		logger,
	)
	engine.Start()
	defer engine.Stop()

	sub, err := bus.ServeEngine(nc, engine, cfg.Room.EngineTimeout, logger)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	leftSub, err := bus.SubscribeLeft(nc, engine.PlayerLeft, logger)
	if err != nil {
		return err
	}
	defer leftSub.Unsubscribe()

	router := rest.NewEngineRouter(&rest.Container{
		AuthService: service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL),
		Engine:      engine,
		WSHub:       hub,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	return app.Serve(ctx, cfg.Addr("8083"), router, logger)
}
