package main

import (
	"log/slog"
	"os"

	"typerace/internal/app"
	"typerace/internal/config"
	"typerace/internal/gateway"
	"typerace/internal/logging"
	"typerace/internal/service"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).With("service", "gateway")

	if err := run(cfg, logger); err != nil {
		logger.Error("gateway failed", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway exited")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := app.SignalContext()
	defer stop()

	gw, err := gateway.New(cfg.Gateway, service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL), cfg.CORSOrigins, logger)
	if err != nil {
		return err
	}

	logger.Info("proxying",
		"auth", cfg.Gateway.AuthURL,
		"rooms", cfg.Gateway.RoomsURL,
		"engine", cfg.Gateway.EngineURL)

	return app.Serve(ctx, cfg.Addr("8080"), gw.Handler(), logger)
}
