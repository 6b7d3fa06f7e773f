package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"typerace/internal/app"
	"typerace/internal/config"
	"typerace/internal/logging"
	"typerace/internal/repository"
	"typerace/internal/service"
	"typerace/internal/transport/rest"

	"golang.org/x/crypto/bcrypt"
)

// @title			typerace auth API
// @version		1.0
// @description	Accounts and bearer tokens
// @BasePath		/
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).With("service", "auth")

	if err := run(cfg, logger); err != nil {
		logger.Error("auth service failed", "error", err)
		os.Exit(1)
	}
	logger.Info("auth service exited")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := app.SignalContext()
	defer stop()

	mongoClient, err := app.ConnectMongo(ctx, cfg.MongoURI, logger)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoClient.Disconnect(disconnectCtx)
	}()

	users := repository.NewUserRepo(mongoClient.Database(cfg.MongoDB))
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}

	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL)
	userSvc := service.NewUserService(users, authSvc, bcrypt.DefaultCost, logger)

	router := rest.NewAuthRouter(&rest.Container{
		AuthService: authSvc,
		UserService: userSvc,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	return app.Serve(ctx, cfg.Addr("8081"), router, logger)
}
