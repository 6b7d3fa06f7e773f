package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"typerace/internal/app"
	"typerace/internal/config"
	"typerace/internal/logging"
	"typerace/internal/model"
	"typerace/internal/repository"
	"typerace/internal/service"

	"golang.org/x/crypto/bcrypt"
)

// demo accounts share one password so the TUI can log in right away
const demoPassword = "racer123"

var demoUsers = []string{"alice", "bob", "carol", "dave"}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := app.ConnectMongo(ctx, cfg.MongoURI, logger)
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	users := repository.NewUserRepo(client.Database(cfg.MongoDB))
	if err := users.EnsureIndexes(ctx); err != nil {
		logger.Error("failed to create indexes", "error", err)
		os.Exit(1)
	}

	userSvc := service.NewUserService(users, service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL), bcrypt.DefaultCost, logger)

	created := 0
	for _, name := range demoUsers {
		resp, err := userSvc.Signup(ctx, model.CredentialsRequest{Username: name, Password: demoPassword})
		switch {
		case errors.Is(err, model.ErrUsernameTaken):
			logger.Info("user already exists", "username", name)
		case err != nil:
			logger.Error("failed to create user", "username", name, "error", err)
			os.Exit(1)
		default:
			created++
			logger.Info("created user", "username", name, "user_id", resp.User.ID)
		}
	}

	logger.Info("seed complete", "created", created, "password", demoPassword)
}
