package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"todoapp/internal/auth"
	"todoapp/internal/config"
	"todoapp/internal/db"
	"todoapp/internal/logging"
	"todoapp/internal/model"
	"todoapp/internal/repository"
)

// Provisions an admin account. Registration never grants the admin role, so
// this is the only way to create one.
func main() {
	username := flag.String("username", "", "admin username (required)")
	password := flag.String("password", "", "password for a new admin; ignored when promoting an existing user")
	flag.Parse()

	logger := logging.Setup("")

	if *username == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("")
	if err != nil {
		fatal(logger, "load config", err)
	}
	logger = logging.Setup(cfg.AppEnv)

	gormDB, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		fatal(logger, "connect to database", err)
	}
	if err := gormDB.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		fatal(logger, "run migrations", err)
	}

	hasher, err := auth.NewHasher(auth.HasherConfig{Cost: cfg.Auth.BcryptCost})
	if err != nil {
		fatal(logger, "password hasher", err)
	}

	created, err := seedAdmin(context.Background(), repository.NewUserRepository(gormDB), hasher, *username, *password)
	if err != nil {
		fatal(logger, "seed admin", err)
	}
	if created {
		logger.Info("admin user created", "username", *username)
	} else {
		logger.Info("existing user promoted to admin", "username", *username)
	}
}

// seedAdmin promotes username to admin, creating it with password when it
// does not exist yet. It reports whether the user was created.
func seedAdmin(ctx context.Context, repo repository.UserRepository, hasher *auth.Hasher, username, password string) (bool, error) {
	existing, err := repo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("error checking user %s: %w", username, err)
	}

	if existing != nil {
		if err := repo.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
			return false, fmt.Errorf("error promoting user %s: %w", username, err)
		}
		return false, nil
	}

	if len(password) < 5 || len(password) > 72 {
		return false, errors.New("a new admin needs a password of 5 to 72 characters")
	}
	hashed, err := hasher.Hash(password)
	if err != nil {
		return false, err
	}
	user := &model.User{
		Username:       username,
		HashedPassword: hashed,
		Role:           model.RoleAdmin,
	}
	if err := repo.Create(ctx, user); err != nil {
		return false, fmt.Errorf("error creating user %s: %w", username, err)
	}
	return true, nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
