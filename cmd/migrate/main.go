package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/mcoot/triviastake/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Warn("failed to load .env", slog.String("error", err.Error()))
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Error("DATABASE_URL is not set")
		os.Exit(1)
	}

	m, err := migrate.New("file://db/migrations", dsn)
	if err != nil {
		logger.Error("migration setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	default:
		logger.Error("unknown direction, want up or down", slog.String("direction", direction))
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("database migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("database migrations applied", slog.String("direction", direction))
}
