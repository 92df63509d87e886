package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steeven-js/madinia-cyber/internal/app/migrate"
	"github.com/steeven-js/madinia-cyber/pkg/config"
	"github.com/steeven-js/madinia-cyber/pkg/logger"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	cfg := config.LoadAPIConfig()
	log := logger.New("migrate", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migration runner", "error", err)
		os.Exit(1)
	}
	defer runner.Close()

	var runErr error
	switch *command {
	case "up":
		runErr = runner.Ensure(ctx)
	case "status":
		runErr = runner.Status(ctx)
	case "down":
		runErr = runner.Down(ctx, *target)
	default:
		log.Error("unsupported command", "command", *command)
		os.Exit(2)
	}
	if runErr != nil {
		log.Error("migration command failed", "command", *command, "error", runErr)
		os.Exit(1)
	}
	log.Info("migration command completed", "command", *command)
}
