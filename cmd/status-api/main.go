package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/squadup/status-api/internal/app"
	"github.com/squadup/status-api/internal/config"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	if errRun := run(os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads config, and starts the server.
func run(args []string) error {
	fs := flag.NewFlagSet("status-api", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	migrateOnly := fs.Bool("migrate", false, "run database migrations and exit")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	resolved := strings.TrimSpace(*cfgPath)
	if resolved == "" {
		resolved = os.Getenv(config.EnvConfigPath)
	}
	configPath := config.ResolveConfigPath(resolved)

	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateOnly {
		return app.Migrate(ctx, cfg)
	}
	return app.RunServer(ctx, cfg)
}
