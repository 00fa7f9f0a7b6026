package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/squadup/status-api/internal/auth"
	"github.com/squadup/status-api/internal/config"
	"github.com/squadup/status-api/internal/db"
	"github.com/squadup/status-api/internal/groups"
	"github.com/squadup/status-api/internal/http/api"
	"github.com/squadup/status-api/internal/security"
	"github.com/squadup/status-api/internal/statuses"
	"github.com/squadup/status-api/internal/store"

	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds how long in-flight requests may drain on exit.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	conn, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the status API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	conn, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	cipher, errCipher := security.NewTokenCipher(cfg.TokenKey)
	if errCipher != nil {
		return errCipher
	}

	userStore := store.NewGormUserStore(conn)
	groupStore := store.NewGormGroupStore(conn)

	authService := auth.NewService(userStore, cipher)
	groupService := groups.NewService(groupStore, userStore)
	statusService := statuses.NewService(userStore)

	if cfg.DefaultGroup.Name != "" && cfg.DefaultGroup.JoinKey != "" {
		if _, errSeed := groupService.EnsureDefaultGroupExists(ctx, cfg.DefaultGroup.Name, cfg.DefaultGroup.JoinKey); errSeed != nil {
			return fmt.Errorf("seed default group: %w", errSeed)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine, conn, authService, groupService, statusService)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	log.Infof("status api listening on %s", server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		err := <-serveErr
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
