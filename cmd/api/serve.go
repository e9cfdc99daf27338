package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"tidsregistrering/internal/config"
	"tidsregistrering/internal/db"
	"tidsregistrering/internal/directory"
	"tidsregistrering/internal/httpserver"
	"tidsregistrering/internal/logger"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate, seed and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lg := logger.New(cfg.LogLevel)
			defer lg.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gdb, err := openStore(ctx, cfg, lg)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			var dir directory.Directory
			if cfg.LDAP.Enabled() {
				dir = directory.NewLDAP(cfg.LDAP)
				lg.Infow("directory lookups enabled", "url", cfg.LDAP.URL)
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
				Handler:           httpserver.NewRouter(cfg, gdb, dir, lg),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				lg.Infow("listening", "port", cfg.HTTPPort)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			lg.Infow("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// openStore connects, applies migrations and seeds the bootstrap rows.
func openStore(ctx context.Context, cfg config.Config, lg *zap.SugaredLogger) (*gorm.DB, error) {
	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL, lg)
	if err != nil {
		lg.Errorw("db connect failed", "driver", cfg.DatabaseDriver, "error", err)
		return nil, err
	}
	if err := db.Migrate(ctx, gdb, lg); err != nil {
		_ = db.Close(gdb)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := db.Seed(ctx, gdb, cfg.FallbackAdmin, lg); err != nil {
		_ = db.Close(gdb)
		return nil, fmt.Errorf("seed: %w", err)
	}
	return gdb, nil
}
