// Package serve provides the serve command that runs the RiceNet-Go web
// server.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/graintec/ricenet-go/internal/api"
	"github.com/graintec/ricenet-go/internal/backup"
	"github.com/graintec/ricenet-go/internal/backup/sources"
	"github.com/graintec/ricenet-go/internal/backup/targets"
	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/datastore"
	"github.com/graintec/ricenet-go/internal/observability"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// shutdown signal.
const shutdownTimeout = 10 * time.Second

// Command creates and returns the serve command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the RiceNet-Go web server",
		Long:  `Serve runs the HTTP API for stored scans, CSV export and Prometheus metrics, and starts the backup scheduler when backups are enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags defines flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVarP(&settings.WebServer.Port, "port", "p", viper.GetString("webserver.port"), "Port for the web server")
}

func runServer(settings *conf.Settings) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output is enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer closeDataStore(store)

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	e := echo.New()
	e.HideBanner = true

	controller, err := api.New(e, store, settings, log.Default(), metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}
	defer controller.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startBackupScheduler(ctx, settings)

	errChan := make(chan error, 1)
	go func() {
		if err := e.Start(":" + settings.WebServer.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	log.Printf("🚀 RiceNet-Go web server listening on port %s", settings.WebServer.Port)

	select {
	case err := <-errChan:
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Received shutdown signal, stopping web server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown failed: %w", err)
	}

	return nil
}

// startBackupScheduler wires the backup manager and starts its scheduler
// when backups are enabled. A broken backup setup is logged rather than
// returned so it cannot take the API down with it.
func startBackupScheduler(ctx context.Context, settings *conf.Settings) {
	if !settings.Backup.Enabled {
		return
	}

	manager := backup.NewManager(&settings.Backup, log.Default())
	if err := manager.RegisterSource(sources.NewSQLiteSource(settings)); err != nil {
		log.Printf("⚠️ Backup scheduling disabled: %v", err)
		return
	}
	if err := registerTargets(manager, settings); err != nil {
		log.Printf("⚠️ Backup scheduling disabled: %v", err)
		return
	}
	if err := manager.Start(); err != nil {
		log.Printf("⚠️ Backup scheduling disabled: %v", err)
		return
	}

	scheduler, err := backup.NewScheduler(manager, settings.Backup.Interval, log.Default())
	if err != nil {
		log.Printf("⚠️ Backup scheduling disabled: %v", err)
		return
	}

	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("❌ Backup scheduler stopped: %v", err)
		}
	}()
}

// registerTargets creates and registers every enabled backup target from the
// configuration.
func registerTargets(manager *backup.Manager, settings *conf.Settings) error {
	logger := backup.DefaultLogger()
	for i := range settings.Backup.Targets {
		tc := &settings.Backup.Targets[i]
		if !tc.Enabled {
			continue
		}
		target, err := targets.FromConfig(tc.Type, tc.Settings, logger)
		if err != nil {
			return fmt.Errorf("failed to create %s backup target: %w", tc.Type, err)
		}
		if err := manager.RegisterTarget(target); err != nil {
			return fmt.Errorf("failed to register %s backup target: %w", tc.Type, err)
		}
	}
	return nil
}

// closeDataStore attempts to close the database connection and logs the result.
func closeDataStore(store datastore.Interface) {
	if err := store.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	} else {
		log.Println("Successfully closed database")
	}
}
