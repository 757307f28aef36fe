package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/catalog"
	"github.com/aanand-mishra/hostel-api/internal/config"
	"github.com/aanand-mishra/hostel-api/internal/http/router"
	"github.com/aanand-mishra/hostel-api/internal/notify"
	"github.com/aanand-mishra/hostel-api/internal/registration"
	"github.com/aanand-mishra/hostel-api/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration YAML file")
	return cmd
}

// serve runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// in-flight requests get five seconds to finish.
func serve(cfg *config.Config) error {
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting hostel-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	rooms, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	log.Info("catalog loaded", slog.Int("rooms", len(rooms.Rooms())))

	store, err := sqlite.New(cfg)
	if err != nil {
		return fmt.Errorf("initialise storage: %w", err)
	}
	defer store.Close()
	log.Info("storage initialised", slog.String("path", cfg.StoragePath))

	var pub notify.Publisher = notify.Nop{}
	if cfg.NATS.URL != "" {
		nc, err := notify.NewNATS(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		pub = nc
		log.Info("publishing registrations", slog.String("subject", cfg.NATS.Subject))
	}
	defer pub.Close()

	validator := registration.NewValidator(rooms)
	previews := registration.NewMemoryPreviews(router.PreviewPath)
	submitter := registration.Delayed(registration.Persist(store, pub, log), cfg.SubmitDelay)

	sessions := registration.NewSessions(func() *registration.Form {
		return registration.NewForm(validator, rooms, previews, submitter)
	})
	defer sessions.CloseAll()

	expireCtx, stopExpiry := context.WithCancel(context.Background())
	defer stopExpiry()
	go expireSessions(expireCtx, sessions, cfg.SessionTTL, cfg.SessionTTL/4, log)

	handler := router.New(router.Deps{
		Catalog:   rooms,
		Storage:   store,
		Sessions:  sessions,
		Validator: validator,
		Previews:  previews,
	})

	// Submit holds its response for SubmitDelay, so writes get that long extra.
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10*time.Second + cfg.SubmitDelay,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		log.Info("shutdown signal received, stopping server...")
	case err := <-errCh:
		return fmt.Errorf("server encountered an error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}
