package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"labelpress/internal/config"
	"labelpress/internal/database"
	"labelpress/internal/handlers"
	"labelpress/internal/middleware"
	"labelpress/internal/render"
	"labelpress/internal/router"
	"labelpress/internal/settings"
	"labelpress/internal/sheet"
	"labelpress/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// loadConfig reads the environment and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel == "" {
		setupLogger(cfg.LogLevel)
	}
	return cfg, nil
}

// ensureSettings writes the default style configuration if there is none.
func ensureSettings(cfg *config.Config) error {
	created, err := settings.EnsureFile(cfg.SettingsPath())
	if err != nil {
		return err
	}
	if created {
		slog.Info("default settings written", "path", cfg.SettingsPath())
	}
	return nil
}

// openLabelStore opens the configured backend. The returned close function
// is never nil.
func openLabelStore(cfg *config.Config) (handlers.LabelStore, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() { db.Close() }
		if err := database.Migrate(db); err != nil {
			closeDB()
			return nil, nil, err
		}
		if err := database.Seed(db); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("seed database: %w", err)
		}
		slog.Info("label store ready", "backend", cfg.Backend, "host", cfg.DBHost, "db", cfg.DBName)
		return store.NewPostgresStore(db), closeDB, nil

	default:
		labels := store.NewCSVStore(cfg.LabelsPath())
		created, err := labels.EnsureFile()
		if err != nil {
			return nil, nil, err
		}
		if created {
			slog.Info("sample labels written", "path", labels.Path())
		}
		slog.Info("label store ready", "backend", cfg.Backend, "path", labels.Path())
		return labels, func() {}, nil
	}
}

// newPrinter returns the PDF printer, or nil when no browser is installed.
func newPrinter(cfg *config.Config) handlers.Printer {
	path := cfg.ChromePath
	if path == "" {
		path = sheet.FindChrome()
	}
	if path == "" {
		slog.Warn("no Chrome or Chromium found, PDF output disabled (set CHROME_PATH)")
		return nil
	}
	slog.Info("pdf printer ready", "chrome", path, "timeout", cfg.PDFTimeout)
	return sheet.NewChromePrinter(sheet.PrinterOptions{
		ExecPath:  path,
		NoSandbox: cfg.ChromeNoSandbox,
		Timeout:   cfg.PDFTimeout,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"data_dir", cfg.DataDir,
		"backend", cfg.Backend,
	)

	if err := ensureSettings(cfg); err != nil {
		return err
	}
	holder, err := settings.NewHolder(cfg.SettingsPath())
	if err != nil {
		return err
	}

	labels, closeStore, err := openLabelStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("initialize template renderer: %w", err)
	}

	limiter := middleware.NewRateLimiter(cfg.PDFRateLimit, time.Minute)
	limiter.TrustProxy = cfg.TrustProxy
	defer limiter.Stop()

	r := router.New(
		handlers.NewPages(renderer, labels, holder),
		handlers.NewAPI(labels, holder),
		handlers.NewPrint(renderer, labels, holder, newPrinter(cfg)),
		router.Options{
			CORSOrigins:   cfg.CORSOrigins,
			SecureCookies: !cfg.IsDev(),
			PDFLimiter:    limiter,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pick up hand edits of the settings file.
	go func() {
		if err := holder.Watch(ctx); err != nil {
			slog.Warn("settings watcher stopped", "error", err)
		}
	}()

	// WriteTimeout must cover a PDF job, which waits on the browser.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.PDFTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
