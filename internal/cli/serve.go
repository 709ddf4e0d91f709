package cli

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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"appforge/internal/app"
	"appforge/internal/config"
)

var (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultShutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway HTTP server",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	loadEnvFiles()

	cfg, err := config.Load(globalConfigPath)
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}
	srv, err := app.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("init server failed: %w", err)
	}
	defer srv.Close()

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	// WriteTimeout stays zero: chat responses stream for as long as a turn
	// runs.
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if listenErr := httpServer.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			errCh <- listenErr
			return
		}
		errCh <- nil
	}()

	log.Printf("gateway listening on %s", addr)

	signalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case listenErr := <-errCh:
		if listenErr != nil {
			return fmt.Errorf("listen failed: %w", listenErr)
		}
		return nil
	case <-signalCtx.Done():
		log.Printf("shutdown signal received, draining in-flight requests (timeout=%s)", defaultShutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("shutdown timeout exceeded, forcing close")
			if closeErr := httpServer.Close(); closeErr != nil {
				return fmt.Errorf("force close failed after shutdown timeout: %w", closeErr)
			}
		} else {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}

	if listenErr := <-errCh; listenErr != nil {
		return fmt.Errorf("listen failed during shutdown: %w", listenErr)
	}
	log.Printf("gateway shutdown complete")
	return nil
}

// loadEnvFiles merges .env then .env.local into the process environment
// without overriding values already set.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, statErr := os.Stat(name); statErr != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			log.Printf("load env file failed: path=%s err=%v", name, err)
			continue
		}
		log.Printf("loaded env values from %s", name)
	}
}
