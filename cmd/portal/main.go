// Package main provides the entry point for the careview portal runtime.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careview/portal/internal/server"
	"github.com/careview/portal/pkg/portal"
)

// Version is set at build time.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath  string
	address     string
	showVersion bool
}

func parseFlags() serverOptions {
	opts := serverOptions{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.address, "address", "", "Listen address (overrides config)")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func loadConfig(opts serverOptions) (*portal.Config, error) {
	if opts.configPath == "" {
		return portal.DefaultConfig(), nil
	}
	return portal.LoadConfig(opts.configPath)
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("careview-portal version %s\n", Version)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.address != "" {
		cfg.Server.Address = opts.address
	}

	p, err := portal.New(cfg, portal.Options{})
	if err != nil {
		return fmt.Errorf("creating portal: %w", err)
	}
	defer func() { _ = p.Close() }()

	ctx := setupSignalHandler()

	// Resolve the remembered session before serving; routing decisions
	// made earlier would all be loading views.
	p.Restore(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.New(p).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("portal listening", "address", cfg.Server.Address)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("portal shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
