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

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/NavarchProject/authgate/pkg/config"
	"github.com/NavarchProject/authgate/pkg/gateway"
)

func serveCmd() *cobra.Command {
	var addr, upstream string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway in front of an upstream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			if upstream != "" {
				cfg.Server.Upstream = upstream
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.address)")
	cmd.Flags().StringVar(&upstream, "upstream", "", "Upstream URL (overrides server.upstream)")

	return cmd
}

func serve(cfg *config.Config) error {
	if cfg.Server.Upstream == "" {
		return errors.New("server.upstream is required")
	}

	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stdout, level)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxy, err := gateway.NewReverseProxy(cfg.Server.Upstream, logger)
	if err != nil {
		return err
	}
	gw, err := gateway.New(ctx, cfg, proxy, gateway.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("building gateway: %w", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: h2c.NewHandler(gw, &http2.Server{}),
	}

	logger.Info("authgate ready",
		slog.String("addr", cfg.Server.Address),
		slog.String("upstream", cfg.Server.Upstream),
	)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case runErr = <-serverErrChan:
		logger.Error("server error triggered shutdown", slog.String("error", runErr.Error()))
	}

	gw.SetReady(false)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
	}

	logger.Info("authgate stopped")
	return runErr
}
