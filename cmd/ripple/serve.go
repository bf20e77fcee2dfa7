package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/aretw0/ripple/internal/config"
	"github.com/aretw0/ripple/internal/logging"
	httpAdapter "github.com/aretw0/ripple/pkg/adapters/http"
	redisAdapter "github.com/aretw0/ripple/pkg/adapters/redis"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the event ingest gateway",
	Long:  `Starts an HTTP gateway that accepts domain events and publishes them onto the Redis Streams transport for reactors to consume.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		cfg := config.Default()
		if configPath != "" {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				fmt.Printf("Error loading config: %v\n", err)
				os.Exit(1)
			}
		}

		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Listen = ":" + port
		}

		logger := logging.New(parseLevel(cfg.LogLevel))

		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		transport := redisAdapter.NewTransport(client,
			redisAdapter.WithStreamPrefix(cfg.Redis.StreamPrefix),
			redisAdapter.WithTransportLogger(logger),
		)

		handler := httpAdapter.NewHandler(transport, logger)

		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: handler,
		}

		// Metrics endpoint on its own listener.
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("Starting metrics server", "addr", cfg.MetricsListen)
			if err := http.ListenAndServe(cfg.MetricsListen, mux); err != nil {
				logger.Error("Metrics server failed", "err", err)
			}
		}()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting ingest gateway", "addr", srv.Addr, "redis", cfg.Redis.Address)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("Starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			if err := client.Close(); err != nil {
				logger.Error("Error closing redis client", "err", err)
			}
		}
	},
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func init() {
	serveCmd.Flags().String("port", "", "Override the listen port (e.g. 8080)")
	rootCmd.AddCommand(serveCmd)
}
