package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"skillscope/dashboard/internal/config"
	"skillscope/dashboard/internal/dashboard"
	"skillscope/dashboard/internal/db"
	"skillscope/dashboard/internal/diag"
	"skillscope/dashboard/internal/healthgrpc"
	"skillscope/dashboard/internal/observability"
	"skillscope/dashboard/internal/surface"
)

const shutdownTimeout = 10 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard with status polling, gRPC health and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	f := cmd.Flags()
	f.String(config.KeyAddr, ":8090", "HTTP listen address")
	f.String(config.KeyGRPCAddr, ":9090", "gRPC health listen address (empty disables)")
	f.Duration(config.KeyPollInterval, 0, "status polling interval (default 30s)")
	f.String(config.KeyRedisURL, "", "publish failures to this Redis")
	f.String(config.KeyDatabaseURL, "", "record failures in this PostgreSQL database")
	f.String(config.KeySQLitePath, "", "record failures in this SQLite journal")
	f.Bool(config.KeyDiscardStale, false, "drop results of superseded user selections")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	// ── Metrics ──────────────────────────────────────────────────────────────
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownMetrics(shutdownCtx)
	}()
	inst, err := observability.NewInstruments(otel.Meter(observability.MeterName))
	if err != nil {
		return err
	}

	// ── Diagnostic sinks ─────────────────────────────────────────────────────
	reporters := diag.Multi{diag.LogSink{Logger: logger}, inst}

	if cfg.RedisURL != "" {
		logger.Info("connecting to Redis")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		reporters = append(reporters, diag.NewRedisSink(rdb))
	}

	if cfg.DatabaseURL != "" {
		logger.Info("connecting to PostgreSQL")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		sink := diag.NewPostgresSink(pool)
		if err := sink.EnsureSchema(ctx); err != nil {
			return err
		}
		reporters = append(reporters, sink)
	}

	if cfg.SQLitePath != "" {
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		defer sqlDB.Close()
		sink, err := diag.NewSQLiteSink(ctx, sqlDB)
		if err != nil {
			return err
		}
		reporters = append(reporters, sink)
	}

	// ── Dashboard ────────────────────────────────────────────────────────────
	dash := dashboard.New(a.client(), reporters, dashboard.Options{
		PollInterval: cfg.PollInterval,
		DiscardStale: cfg.DiscardStale,
		Logger:       logger,
	})
	dash.OnStatus(inst.ObserveStatus)

	errCh := make(chan error, 2)

	// ── gRPC health ──────────────────────────────────────────────────────────
	var health *healthgrpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		health = healthgrpc.New()
		dash.OnStatus(health.Update)
		go func() {
			if err := health.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	if err := dash.Start(); err != nil {
		return err
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		dash.Stop()
		if health != nil {
			health.Stop()
		}
		return fmt.Errorf("http listen: %w", err)
	}
	srv := &http.Server{
		Handler:           surface.Server{Dash: dash, Metrics: metricsHandler, Logger: logger}.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("dashboard listening", "addr", lis.Addr().String(), "api", cfg.APIURL)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
		logger.Error("server failed", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	if health != nil {
		health.Stop()
	}
	dash.Stop()
	logger.Info("stopped")
	return runErr
}
