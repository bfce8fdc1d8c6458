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

	"github.com/josh-kwaku/instructor-payouts/internal/config"
	"github.com/josh-kwaku/instructor-payouts/internal/handler"
	"github.com/josh-kwaku/instructor-payouts/internal/logging"
	"github.com/josh-kwaku/instructor-payouts/internal/repository"
	"github.com/josh-kwaku/instructor-payouts/internal/service/analytics"
	"github.com/josh-kwaku/instructor-payouts/internal/service/balance"
	"github.com/josh-kwaku/instructor-payouts/internal/service/payout"
	"github.com/josh-kwaku/instructor-payouts/internal/service/reconcile"
	"github.com/josh-kwaku/instructor-payouts/internal/service/settlement"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Init("instructor-payouts", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  cfg.DBConnectAttempts,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	share, err := cfg.InstructorShare()
	if err != nil {
		return err
	}
	splitter, err := settlement.NewSplitter(share)
	if err != nil {
		return err
	}

	st := repository.NewDB(pool)
	balances := balance.NewCalculator(st)
	payouts := payout.NewService(st, balances, payout.Config{RequireProcessing: cfg.PayoutRequireProcessing})
	payments := settlement.NewService(st, balances, splitter)
	reporter := analytics.NewReporter(repository.NewAnalyticsRepository(pool), st.Courses(), balances)
	reconciler := reconcile.NewReconciler(st, balances)
	idempotency := repository.NewIdempotencyRepository(pool)

	scheduler := reconcile.NewScheduler(logger, cfg.ReconcileTimeout)
	if cfg.ReconcileEnabled {
		if err := scheduler.Add("ledger_reconcile", cfg.ReconcileSchedule, reconcile.JobFunc(func(ctx context.Context) error {
			_, err := reconciler.Run(ctx)
			return err
		})); err != nil {
			return err
		}
	}
	if err := scheduler.Add("idempotency_purge", cfg.IdempotencyPurge, reconcile.JobFunc(func(ctx context.Context) error {
		n, err := idempotency.DeleteExpired(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Debug("expired idempotency keys removed", "count", n)
		return nil
	})); err != nil {
		return err
	}
	scheduler.Start()

	router := newRouter(handlers{
		health:     handler.NewHealthHandler(pool),
		auth:       handler.NewAuthHandler(st.Users(), cfg.JWTSecret, cfg.JWTExpiry),
		payouts:    handler.NewPayoutHandler(payouts),
		balances:   handler.NewBalanceHandler(balances),
		settlement: handler.NewSettlementHandler(payments),
		analytics:  handler.NewAnalyticsHandler(reporter),
		reconcile:  handler.NewReconcileHandler(reconciler),
	}, routerConfig{
		jwtSecret:      cfg.JWTSecret,
		allowedOrigins: cfg.CORSAllowedOrigins,
		idempotency:    idempotency,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started",
			"addr", addr,
			"instructor_share_pct", share.String(),
			"payout_require_processing", cfg.PayoutRequireProcessing,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	scheduler.Stop(shutdownCtx)
	slog.Info("server stopped")
	return nil
}
