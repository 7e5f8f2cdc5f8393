package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/carebridge/booking-platform/internal/availability"
	"github.com/carebridge/booking-platform/internal/booking"
	"github.com/carebridge/booking-platform/internal/config"
	"github.com/carebridge/booking-platform/internal/db"
	"github.com/carebridge/booking-platform/internal/logger"
	"github.com/carebridge/booking-platform/internal/payment"
	redisclient "github.com/carebridge/booking-platform/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() {
		_ = zlog.Sync()
	}()

	zlog.Info("expiry-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		zlog.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zlog.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		zlog.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			zlog.Warn("error closing redis", zap.Error(err))
		}
	}()
	zlog.Info("connected to Redis")

	availRepo := availability.NewPgRepository(pgPool)
	availSvc := availability.NewService(availRepo, zlog)

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	gateway := payment.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentGatewayAPIKey)
	svc := booking.NewService(repo, availSvc, locker, gateway, cfg.BookingHoldTTL, zlog)

	// Run once at startup
	runOnce(rootCtx, svc, zlog)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			zlog.Info("shutdown signal received, stopping expiry worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, zlog)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, zlog *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.ExpirePendingHolds(runCtx); err != nil {
		zlog.Error("expiry run error", zap.Error(err))
		return
	}
	zlog.Info("expiry run complete", zap.Duration("took", time.Since(start)))
}
