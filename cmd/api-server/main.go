package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/carebridge/booking-platform/internal/account"
	"github.com/carebridge/booking-platform/internal/api"
	"github.com/carebridge/booking-platform/internal/assistant"
	"github.com/carebridge/booking-platform/internal/availability"
	"github.com/carebridge/booking-platform/internal/booking"
	"github.com/carebridge/booking-platform/internal/config"
	"github.com/carebridge/booking-platform/internal/db"
	"github.com/carebridge/booking-platform/internal/identity"
	"github.com/carebridge/booking-platform/internal/logger"
	"github.com/carebridge/booking-platform/internal/mailer"
	"github.com/carebridge/booking-platform/internal/payment"
	redisclient "github.com/carebridge/booking-platform/internal/redis"
	"github.com/carebridge/booking-platform/internal/signup"
	"github.com/carebridge/booking-platform/internal/storage"
)

const version = "1.0.0"

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

	zlog.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		zlog.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zlog.Info("connected to Postgres")

	// Connect Redis
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

	// Object storage for signup attachments
	store, err := storage.NewMinioStore(storage.MinioOptions{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		UseSSL:    cfg.MinioUseSSL,
		Bucket:    cfg.MinioBucket,
		PublicURL: cfg.MinioPublicURL,
	})
	if err != nil {
		zlog.Fatal("minio init error", zap.Error(err))
	}
	bucketCtx, cancelBucket := context.WithTimeout(rootCtx, 10*time.Second)
	err = store.EnsureBucket(bucketCtx)
	cancelBucket()
	if err != nil {
		zlog.Fatal("minio bucket error", zap.Error(err))
	}
	zlog.Info("connected to object storage")

	// Notification queue
	amqpConn, err := amqp091.Dial(cfg.AMQPURL)
	if err != nil {
		zlog.Fatal("amqp connection error", zap.Error(err))
	}
	defer func() {
		_ = amqpConn.Close()
	}()
	mail, err := mailer.NewAMQPSender(amqpConn, cfg.MailerQueue)
	if err != nil {
		zlog.Fatal("mailer init error", zap.Error(err))
	}
	zlog.Info("connected to RabbitMQ")

	verifier := identity.NewTokenVerifier(cfg.JWTSecret)
	identityProvider := identity.NewHTTPProvider(cfg.IdentityProviderURL, cfg.IdentityProviderAPIKey)
	gateway := payment.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentGatewayAPIKey)

	availRepo := availability.NewPgRepository(pgPool)
	availSvc := availability.NewService(availRepo, zlog)

	bookingRepo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	bookingSvc := booking.NewService(bookingRepo, availSvc, locker, gateway, cfg.BookingHoldTTL, zlog)

	signupRepo := signup.NewPgRepository(pgPool)
	signupSvc := signup.NewService(signupRepo, identityProvider, store, mail, zlog)

	accountRepo := account.NewPgRepository(pgPool)
	accountSvc := account.NewService(accountRepo, zlog)

	assistants := assistant.NewRegistry(cfg.ChatbotURL, cfg.ReportAnalyzerURL, cfg.DietPlannerURL)

	router := api.NewRouter(api.RouterConfig{
		Availability: availSvc,
		Booking:      bookingSvc,
		Signup:       signupSvc,
		Account:      accountSvc,
		AccountRepo:  accountRepo,
		Assistants:   assistants,
		Verifier:     verifier,
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
		Log:          zlog,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zlog.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	zlog.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
