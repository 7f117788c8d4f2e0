package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/skrapar556-ux/royalebank/internal/api"
	"github.com/skrapar556-ux/royalebank/internal/app"
	"github.com/skrapar556-ux/royalebank/internal/auth"
	"github.com/skrapar556-ux/royalebank/internal/config"
	"github.com/skrapar556-ux/royalebank/internal/domain"
	"github.com/skrapar556-ux/royalebank/internal/ledger"
	"github.com/skrapar556-ux/royalebank/internal/store"
	"github.com/skrapar556-ux/royalebank/pkg/mailer"
	"github.com/skrapar556-ux/royalebank/pkg/rabbitmq"
)

func maskAMQPURLForLog(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil {
		return "<unparseable>"
	}
	if u.User != nil {
		u.User = url.UserPassword("****", "****")
	}
	return u.String()
}

func main() {
	// Load .env file for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// If a platform-provided PORT is set (e.g., Railway/Render), prefer it
	if port := os.Getenv("PORT"); port != "" {
		cfg.ServerPort = port
	}

	// Storage: PostgreSQL when configured, otherwise the in-memory store
	// the demo runs on.
	var repo store.Repository
	if cfg.DatabaseURL != "" {
		dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Unable to parse database URL: %v\n", err)
		}
		dbConfig.MaxConns = 10
		dbConfig.MinConns = 2
		dbConfig.MaxConnLifetime = 30 * time.Minute
		dbConfig.MaxConnIdleTime = 5 * time.Minute
		dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

		dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v\n", err)
		}
		defer dbpool.Close()
		log.Println("Database connection established")

		pgRepo := store.NewPostgresRepository(dbpool)
		if err := pgRepo.EnsureSchema(context.Background()); err != nil {
			log.Printf("Warning: failed ensuring tables (may already exist): %v", err)
		}
		repo = pgRepo
	} else {
		log.Println("DATABASE_URL not set, using in-memory store")
		memRepo := store.NewMemoryRepository()
		if err := memRepo.SeedDefaultAdmin(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail); err != nil {
			log.Fatalf("cannot seed admin account: %v", err)
		}
		repo = memRepo
	}
	if _, ok := repo.(*store.PostgresRepository); ok {
		seedPostgresAdmin(repo, cfg)
	}

	// Event producer with bounded dial timeout; fall back to logging when
	// RabbitMQ is unavailable.
	var producer rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		log.Printf("RABBITMQ_URL (masked)=%s", maskAMQPURLForLog(cfg.RabbitMQURL))
		if p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
			log.Printf("WARNING: Failed to connect to RabbitMQ at startup: %v. Continuing without MQ.", err)
			producer = &rabbitmq.LogProducer{}
		} else {
			producer = p
			defer producer.Close()
			log.Println("RabbitMQ producer connected")
		}
	} else {
		producer = &rabbitmq.LogProducer{}
	}

	// Rate limiter is optional; without Redis the auth surfaces run
	// unthrottled.
	var limiter *app.RedisRateLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: invalid REDIS_URL: %v. Continuing without rate limiting.", err)
		} else {
			limiter = app.NewRedisRateLimiter(redis.NewClient(opts), "royalebank:rate_limit")
			log.Println("Redis rate limiter enabled")
		}
	}

	var otpMailer mailer.Mailer
	if cfg.SMTPConfigured() {
		otpMailer = &mailer.SMTPMailer{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}
		log.Println("SMTP mailer configured")
	} else {
		otpMailer = mailer.LogMailer{}
		log.Println("SMTP not configured, OTP codes will be logged")
	}

	tokens := auth.NewTokenAuthority(cfg.JWTSecret)
	bank := ledger.New(repo, producer)
	svc := app.NewService(repo, bank, tokens, otpMailer, producer, limiter)
	handlers := api.NewHandlers(svc, cfg.SecureCookies)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.Routes(handlers, tokens, cfg.Origins()),
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// seedPostgresAdmin installs the bootstrap administrator on first run.
// An existing admin user simply wins.
func seedPostgresAdmin(repo store.Repository, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Printf("Warning: cannot hash admin password: %v", err)
		return
	}
	_, err = repo.CreateUser(ctx, &domain.User{
		Username:      cfg.AdminUsername,
		Email:         cfg.AdminEmail,
		PasswordHash:  hash,
		AccountNumber: "RB00000001",
		Balance:       decimal.NewFromInt(10000),
		IsAdmin:       true,
	})
	if err != nil && err != domain.ErrDuplicateUser {
		log.Printf("Warning: cannot seed admin account: %v", err)
	}
}
