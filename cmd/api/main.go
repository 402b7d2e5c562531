package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kinboost-api/internal/application/account"
	"github.com/kinboost-api/internal/application/identity"
	"github.com/kinboost-api/internal/application/otp"
	"github.com/kinboost-api/internal/application/shop"
	"github.com/kinboost-api/internal/config"
	"github.com/kinboost-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/kinboost-api/internal/infrastructure/jwt"
	"github.com/kinboost-api/internal/infrastructure/metrics"
	"github.com/kinboost-api/internal/infrastructure/postgres"
	"github.com/kinboost-api/internal/infrastructure/smtp"
	"github.com/kinboost-api/internal/infrastructure/sns"
	transporthttp "github.com/kinboost-api/internal/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Identity tables (created if missing).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgres.Migrate(migrateCtx, db); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}
	cancelMigrate()

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	// Missing SMTP host leaves /send-otp answering with a config error.
	mailer := smtp.NewMailer(cfg)

	events, err := sns.NewPublisher(cfg)
	if err != nil {
		log.Printf("WARN: SNS publisher not available: %v", err)
		events = sns.Nop{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	identitySvc := identity.NewService(identity.ServiceDeps{
		Accounts:        dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts),
		Sessions:        dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		Tokens:          jwtProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})

	deps := &transporthttp.Deps{
		OTP: otp.NewService(otp.ServiceDeps{
			Store:         postgres.NewOTPRepo(db),
			Mailer:        mailer,
			Metrics:       m,
			TTL:           cfg.OTPTTL,
			SweepInterval: cfg.OTPSweepInterval,
		}),
		Accounts: account.NewService(account.ServiceDeps{
			Identity: identitySvc,
			Profiles: postgres.NewProfileRepo(db),
			Events:   events,
			Metrics:  m,
		}),
		Identity: identitySvc,
		Shops:    shop.NewService(postgres.NewShopRepo(db)),
		Metrics:  m,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
