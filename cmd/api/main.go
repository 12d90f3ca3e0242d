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
	"github.com/waitlist-api/internal/config"
	"github.com/waitlist-api/internal/domain"
	"github.com/waitlist-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/waitlist-api/internal/infrastructure/jwt"
	s3infra "github.com/waitlist-api/internal/infrastructure/s3"
	"github.com/waitlist-api/internal/infrastructure/smtp"
	"github.com/waitlist-api/internal/infrastructure/sns"
	transporthttp "github.com/waitlist-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("dynamo: %v", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	entryRepo := dynamo.NewEntryRepo(dynamoClient, cfg.DynamoTables.Entries)
	adminRepo := dynamo.NewAdminRepo(dynamoClient, cfg.DynamoTables.Admins)

	if err := provisionBootstrapAdmin(ctx, adminRepo, cfg); err != nil {
		log.Fatalf("admin provisioning: %v", err)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// SMTP mailer. A failed probe is logged, not fatal: signups must keep
	// working while the mail transport is down.
	mailer := smtp.NewMailer(cfg)
	if err := mailer.TestConnection(); err != nil {
		log.Printf("WARN: mail transport unavailable: %v", err)
	} else {
		log.Println("Mail transport connected")
	}

	// SNS signup alerts (optional, graceful fallback).
	var alerts sns.AlertPublisher
	if p, err := sns.NewPublisher(ctx, cfg); err == nil {
		alerts = p
	} else {
		log.Printf("WARN: signup alerts not available: %v", err)
	}

	// S3 CSV archive (optional).
	var archive *s3infra.Store
	if cfg.S3BucketName != "" {
		s3Client, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		archive = s3infra.NewStore(s3Client, cfg.S3BucketName)
	}

	deps := &transporthttp.Deps{
		EntryRepo:   entryRepo,
		AdminRepo:   adminRepo,
		Mailer:      mailer,
		Alerts:      alerts,
		Archive:     archive,
		JWTProvider: jwtProvider,
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

// provisionBootstrapAdmin creates the first admin account from environment
// credentials when the admin table is empty. Missing credentials at that
// point are a fatal misconfiguration.
func provisionBootstrapAdmin(ctx context.Context, repo *dynamo.AdminRepo, cfg *config.Config) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count admin accounts: %w", err)
	}
	if count > 0 {
		return nil
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set to provision the first admin")
	}

	now := time.Now().UTC()
	acct := &domain.AdminAccount{
		Email:     cfg.AdminEmail,
		Role:      domain.RoleSuperadmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acct.SetPassword(cfg.AdminPassword); err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}
	if err := repo.Put(ctx, acct); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	log.Printf("Bootstrap admin created (%s)", cfg.AdminEmail)
	return nil
}
