package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dompet/internal/config"
	"dompet/internal/database"
	"dompet/internal/events"
	"dompet/internal/logger"
	"dompet/internal/receipt"
	"dompet/internal/server"
	"dompet/internal/validator"
)

// @title           Dompet API
// @version         1.0
// @description     Dompet records spending from receipts and payment proofs, shares it within a family and reports where the money went.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	validator.Register()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(database.DefaultMigrationsDir); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	publisher, err := events.New(appConfig.AMQPURL, appConfig.AMQPExchange)
	if err != nil {
		return fmt.Errorf("failed to connect to message broker: %w", err)
	}
	defer publisher.Close()

	if appConfig.ReceiptAPIKey == "" {
		log.Info("RECEIPT_API_KEY not set, receipt scanning disabled")
	}
	svc := server.NewServices(dbManager.DB(), server.ServiceOptions{
		Location:  appConfig.Location,
		Publisher: publisher,
		Receipt: receipt.Config{
			APIKey:  appConfig.ReceiptAPIKey,
			BaseURL: appConfig.ReceiptBaseURL,
			Model:   appConfig.ReceiptModel,
		},
		ReceiptMaxImages: appConfig.ReceiptMaxImages,
	})

	router := server.NewRouter(svc, server.Options{
		AdminAPIKey:      appConfig.AdminAPIKey,
		Location:         appConfig.Location,
		ReceiptMaxImages: appConfig.ReceiptMaxImages,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Dompet backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
