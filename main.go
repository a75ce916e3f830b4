package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreybb/dailybrief/api"
	"github.com/coreybb/dailybrief/classifier"
	"github.com/coreybb/dailybrief/config"
	"github.com/coreybb/dailybrief/datastore"
	"github.com/coreybb/dailybrief/delivery"
	"github.com/coreybb/dailybrief/ingestion"
	"github.com/coreybb/dailybrief/processing"
	rh "github.com/coreybb/dailybrief/route-handlers"
	"github.com/coreybb/dailybrief/scheduler"
	"github.com/coreybb/dailybrief/webhooks"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const (
	dbPingTimeout     = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
	dbMaxOpenConns    = 25
	dbMaxIdleConns    = 25
	dbConnMaxLifetime = 5 * time.Minute
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("Configuration load failed: %v", err)
	}

	if cfg.SendGridAPIKey == "" {
		log.Println("WARNING: sendgrid_api_key not set. Email delivery will fail at runtime.")
	}

	db, err := setupDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	defer db.Close()

	subscriptionRepo := datastore.NewSubscriptionRepository(db)
	attemptRepo := datastore.NewDeliveryAttemptRepository(db)

	// Optional LLM fallback for ambiguous commands.
	var intentClassifier processing.IntentClassifier
	if cfg.OpenAIAPIKey != "" {
		intentClassifier = classifier.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Println("WARNING: openai_api_key not set. Ambiguous commands will not be classified.")
	}

	commandProcessor := processing.NewCommandProcessor(subscriptionRepo, intentClassifier)

	// Initialize the digest pipeline
	fetcher := ingestion.NewFetcher(cfg.FetchTimeout())
	emailProvider := delivery.NewEmailDeliveryProvider(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName)
	deliveryService := delivery.NewDeliveryService(attemptRepo, emailProvider)
	digestProcessor := processing.NewDigestProcessor(fetcher, deliveryService)

	processHandler := rh.NewProcessHandler(commandProcessor)
	digestHandler := rh.NewDigestHandler(subscriptionRepo, digestProcessor, attemptRepo)
	sourceHandler := rh.NewSourceHandler()

	inboundEmailHandler := webhooks.NewInboundEmailHandler(commandProcessor)

	apiRouter := api.SetupRoutes(processHandler, digestHandler, sourceHandler)

	// Initialize the scheduler
	digestScheduler := scheduler.New(subscriptionRepo, digestProcessor)
	if cfg.RunCron {
		if err := digestScheduler.Start(); err != nil {
			log.Fatalf("Scheduler start failed: %v", err)
		}
		defer digestScheduler.Stop()
	}

	mainRouter := chi.NewRouter()
	mainRouter.Mount("/", apiRouter)

	mainRouter.Post("/webhooks/inbound-email", inboundEmailHandler.HandleInbound)
	mainRouter.Post("/scheduler/tick", digestScheduler.HandleTick)

	startServer(cfg.Port, mainRouter)
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close() // Close unusable connection pool
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := datastore.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Println("Database connection successful")
	return db, nil
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal // Block until signal received
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
