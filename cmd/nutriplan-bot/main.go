package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nutriplan/internal/config"
	"nutriplan/internal/dashboard"
	"nutriplan/internal/database"
	"nutriplan/internal/identity"
	"nutriplan/internal/metrics"
	"nutriplan/internal/nutriplan"
	"nutriplan/internal/telegram"
)

func main() {
	// Local development convenience; a missing .env is fine.
	godotenv.Load()

	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.TelegramWebhookURL == "" {
		log.Fatal("TELEGRAM_WEBHOOK_URL is required")
	}
	if len(cfg.TelegramAllowedUserIDs) == 0 {
		log.Fatal("TELEGRAM_ALLOW_USER_IDS is required")
	}

	// 2. Initialize the SQLite database
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// 3. Initialize repositories
	identityStore, err := identity.NewStore(db.SQL)
	if err != nil {
		log.Fatalf("Failed to initialize identity store: %v", err)
	}
	sessionRepo, err := telegram.NewSessionRepository(db.SQL)
	if err != nil {
		log.Fatalf("Failed to initialize session repository: %v", err)
	}
	metricsStore, err := metrics.NewStore(db.SQL)
	if err != nil {
		log.Fatalf("Failed to initialize metrics store: %v", err)
	}

	// 4. Initialize the backend gateway and dashboard
	gateway := nutriplan.NewClient(cfg, metricsStore)
	dash := dashboard.New(gateway, identityStore, cfg.CalorieTarget)

	// 5. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, gateway, dash, sessionRepo, metricsStore)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// Expired onboarding sessions and old metrics pile up otherwise.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := sessionRepo.CleanupExpired(context.Background()); err != nil {
				log.Printf("Session cleanup failed: %v", err)
			}
			if _, err := metricsStore.Cleanup(30); err != nil {
				log.Printf("Metrics cleanup failed: %v", err)
			}
		}
	}()

	// 6. Start Server with Graceful Shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("NutriPlan Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
