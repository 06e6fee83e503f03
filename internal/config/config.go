package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIBaseURL is used when NUTRIPLAN_API_URL is not set. It matches
// the backend's local development address.
const DefaultAPIBaseURL = "http://127.0.0.1:8000/api"

// DefaultCalorieTarget is the static calorie target applied to every plan
// request. Profiles do not carry their own target.
const DefaultCalorieTarget = 2200

// Config holds the configuration for the application.
type Config struct {
	APIBaseURL    string
	APITimeout    time.Duration
	APIServiceKey string // optional "id:secret" key for signed requests
	DatabasePath  string
	CalorieTarget int

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	apiBaseURL := os.Getenv("NUTRIPLAN_API_URL")
	if apiBaseURL == "" {
		apiBaseURL = DefaultAPIBaseURL
	}
	apiBaseURL = strings.TrimRight(apiBaseURL, "/")

	apiTimeout := 30 * time.Second
	if v := os.Getenv("NUTRIPLAN_API_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid NUTRIPLAN_API_TIMEOUT_SECONDS: %q", v)
		}
		apiTimeout = time.Duration(secs) * time.Second
	}

	dbPath := os.Getenv("NUTRIPLAN_DB_PATH")
	if dbPath == "" {
		dbPath = "data/nutriplan.db"
	}

	calorieTarget := DefaultCalorieTarget
	if v := os.Getenv("NUTRIPLAN_CALORIE_TARGET"); v != "" {
		target, err := strconv.Atoi(v)
		if err != nil || target <= 0 {
			return nil, fmt.Errorf("invalid NUTRIPLAN_CALORIE_TARGET: %q", v)
		}
		calorieTarget = target
	}

	// Telegram Config (Optional for CLI, required for Bot)
	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramWebhookURL := os.Getenv("TELEGRAM_WEBHOOK_URL")

	var allowedIDs []int64
	if v := os.Getenv("TELEGRAM_ALLOW_USER_IDS"); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_IDS entry %q: %w", part, err)
			}
			allowedIDs = append(allowedIDs, id)
		}
	}

	var adminID int64
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		fmt.Sscanf(v, "%d", &adminID)
	}

	return &Config{
		APIBaseURL:             apiBaseURL,
		APITimeout:             apiTimeout,
		APIServiceKey:          os.Getenv("NUTRIPLAN_SERVICE_KEY"),
		DatabasePath:           dbPath,
		CalorieTarget:          calorieTarget,
		TelegramBotToken:       telegramBotToken,
		TelegramWebhookURL:     telegramWebhookURL,
		TelegramAllowedUserIDs: allowedIDs,
		AdminTelegramID:        adminID,
	}, nil
}
