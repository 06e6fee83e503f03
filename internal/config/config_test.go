package config

import (
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	clearEnv := func(t *testing.T) {
		t.Helper()
		for _, key := range []string{
			"NUTRIPLAN_API_URL",
			"NUTRIPLAN_API_TIMEOUT_SECONDS",
			"NUTRIPLAN_DB_PATH",
			"NUTRIPLAN_CALORIE_TARGET",
			"NUTRIPLAN_SERVICE_KEY",
			"TELEGRAM_BOT_TOKEN",
			"TELEGRAM_WEBHOOK_URL",
			"TELEGRAM_ALLOW_USER_IDS",
			"ADMIN_TELEGRAM_ID",
		} {
			t.Setenv(key, "")
		}
	}

	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.APIBaseURL != DefaultAPIBaseURL {
			t.Errorf("Expected APIBaseURL %q, got %q", DefaultAPIBaseURL, cfg.APIBaseURL)
		}
		if cfg.APITimeout != 30*time.Second {
			t.Errorf("Expected default timeout 30s, got %v", cfg.APITimeout)
		}
		if cfg.CalorieTarget != DefaultCalorieTarget {
			t.Errorf("Expected calorie target %d, got %d", DefaultCalorieTarget, cfg.CalorieTarget)
		}
		if cfg.DatabasePath != "data/nutriplan.db" {
			t.Errorf("Unexpected database path %q", cfg.DatabasePath)
		}
	})

	t.Run("ExplicitValues", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NUTRIPLAN_API_URL", "https://api.nutriplan.test/api/")
		t.Setenv("NUTRIPLAN_API_TIMEOUT_SECONDS", "5")
		t.Setenv("NUTRIPLAN_CALORIE_TARGET", "1800")
		t.Setenv("TELEGRAM_ALLOW_USER_IDS", "123, 456")
		t.Setenv("ADMIN_TELEGRAM_ID", "123")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.APIBaseURL != "https://api.nutriplan.test/api" {
			t.Errorf("Expected trailing slash trimmed, got %q", cfg.APIBaseURL)
		}
		if cfg.APITimeout != 5*time.Second {
			t.Errorf("Expected timeout 5s, got %v", cfg.APITimeout)
		}
		if cfg.CalorieTarget != 1800 {
			t.Errorf("Expected calorie target 1800, got %d", cfg.CalorieTarget)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[1] != 456 {
			t.Errorf("Unexpected allowed user IDs: %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.AdminTelegramID != 123 {
			t.Errorf("Expected admin ID 123, got %d", cfg.AdminTelegramID)
		}
	})

	t.Run("InvalidTimeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NUTRIPLAN_API_TIMEOUT_SECONDS", "zero")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for invalid timeout, got nil")
		}
	})

	t.Run("InvalidAllowedID", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_ALLOW_USER_IDS", "123,abc")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for invalid allow list, got nil")
		}
	})
}
