package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration, loaded from environment
// variables. None of it encodes business logic; everything here is a
// deployment knob.
type Config struct {
	Port     string
	Env      string
	MongoURI string
	MongoDB  string

	RefreshInterval time.Duration
	ItemDelay       time.Duration
	NavTimeout      time.Duration
	SelectorTimeout time.Duration

	Headless   bool
	ChromePath string

	TelegramBotToken string
	TelegramChatID   int64
}

// Load reads the configuration, applying defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            "8080",
		Env:             "development",
		MongoURI:        "mongodb://localhost:27017",
		MongoDB:         "pricetracker",
		RefreshInterval: 6 * time.Hour,
		ItemDelay:       2 * time.Second,
		NavTimeout:      20 * time.Second,
		SelectorTimeout: 7 * time.Second,
		Headless:        true,
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.MongoURI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		cfg.MongoDB = v
	}

	if v := envInt("REFRESH_INTERVAL_HOURS"); v > 0 {
		cfg.RefreshInterval = time.Duration(v) * time.Hour
	}
	if v := envInt("ITEM_DELAY_SECONDS"); v > 0 {
		cfg.ItemDelay = time.Duration(v) * time.Second
	}
	if v := envInt("NAV_TIMEOUT_SECONDS"); v > 0 {
		cfg.NavTimeout = time.Duration(v) * time.Second
	}
	if v := envInt("SELECTOR_TIMEOUT_SECONDS"); v > 0 {
		cfg.SelectorTimeout = time.Duration(v) * time.Second
	}

	if v := os.Getenv("HEADLESS"); v == "false" || v == "0" {
		cfg.Headless = false
	}
	cfg.ChromePath = os.Getenv("CHROME_PATH")

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if chatID, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = chatID
		}
	}

	// A single slow field must never eat the whole page budget.
	if cfg.SelectorTimeout >= cfg.NavTimeout {
		return nil, fmt.Errorf("selector timeout (%v) must be shorter than navigation timeout (%v)",
			cfg.SelectorTimeout, cfg.NavTimeout)
	}

	return cfg, nil
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
