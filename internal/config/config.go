package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the bot process. All values come
// from the environment, with defaults suitable for a dry local run.
type Config struct {
	Port         string
	DatabasePath string
	JWTSecret    string

	// Exchange endpoints
	ClobHost string

	// Scanner defaults
	ScanInterval    time.Duration
	ScanOutcome     string // outcome label hunted by the scanner
	PriceThreshold  float64
	MaxOrderSize    float64
	AutoOrder       bool
	SellTargetPrice float64

	// Monitor settings
	MonitorInterval time.Duration
	MonitorDuration time.Duration

	// Telegram notification sink; empty token selects the log sink
	TelegramBotToken string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honoured when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:             getEnv("PORT", "8080"),
		DatabasePath:     getEnv("DATABASE_PATH", "bot.db"),
		JWTSecret:        getEnv("JWT_SECRET", "polymarket-bot-secret"),
		ClobHost:         getEnv("CLOB_HOST", "https://clob.polymarket.com"),
		ScanInterval:     getDuration("SCAN_INTERVAL_SECONDS", 60*time.Second),
		ScanOutcome:      getEnv("SCAN_OUTCOME", "NO"),
		PriceThreshold:   getFloat("MAX_PRICE_NO_TOKENS", 0.01),
		MaxOrderSize:     getFloat("MAX_ORDER_SIZE", 100),
		AutoOrder:        getBool("AUTO_ORDER", false),
		SellTargetPrice:  getFloat("SELL_TARGET_PRICE", 0.05),
		MonitorInterval:  getDuration("MONITOR_INTERVAL_SECONDS", 10*time.Second),
		MonitorDuration:  getDuration("MONITOR_DURATION_SECONDS", 300*time.Second),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
