// FILE: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Midtrans     MidtransConfig
	Telegram     TelegramConfig
	Subscription SubscriptionConfig
	Retry        RetryConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type MidtransConfig struct {
	ServerKey    string
	IsProduction bool
}

type TelegramConfig struct {
	BotToken   string
	VIPChatID  int64
	APIBaseURL string
}

type SubscriptionConfig struct {
	// Period granted per completed payment. The 30-day default matches the
	// product's single plan; the engine works for any positive duration.
	Period        time.Duration
	SweepInterval time.Duration
	SweepBatch    int
	Price         int64
	Currency      string
}

type RetryConfig struct {
	// MembershipMaxAttempts bounds grant/revoke retries per call; the sweep
	// picks up whatever is still unsynced afterwards.
	MembershipMaxAttempts int
	MembershipBaseDelay   time.Duration
	MembershipCallTimeout time.Duration
	// StoreConflictRetries bounds re-read-and-recompute loops on version
	// conflicts before the webhook is handed back to the gateway for redelivery.
	StoreConflictRetries int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Midtrans: MidtransConfig{
			ServerKey:    getEnv("MIDTRANS_SERVER_KEY", ""),
			IsProduction: getEnv("MIDTRANS_IS_PRODUCTION", "false") == "true",
		},
		Telegram: TelegramConfig{
			BotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
			VIPChatID:  getEnvAsInt64("VIP_CHAT_ID", 0),
			APIBaseURL: getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		},
		Subscription: SubscriptionConfig{
			Period:        time.Duration(getEnvAsInt("SUBSCRIPTION_PERIOD_DAYS", 30)) * 24 * time.Hour,
			SweepInterval: time.Duration(getEnvAsInt("SWEEP_INTERVAL_HOURS", 24)) * time.Hour,
			SweepBatch:    getEnvAsInt("SWEEP_BATCH_SIZE", 200),
			Price:         int64(getEnvAsInt("SUBSCRIPTION_PRICE", 150000)),
			Currency:      getEnv("SUBSCRIPTION_CURRENCY", "IDR"),
		},
		Retry: RetryConfig{
			MembershipMaxAttempts: getEnvAsInt("MEMBERSHIP_RETRY_MAX_ATTEMPTS", 5),
			MembershipBaseDelay:   time.Duration(getEnvAsInt("MEMBERSHIP_RETRY_BASE_DELAY_MS", 500)) * time.Millisecond,
			MembershipCallTimeout: time.Duration(getEnvAsInt("MEMBERSHIP_CALL_TIMEOUT_SEC", 15)) * time.Second,
			StoreConflictRetries:  getEnvAsInt("STORE_CONFLICT_RETRIES", 3),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}
