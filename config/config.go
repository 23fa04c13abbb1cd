package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL       string
	Port              string
	BallDontLieURL    string
	BallDontLieAPIKey string
	GamesCacheTTL     time.Duration
	RedisURL          string
	MirrorPath        string
	TimeZone          string
	PersistTimeout    time.Duration
	DiscordWebhookURL string
	CurrencySymbol    string
	CORSOrigins       []string
	SyncSchedule      string
	LedgerSchedule    string
	CatalogSchedule   string
}

// Load reads .env when present and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

func FromEnv() *Config {
	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		Port:              getEnv("PORT", "8080"),
		BallDontLieURL:    getEnv("BALLDONTLIE_URL", "https://api.balldontlie.io/v1"),
		BallDontLieAPIKey: getEnv("BALLDONTLIE_API_KEY", ""),
		GamesCacheTTL:     getEnvDuration("GAMES_CACHE_TTL", 5*time.Minute),
		RedisURL:          getEnv("REDIS_URL", ""),
		MirrorPath:        getEnv("MIRROR_PATH", "data/slips.json"),
		TimeZone:          getEnv("TIME_ZONE", "America/New_York"),
		PersistTimeout:    getEnvDuration("PERSIST_TIMEOUT", 10*time.Second),
		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		CurrencySymbol:    getEnv("CURRENCY_SYMBOL", "₱"),
		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"*"}),
		SyncSchedule:      getEnv("SYNC_SCHEDULE", "0 */10 * * * *"),
		LedgerSchedule:    getEnv("LEDGER_SCHEDULE", "0 0 * * * *"),
		CatalogSchedule:   getEnv("CATALOG_SCHEDULE", "0 */5 * * * *"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
