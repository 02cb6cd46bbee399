package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every runtime setting of the service, loaded from the
// environment with sensible fallbacks.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig
	Cache    CacheConfig
}

type AppConfig struct {
	Port          string
	Environment   string
	LogFilePath   string
	NotifyChannel string
}

type DatabaseConfig struct {
	URL string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type CacheConfig struct {
	RecordTTL time.Duration
}

// Load reads configuration from a local .env file when present, falling
// back to the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:          getEnv("PORT", "8080"),
			Environment:   getEnv("GO_ENV", "development"),
			LogFilePath:   getEnv("LOG_FILE_PATH", "therapy-agent.log"),
			NotifyChannel: getEnv("NOTIFY_CHANNEL", "session_analyzed"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL_CHAT", "gpt-4o-mini"),
		},
		Cache: CacheConfig{
			RecordTTL: time.Duration(getEnvAsInt("RECORD_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
	}
}

// IsProd reports whether the service runs in a production environment.
func (c *Config) IsProd() bool {
	return c.App.Environment == "production"
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
