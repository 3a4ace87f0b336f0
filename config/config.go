package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything main needs to wire the server. Values come from
// the environment, with a .env file as a convenience for local runs.
type Config struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
	PublicBaseURL  string

	// Empty PostgresURL switches the question source to the built-in set.
	PostgresURL string
	TokenKey    string

	QuestionsPerGame int

	LogLevel  string
	LogFormat string
	LogFile   string
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://jduel.xyz",
	"http://www.jduel.xyz",
	"https://jduel.xyz",
	"https://www.jduel.xyz",
}

func Load() Config {
	// Missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	cfg := Config{
		Port:             getEnv("PORT", "5000"),
		GinMode:          getEnv("GIN_MODE", "debug"),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		PostgresURL:      getEnv("POSTGRES_URL", ""),
		TokenKey:         getEnv("TOKEN_KEY", ""),
		QuestionsPerGame: getEnvInt("QUESTIONS_PER_GAME", 10),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		LogFile:          getEnv("LOG_FILE", ""),
	}

	if origins, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	} else {
		cfg.AllowedOrigins = defaultOrigins
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
