package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	InputPath      string
	OutputPath     string
	GLEIFBaseURL   string
	GLEIFTimeout   time.Duration
	Workers        int
	LogLevel       string
	PersistResults bool
	Port           string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	AutoMigrate    bool
	GinMode        string
	MaxUploadBytes int64
}

// Load reads the environment, after applying a .env file when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		InputPath:      getEnv("INPUT_PATH", "input_dataset.csv"),
		OutputPath:     getEnv("OUTPUT_PATH", "gleif_data_output.csv"),
		GLEIFBaseURL:   getEnv("GLEIF_BASE_URL", "https://api.gleif.org/api/v1/lei-records"),
		GLEIFTimeout:   getDuration("GLEIF_TIMEOUT", 10*time.Second),
		Workers:        getInt("ENRICH_WORKERS", 1),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		PersistResults: getEnv("PERSIST_RESULTS", "false") == "true",
		Port:           getEnv("PORT", "8080"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "enricher"),
		DBPassword:     getEnv("DB_PASSWORD", "enricher_secret"),
		DBName:         getEnv("DB_NAME", "enricher"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		AutoMigrate:    getEnv("AUTO_MIGRATE", "false") == "true",
		GinMode:        getEnv("GIN_MODE", "debug"),
		MaxUploadBytes: int64(getInt("MAX_UPLOAD_BYTES", 10<<20)),
	}
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Level falls back to info for unknown values.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
