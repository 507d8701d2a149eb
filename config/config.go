package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string
	BackendURL string
	LogDir     string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	CacheVersion string

	SuggestionTTL   time.Duration
	HealthInterval  time.Duration
	UpstreamTimeout time.Duration

	ShellAssets []string         `yaml:"shell_assets"`
	Suggestions []SuggestionItem `yaml:"static_suggestions"`
}

// SuggestionItem mirrors the widget suggestion shape for the YAML file.
type SuggestionItem struct {
	Text     string `yaml:"text"`
	Icon     string `yaml:"icon"`
	Category string `yaml:"category"`
}

func LoadConfig() Config {
	cfg := Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8000"),
		BackendURL: getEnv("BACKEND_URL", "http://localhost:8080"),
		LogDir:     getEnv("LOG_DIR", "./logs"),

		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", ""),
		DBName:     getEnv("DB_NAME", ""),

		CacheVersion: getEnv("CACHE_VERSION", "nova-assistant-v1"),

		SuggestionTTL:   getEnvDuration("SUGGESTION_TTL_SECONDS", 5*time.Minute),
		HealthInterval:  getEnvDuration("HEALTH_POLL_SECONDS", 30*time.Second),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT_SECONDS", 10*time.Second),
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			panic(fmt.Sprintf("config file %s: %v", path, err))
		}
	}

	if len(cfg.ShellAssets) == 0 {
		cfg.ShellAssets = []string{
			"/",
			"/static/styles.css",
			"/static/main.js",
			"https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600&display=swap",
			"https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.0.0/css/all.min.css",
		}
	}

	return cfg
}

// mergeFile overlays the YAML file on top of the env-derived config.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
