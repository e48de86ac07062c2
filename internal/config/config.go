package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration
	LogLevel    string
	LogFormat   string

	// CacheTTL is the default validity window for query-cache entries.
	CacheTTL time.Duration
	// ProfileThrottle is the minimum interval between completed
	// authoritative-profile fetches.
	ProfileThrottle time.Duration

	// StateDir is where the persistent storage region (tokens, profile)
	// and the session cache blob live when file-backed.
	StateDir string
	// RedisURL, when set, backs the session cache region with Redis
	// instead of process memory. Empty means in-memory.
	RedisURL string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:3000/api"),
		HTTPTimeout:     time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "pretty"),
		CacheTTL:        time.Duration(getEnvInt("CACHE_TTL_MS", 300000)) * time.Millisecond,
		ProfileThrottle: time.Duration(getEnvInt("PROFILE_THROTTLE_MS", 5000)) * time.Millisecond,
		StateDir:        getEnv("STATE_DIR", defaultStateDir()),
		RedisURL:        getEnv("REDIS_URL", ""),
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".examsync"
	}
	return filepath.Join(home, ".examsync")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
