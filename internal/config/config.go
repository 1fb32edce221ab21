package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string

	// Console client
	APIBaseURL     string
	APITimeout     time.Duration
	Lang           string
	SessionBackend string
	SessionFile    string
	RedisAddr      string
	RedisPass      string
	RedisDB        int64
	SearchDebounce time.Duration
	PageSize       int64
	Interactive    bool

	// Development backend
	MockAPIAddr       string
	JWTSigningKey     string
	JWTTTLSeconds     int64
	RefreshTTLSeconds int64
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("invalid int for %s, using default: %v", key, err)
		return def
	}
	return i
}

func getBool(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid bool for %s, using default: %v", key, err)
		return def
	}
	return b
}

func millis(key string, def int64) time.Duration {
	return time.Duration(getInt64(key, def)) * time.Millisecond
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("failed to load .env: %v", err)
		}
	}
	return Config{
		Env:            getenv("ENV", "DEVELOPMENT"),
		APIBaseURL:     getenv("API_BASE_URL", "http://localhost:8080/api"),
		APITimeout:     millis("API_TIMEOUT_MS", 5000),
		Lang:           getenv("CONSOLE_LANG", "es"),
		SessionBackend: getenv("SESSION_BACKEND", "file"),
		SessionFile:    getenv("SESSION_FILE", ""),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPass:      getenv("REDIS_PASS", ""),
		RedisDB:        getInt64("REDIS_DB", 0),
		SearchDebounce: millis("SEARCH_DEBOUNCE_MS", 500),
		PageSize:       getInt64("PAGE_SIZE", 10),
		Interactive:    getBool("INTERACTIVE", true),

		MockAPIAddr:       getenv("MOCKAPI_ADDR", ":8080"),
		JWTSigningKey:     getenv("JWT_SIGNING_KEY", "dev_insecure_change_me"),
		JWTTTLSeconds:     getInt64("JWT_TTL_SECONDS", 900),
		RefreshTTLSeconds: getInt64("REFRESH_TTL_SECONDS", 14*24*3600),
	}
}

func (c Config) Production() bool { return c.Env == "PRODUCTION" }
