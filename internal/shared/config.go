package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	LogLevel      string
	HTTPAddr      string
	MetricsAddr   string
	APIURL        string
	APIRPS        int
	APITimeout    time.Duration
	UserID        int64
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration
	SessionSecret string
	SecureCookies bool
	WarmWorkers   int
}

// Load reads the environment, after merging an optional .env file
// (ENV_FILE, default ".env"). Real environment variables win.
func Load() Config {
	envFile := env("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("file", envFile).Msg("could not read env file")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ""),
		APIURL:        env("API_URL", "http://localhost:3000"),
		APIRPS:        atoi("API_RPS", 20),
		APITimeout:    time.Duration(atoi("API_TIMEOUT_SECONDS", 10)) * time.Second,
		UserID:        int64(atoi("USER_ID", 1)),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		SessionSecret: env("SESSION_SECRET", ""),
		WarmWorkers:   atoi("WARM_WORKERS", 4),
	}
	// the server speaks plain HTTP; only mark cookies Secure when a TLS proxy sits in front
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Warn().Str("key", "SECURE_COOKIES").Str("value", v).Msg("not a boolean, using false")
		}
		c.SecureCookies = b
	}
	if c.SessionSecret == "" {
		log.Warn().Msg("SESSION_SECRET is empty; using an insecure development secret")
		c.SessionSecret = "staybook-dev-secret-change-me-0000"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
