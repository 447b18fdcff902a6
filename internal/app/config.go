package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	Env        string
	HTTPAddr   string
	CORSAllow  []string
	InstanceID string

	AdminJWTSecret string // empty leaves /rooms open

	PGURL     string // empty disables the presence journal
	PGMaxConn int

	RedisAddr string // empty disables cross-instance fanout
	RedisDB   int

	WSSendBuffer      int
	WSMaxMessageBytes int
	WSRateMax         int
	WSRateWindow      time.Duration

	HTTPRateMax    int
	HTTPRateWindow time.Duration
}

func LoadConfig() Config {
	cfg := Config{
		Env:            getEnv("APP_ENV", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		InstanceID:     getEnv("INSTANCE_ID", uuid.NewString()),
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		PGURL:          os.Getenv("PG_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
	}
	cfg.PGMaxConn = getEnvInt("PG_MAX_CONN", 4)
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	cfg.WSSendBuffer = getEnvInt("WS_SEND_BUFFER", 256)
	cfg.WSMaxMessageBytes = getEnvInt("WS_MAX_MESSAGE_BYTES", 64*1024) // SDP fits comfortably
	cfg.WSRateMax = getEnvInt("WS_RATE_MAX", 200)
	cfg.WSRateWindow = getEnvDuration("WS_RATE_WINDOW", 10*time.Second)

	cfg.HTTPRateMax = getEnvInt("HTTP_RATE_MAX", 60)
	cfg.HTTPRateWindow = getEnvDuration("HTTP_RATE_WINDOW", time.Minute)

	// CORS allowlist
	cfg.CORSAllow = splitCSV(getEnv("CORS_ALLOW", "*"))
	return cfg
}

// JournalEnabled reports whether a Postgres URL was configured
func (c Config) JournalEnabled() bool { return c.PGURL != "" }

// BusEnabled reports whether a Redis address was configured
func (c Config) BusEnabled() bool { return c.RedisAddr != "" }

// getEnv returns the env var or a default
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses an int env var with a fallback
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		var i int
		_, _ = fmt.Sscanf(v, "%d", &i)
		if i > 0 {
			return i
		}
	}
	return def
}

// getEnvDuration parses a time.Duration env var ("10s", "1m") with a fallback
func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
