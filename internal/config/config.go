// Package config loads application settings from the environment, with a
// .env file picked up when present.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultAPIAddr    = ":8080"
	defaultRedisAddr  = "localhost:6379"
	defaultRoomTTLSec = 600 // rooms self-destruct after 10 minutes
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
}

type Config struct {
	APIAddr        string
	RedisAddr      string
	RoomTTL        int // seconds
	AllowedOrigins []string
	CookieSecure   bool // Secure flag on the session cookie
}

func Load() Config {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env file: %v", err)
	}

	return Config{
		APIAddr:        envOr("API_ADDR", defaultAPIAddr),
		RedisAddr:      envOr("REDIS_ADDR", defaultRedisAddr),
		RoomTTL:        envInt("ROOM_TTL_SEC", defaultRoomTTLSec),
		AllowedOrigins: envCSV("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
		CookieSecure:   envBool("COOKIE_SECURE", false),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid %s=%s, fallback to default (%d)", key, v, def)
			return def
		}
		return i
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid %s=%s, fallback to default (%t)", key, v, def)
			return def
		}
		return b
	}
	return def
}

func envCSV(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
