// Package config loads process configuration from the environment and an
// optional .env file, following the teacher's joho/godotenv convention.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the fully-resolved process configuration (spec §4.7). Every
// backing-store field is independently optional; an empty value disables
// that component without affecting the core protocol.
type Config struct {
	ReliablePort int
	DocPath      string
	CanvasW      int
	CanvasH      int
	AdminAddr    string
	DatabaseURL  string
	RedisAddr    string
	S3Bucket     string
	S3Region     string
}

// Load reads .env if present (a missing file is not an error) and then
// the environment, applying spec defaults for anything unset.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	return &Config{
		ReliablePort: envInt("PAINT_RELIABLE_PORT", 6769),
		DocPath:      envString("PAINT_DOC_PATH", "./canvas_document.json"),
		CanvasW:      envInt("PAINT_CANVAS_W", 1280),
		CanvasH:      envInt("PAINT_CANVAS_H", 720),
		AdminAddr:    envString("PAINT_ADMIN_ADDR", ":8090"),
		DatabaseURL:  envString("DATABASE_URL", ""),
		RedisAddr:    envString("REDIS_ADDR", ""),
		S3Bucket:     envString("PAINT_S3_BUCKET", ""),
		S3Region:     envString("PAINT_S3_REGION", ""),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid integer for %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
