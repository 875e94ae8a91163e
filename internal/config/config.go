package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Log    LogConfig
	Parse  ParseConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	UploadLimitMB int
}

type LogConfig struct {
	Level  string
	Format string // "console" or "json"
}

type ParseConfig struct {
	DefaultBank  string // empty means auto-detect
	ExportFormat string // "csv" or "xlsx"
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory when one exists.
func Load() (*Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "localhost"),
			Port:          getEnvAsInt("SERVER_PORT", 8080),
			UploadLimitMB: getEnvAsInt("UPLOAD_LIMIT_MB", 20),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "console")),
		},
		Parse: ParseConfig{
			DefaultBank:  strings.ToLower(getEnv("DEFAULT_BANK", "")),
			ExportFormat: strings.ToLower(getEnv("EXPORT_FORMAT", "csv")),
		},
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT out of range: %d", cfg.Server.Port)
	}
	if cfg.Server.UploadLimitMB <= 0 {
		return nil, errors.New("UPLOAD_LIMIT_MB must be positive")
	}
	if cfg.Parse.ExportFormat != "csv" && cfg.Parse.ExportFormat != "xlsx" {
		return nil, fmt.Errorf("EXPORT_FORMAT must be csv or xlsx, got %q", cfg.Parse.ExportFormat)
	}

	return cfg, nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// UploadLimitBytes is the largest accepted request body.
func (c *ServerConfig) UploadLimitBytes() int {
	return c.UploadLimitMB * 1024 * 1024
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
