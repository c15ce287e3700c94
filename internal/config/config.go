package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server, CLI and serverless entry read from the environment
type Config struct {
	Port     string
	GinMode  string
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig

	DefaultGroupSize int
}

type DatabaseConfig struct {
	// URL selects postgres when set; otherwise sqlite at Path is used.
	URL  string
	Path string
}

type AuthConfig struct {
	JWTSecret     string
	MasterSecret  string
	AdminUsername string
	AdminPassword string
	BcryptCost    int
	TokenTTL      time.Duration
}

// ErrMissingJWTSecret is returned when admin tokens would be signed with an empty key
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Validate rejects auth settings the HTTP service cannot run with
func (a AuthConfig) Validate() error {
	if a.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

type LogConfig struct {
	Level       string
	Development bool
}

// envPaths are tried in order; the first existing file wins
var envPaths = []string{".env", "../.env", "../../.env"}

// LoadDotEnv loads the first .env file found, if any
func LoadDotEnv() error {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return fmt.Errorf("config.godotenv(%s): %w", p, err)
			}
			return nil
		}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("PORT", "8000")
	v.SetDefault("GIN_MODE", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATA_PATH", "groups.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("API_MASTER_SECRET", "")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("BCRYPT_COST", 14)
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("DEFAULT_GROUP_SIZE", 8)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEVELOPMENT", false)

	v.AutomaticEnv()
	return v
}

// Load reads .env (when present) and the process environment
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only
func FromEnv() (*Config, error) {
	v := newViper()

	cfg := &Config{
		Port:    v.GetString("PORT"),
		GinMode: v.GetString("GIN_MODE"),
		Database: DatabaseConfig{
			URL:  v.GetString("DATABASE_URL"),
			Path: v.GetString("DATA_PATH"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			MasterSecret:  v.GetString("API_MASTER_SECRET"),
			AdminUsername: v.GetString("ADMIN_USERNAME"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
			BcryptCost:    v.GetInt("BCRYPT_COST"),
			TokenTTL:      v.GetDuration("TOKEN_TTL"),
		},
		Log: LogConfig{
			Level:       v.GetString("LOG_LEVEL"),
			Development: v.GetBool("LOG_DEVELOPMENT"),
		},
		DefaultGroupSize: v.GetInt("DEFAULT_GROUP_SIZE"),
	}

	if cfg.DefaultGroupSize <= 0 {
		return nil, fmt.Errorf("DEFAULT_GROUP_SIZE must be positive, got %d", cfg.DefaultGroupSize)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.Auth.TokenTTL)
	}
	return cfg, nil
}
