// Package config loads runtime settings from the environment (and an optional .env file).
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the service
type Config struct {
	Env      string `env:"APP_ENV" env-default:"development"`
	HTTP     HTTPServer
	Database Database
	Storage  Storage
	Upload   Upload
	Auth     Auth
	Log      Log
}

// HTTPServer configures the listener
type HTTPServer struct {
	Port            string        `env:"PORT" env-default:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Database configures the record store
type Database struct {
	Driver string `env:"DATABASE_DRIVER" env-default:"sqlite"` // sqlite or postgres
	DSN    string `env:"DATABASE_URL" env-default:"userdocs.db"`
}

// Storage configures the document namespace
type Storage struct {
	Type         string `env:"STORAGE_TYPE" env-default:"local"` // local or s3
	LocalPath    string `env:"STORAGE_LOCAL_PATH" env-default:"./uploads"`
	S3Bucket     string `env:"AWS_S3_BUCKET"`
	S3Region     string `env:"AWS_REGION" env-default:"us-east-1"`
	S3Endpoint   string `env:"AWS_S3_ENDPOINT"`
	AWSAccessKey string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// Upload configures accepted uploads
type Upload struct {
	MaxBytes          int64    `env:"UPLOAD_MAX_BYTES" env-default:"16777216"`
	AllowedExtensions []string `env:"UPLOAD_ALLOWED_EXTENSIONS" env-separator:"," env-default:"txt"`
}

// Auth configures how passwords are stored and compared
type Auth struct {
	PasswordScheme string `env:"PASSWORD_SCHEME" env-default:"plain"` // plain or bcrypt
	BcryptCost     int    `env:"BCRYPT_COST" env-default:"10"`
}

// Log configures the zap logger
type Log struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
	Dev   bool   `env:"LOG_DEV" env-default:"false"`
}

// Load reads a .env file if one exists, then the process environment.
func Load() (*Config, error) {
	// best-effort: a missing .env just means real env vars (or defaults) are used
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the service cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	switch c.Storage.Type {
	case "local":
		if c.Storage.LocalPath == "" {
			return errors.New("STORAGE_LOCAL_PATH is required for local storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}

	switch c.Auth.PasswordScheme {
	case "plain", "bcrypt":
	default:
		return fmt.Errorf("unknown password scheme: %s", c.Auth.PasswordScheme)
	}

	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return errors.New("UPLOAD_ALLOWED_EXTENSIONS must not be empty")
	}
	return nil
}
