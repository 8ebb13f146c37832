package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Dias221467/achievements/pkg/email"
	"github.com/Dias221467/achievements/pkg/twitter"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the application configuration.
type Config struct {
	Port      string `env:"PORT,default=8080"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	StoreDriver string `env:"STORE_DRIVER,default=mongo"`
	MongoURI    string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	DBName      string `env:"DB_NAME,default=achievements"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret   string        `env:"JWT_SECRET"`
	TokenExpiry time.Duration `env:"TOKEN_EXPIRY,default=72h"`
	LoginPath   string        `env:"LOGIN_PATH,default=/users/login"`

	StorageDriver string `env:"STORAGE_DRIVER,default=local"`
	UploadDir     string `env:"UPLOAD_DIR,default=./uploads"`
	S3            S3Config

	CORSOrigins string `env:"CORS_ORIGINS,default=http://localhost:3000"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE,default=30"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST,default=10"`

	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT,default=15s"`

	SMTP    email.SMTPConfig
	Twitter twitter.Config
}

// S3Config is used when STORAGE_DRIVER=s3.
type S3Config struct {
	Bucket    string `env:"S3_BUCKET"`
	Region    string `env:"S3_REGION,default=us-east-1"`
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	PublicURL string `env:"S3_PUBLIC_URL"`
	PathStyle bool   `env:"S3_PATH_STYLE,default=false"`
}

// LoadConfig reads an optional .env file and decodes the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("Failed to read .env file")
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no safe default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case "mongo", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.StorageDriver {
	case "local":
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
