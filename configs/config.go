package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
	Endpoint   string
}

type Scheduler struct {
	Interval         time.Duration
	Concurrency      int
	AutoStart        bool
	TokenRefreshSpec string
}

type Config struct {
	AppEnv             string
	Port               string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenURL     string
	YoutubeEndpoint    string
	FacebookGraphURL   string
	PostgresURI        string
	R2                 R2
	Scheduler          Scheduler
	SecretKey          string
	CronSecret         string
	HTTPTimeout        time.Duration
	SentryDSN          string
	LogLevel           string
	LogFormat          string
}

func LoadConfig() *Config {
	return &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "3000"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleTokenURL:     getEnv("GOOGLE_TOKEN_URL", ""),
		YoutubeEndpoint:    getEnv("YOUTUBE_API_ENDPOINT", ""),
		FacebookGraphURL:   getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com/v19.0"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
			Endpoint:   getEnv("R2_ENDPOINT", ""),
		},
		Scheduler: Scheduler{
			Interval:         getEnvDuration("SCHEDULER_INTERVAL", 10*time.Second),
			Concurrency:      getEnvInt("SCHEDULER_CONCURRENCY", 5),
			AutoStart:        getEnvBool("SCHEDULER_AUTOSTART", true),
			TokenRefreshSpec: getEnv("TOKEN_REFRESH_SPEC", "@every 00h10m00s"),
		},
		SecretKey:   getEnv("SECRET_KEY", ""),
		CronSecret:  getEnv("CRON_SECRET", ""),
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 5*time.Minute),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}
}

// Validate reports the first setting the publisher cannot run without.
func (c *Config) Validate() error {
	if c.PostgresURI == "" {
		return errors.New("POSTGRES_URI is required")
	}
	switch len(c.SecretKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("SECRET_KEY must be 16, 24 or 32 bytes, got %d", len(c.SecretKey))
	}
	if c.CronSecret == "" {
		return errors.New("CRON_SECRET is required")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %s", c.Scheduler.Interval)
	}
	if c.Scheduler.Concurrency <= 0 {
		return fmt.Errorf("SCHEDULER_CONCURRENCY must be positive, got %d", c.Scheduler.Concurrency)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return defaultValue
}
