package config

import (
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
}

type Config struct {
	PostgresURI           string
	RedisURI              string
	SecretKey             string
	CookieName            string
	FacebookAppID         string
	FacebookAppSecret     string
	TwitterClientID       string
	TwitterClientSecret   string
	LinkedinClientID      string
	LinkedinClientSecret  string
	GenerationAPIURL      string
	GenerationAPIKey      string
	ModerationAPIURL      string
	ModerationAPIKey      string
	PublishTimeout        time.Duration
	DraftRetentionDays    int
	TopicRetentionDays    int
	AutoApproveThreshold  float64
	DefaultPostsPerHour   int
	DefaultPostsPerDay    int
	TokenRefreshLookahead time.Duration
	R2                    R2
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:           getEnv("POSTGRES_URI", ""),
		RedisURI:              getEnv("REDIS_URI", ""),
		SecretKey:             getEnv("SECRET_KEY", ""),
		CookieName:            getEnv("COOKIE_NAME", "brandflow_session"),
		FacebookAppID:         getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret:     getEnv("FACEBOOK_APP_SECRET", ""),
		TwitterClientID:       getEnv("TWITTER_CLIENT_ID", ""),
		TwitterClientSecret:   getEnv("TWITTER_CLIENT_SECRET", ""),
		LinkedinClientID:      getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedinClientSecret:  getEnv("LINKEDIN_CLIENT_SECRET", ""),
		GenerationAPIURL:      getEnv("GENERATION_API_URL", ""),
		GenerationAPIKey:      getEnv("GENERATION_API_KEY", ""),
		ModerationAPIURL:      getEnv("MODERATION_API_URL", ""),
		ModerationAPIKey:      getEnv("MODERATION_API_KEY", ""),
		PublishTimeout:        getEnvDuration("PUBLISH_TIMEOUT", 30*time.Second),
		DraftRetentionDays:    getEnvInt("DRAFT_RETENTION_DAYS", 30),
		TopicRetentionDays:    getEnvInt("TOPIC_RETENTION_DAYS", 7),
		AutoApproveThreshold:  getEnvFloat("AUTO_APPROVE_THRESHOLD", 0.8),
		DefaultPostsPerHour:   getEnvInt("DEFAULT_POSTS_PER_HOUR", 5),
		DefaultPostsPerDay:    getEnvInt("DEFAULT_POSTS_PER_DAY", 10),
		TokenRefreshLookahead: getEnvDuration("TOKEN_REFRESH_LOOKAHEAD", 30*time.Minute),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
