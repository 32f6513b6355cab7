package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds portal gateway configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Clinic backend endpoints. APIBaseURL covers the /api group, AuthBaseURL
	// the unprefixed /auth group. When AuthBaseURL is empty the API host is
	// reused.
	APIBaseURL  string
	AuthBaseURL string
	HTTPTimeout time.Duration

	// Session persistence. SessionProfile scopes the stored session the way a
	// browser origin scopes localStorage.
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	SessionProfile string

	// RefreshBuffer is how close to access-token expiry a proactive refresh
	// is triggered. Applies only when the token carries a readable exp claim.
	RefreshBuffer time.Duration

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables.
func Load() *Config {
	apiBase := strings.TrimSuffix(getEnv("API_BASE_URL", "http://localhost:8000/api"), "/")
	authBase := strings.TrimSuffix(getEnv("AUTH_BASE_URL", ""), "/")
	if authBase == "" {
		authBase = strings.TrimSuffix(apiBase, "/api")
	}

	return &Config{
		Port:           getEnv("PORT", "3000"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		APIBaseURL:     apiBase,
		AuthBaseURL:    authBase,
		HTTPTimeout:    getEnvAsDuration("HTTP_TIMEOUT", 20*time.Second),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		SessionProfile: getEnv("SESSION_PROFILE", "default"),
		RefreshBuffer:  getEnvAsDuration("REFRESH_BUFFER", 30*time.Second),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
