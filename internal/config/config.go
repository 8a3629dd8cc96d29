package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr      string
	UploadRoot    string
	PublicBaseURL string
	APIPrefix     string
	StorageDriver string // "local" or "s3"
	S3            S3Config
	Auth          AuthConfig
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type AuthConfig struct {
	JWKSUrl      string
	Issuer       string
	Audience     string
	JWKSCacheTTL int // Cache TTL in seconds
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	driver := getEnv("STORAGE_DRIVER", "local")
	if driver != "local" && driver != "s3" {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q: must be \"local\" or \"s3\"", driver)
	}

	apiPrefix := strings.Trim(getEnv("API_PREFIX", ""), "/")
	if apiPrefix != "" {
		apiPrefix = "/" + apiPrefix
	}

	jwksCacheTTL := 900 // 15 minutes default
	if ttlStr := getEnv("AUTH_JWKS_CACHE_TTL", ""); ttlStr != "" {
		if ttl, err := strconv.Atoi(ttlStr); err == nil {
			jwksCacheTTL = ttl
		}
	}

	return &Config{
		HTTPAddr:      getEnv("MEDIA_HTTP_ADDR", ":8080"),
		UploadRoot:    getEnv("UPLOAD_PATH", "./uploads"),
		PublicBaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3001"), "/"),
		APIPrefix:     apiPrefix,
		StorageDriver: driver,
		S3: S3Config{
			Endpoint:  getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("STORAGE_BUCKET", "uploads"),
			UseSSL:    getEnv("STORAGE_USE_SSL", "false") == "true",
		},
		Auth: AuthConfig{
			JWKSUrl:      getEnv("AUTH_JWKS_URL", "http://auth-service:3000/.well-known/jwks.json"),
			Issuer:       getEnv("AUTH_ISSUER", "http://auth-service:3000"),
			Audience:     getEnv("AUTH_AUDIENCE", "media"),
			JWKSCacheTTL: jwksCacheTTL,
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
