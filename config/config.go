package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultBcryptCost = 13

type Config struct {
	ServerPort int
	Firestore  FirestoreConfig
	Storage    StorageConfig
	JWT        JWTConfig
	CORS       CORSConfig
	BcryptCost int
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

// StorageConfig selects and configures the object-storage backend.
// Backend is either "gcs" or "minio".
type StorageConfig struct {
	Backend string
	GCS     GCSConfig
	Minio   MinioConfig
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// JWTConfig configures token signing. A TokenTTL of zero issues tokens
// without an expiry claim.
type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	firestoreConfig := FirestoreConfig{
		ProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
		CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
	}

	storageConfig := StorageConfig{
		Backend: getEnv("STORAGE_BACKEND", "gcs"),
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", firestoreConfig.ProjectID),
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Firestore:  firestoreConfig,
		Storage:    storageConfig,
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			TokenTTL: getEnvDuration("JWT_TOKEN_TTL", time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		BcryptCost: getEnvInt("BCRYPT_COST", defaultBcryptCost),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if valueStr, exists := os.LookupEnv(key); exists {
		parts := []string{}
		for _, part := range strings.Split(valueStr, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
