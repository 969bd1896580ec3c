package config

import (
	"os"
	"strconv"
)

type Config struct {
	DB      DBConfig
	JWT     JWTConfig
	Server  ServerConfig
	Storage StorageConfig
	MinIO   MinIOConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port         string
	BodyLimitMB  int
	ImageMaxSide int
	ImageQuality int
}

// StorageConfig selects where processed cover images live. Backend is
// either "local" (ImagesDir served back via /images) or "minio".
// UploadsDir holds raw uploads while the pipeline runs.
type StorageConfig struct {
	Backend    string
	ImagesDir  string
	UploadsDir string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "grimoire"),
			Password: getEnv("DB_PASSWORD", "grimoire_secret"),
			Name:     getEnv("DB_NAME", "grimoire"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "4000"),
			BodyLimitMB:  getEnvAsInt("BODY_LIMIT_MB", 10),
			ImageMaxSide: getEnvAsInt("IMAGE_SIZE", 300),
			ImageQuality: getEnvAsInt("IMAGE_QUALITY", 87),
		},
		Storage: StorageConfig{
			Backend:    getEnv("STORAGE_BACKEND", "local"),
			ImagesDir:  getEnv("IMAGES_DIR", "./images"),
			UploadsDir: getEnv("UPLOADS_DIR", "./uploads"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "grimoire"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "grimoire_secret"),
			Bucket:    getEnv("MINIO_BUCKET", "grimoire-images"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
