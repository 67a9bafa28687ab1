package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageBackend selects where uploaded image bytes live.
type StorageBackend string

const (
	StorageLocal StorageBackend = "local"
	StorageAzure StorageBackend = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	// Image store
	StorageBackend StorageBackend
	UploadDir      string
	AzureAccount   string
	AzureKey       string
	AzureContainer string

	// Metadata store
	DatabasePath string

	// Tagging pipeline
	OllamaURL           string
	DetectionModel      string
	DetectionConfidence float64
	OCRLanguages        []string
	DictionaryPath      string

	// API
	ThumbnailWidth int
	PageSize       int
	SuggestLimit   int
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 120*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB

		StorageBackend: StorageBackend(getEnvOrDefault("STORAGE_BACKEND", "local")),
		UploadDir:      getEnvOrDefault("UPLOAD_DIR", "uploads"),
		AzureAccount:   os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureKey:       os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureContainer: getEnvOrDefault("AZURE_CONTAINER", "images"),

		DatabasePath: getEnvOrDefault("DATABASE_PATH", "gallery.db"),

		OllamaURL:           getEnvOrDefault("OLLAMA_URL", "http://127.0.0.1:11434"),
		DetectionModel:      getEnvOrDefault("DETECTION_MODEL", "llava:13b"),
		DetectionConfidence: parseFloatOrDefault("DETECTION_CONFIDENCE", 0.5),
		OCRLanguages:        splitList(getEnvOrDefault("OCR_LANGUAGES", "eng")),
		DictionaryPath:      os.Getenv("DICTIONARY_PATH"),

		ThumbnailWidth: int(parseIntOrDefault("THUMBNAIL_WIDTH", 300)),
		PageSize:       int(parseIntOrDefault("PAGE_SIZE", 12)),
		SuggestLimit:   int(parseIntOrDefault("SUGGEST_LIMIT", 10)),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", cfg.RequestTimeout)
	}
	if cfg.DetectionConfidence < 0 || cfg.DetectionConfidence > 1 {
		return nil, fmt.Errorf("DETECTION_CONFIDENCE must be in [0,1] (got %g)", cfg.DetectionConfidence)
	}
	switch cfg.StorageBackend {
	case StorageLocal:
		if cfg.UploadDir == "" {
			return nil, fmt.Errorf("UPLOAD_DIR must not be empty")
		}
	case StorageAzure:
		if cfg.AzureAccount == "" || cfg.AzureKey == "" {
			return nil, fmt.Errorf("AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY are required for the azure backend")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %q", cfg.StorageBackend)
	}
	if cfg.PageSize <= 0 || cfg.SuggestLimit <= 0 || cfg.ThumbnailWidth <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE, SUGGEST_LIMIT and THUMBNAIL_WIDTH must be > 0")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
