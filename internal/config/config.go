package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go-image-compressor/internal/compressor"
	"go-image-compressor/internal/strategy"
)

// Storage backends selectable with STORAGE_TYPE
const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageAzure = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64

	// Default compression selection, overridable per request
	Algorithm compressor.Algorithm
	Parameter int
	Retention string
	Remainder compressor.RemainderPolicy
	Workers   int

	Storage StorageConfig
}

// StorageConfig selects where reconstructed images are written
type StorageConfig struct {
	Type           string
	LocalDir       string
	AzureAccount   string
	AzureKey       string
	AzureContainer string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Compression returns the default compressor configuration
func (c *Config) Compression() compressor.Config {
	cfg := compressor.DefaultConfig()
	cfg.Algorithm = c.Algorithm
	cfg.Parameter = c.Parameter
	cfg.Retention = c.Retention
	cfg.Remainder = c.Remainder
	return cfg
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		Retention:          strings.ToLower(getEnvOrDefault("DCT_RETENTION", strategy.ZigzagName)),
		Storage: StorageConfig{
			Type:           strings.ToLower(getEnvOrDefault("STORAGE_TYPE", StorageNone)),
			LocalDir:       getEnvOrDefault("STORAGE_LOCAL_DIR", "./output"),
			AzureAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
			AzureKey:       os.Getenv("AZURE_STORAGE_KEY"),
			AzureContainer: getEnvOrDefault("AZURE_STORAGE_CONTAINER", "compressed"),
		},
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout)
	}

	if cfg.Algorithm, err = compressor.ParseAlgorithm(getEnvOrDefault("COMPRESSION_ALGORITHM", string(compressor.AlgorithmDCT))); err != nil {
		return nil, fmt.Errorf("invalid COMPRESSION_ALGORITHM: %w", err)
	}
	if cfg.Parameter, err = parseStrictInt("COMPRESSION_PARAMETER", 10); err != nil || cfg.Parameter < 0 {
		return nil, fmt.Errorf("invalid COMPRESSION_PARAMETER: %q", os.Getenv("COMPRESSION_PARAMETER"))
	}
	if cfg.Algorithm == compressor.AlgorithmDCT && cfg.Parameter > compressor.MaxKValue {
		return nil, fmt.Errorf("COMPRESSION_PARAMETER must be <= %d for dct (got %d)", compressor.MaxKValue, cfg.Parameter)
	}
	if _, err := strategy.ParseRetention(cfg.Retention); err != nil {
		return nil, fmt.Errorf("invalid DCT_RETENTION: %w", err)
	}
	if cfg.Remainder, err = compressor.ParseRemainderPolicy(os.Getenv("DCT_REMAINDER")); err != nil {
		return nil, fmt.Errorf("invalid DCT_REMAINDER: %w", err)
	}
	if cfg.Workers, err = parseStrictInt("COMPRESSION_WORKERS", 0); err != nil || cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid COMPRESSION_WORKERS: %q", os.Getenv("COMPRESSION_WORKERS"))
	}

	switch cfg.Storage.Type {
	case StorageNone, StorageLocal:
	case StorageAzure:
		if cfg.Storage.AzureAccount == "" || cfg.Storage.AzureKey == "" {
			return nil, fmt.Errorf("STORAGE_TYPE=azure requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_TYPE: %q", cfg.Storage.Type)
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

// parseStrictInt fails on malformed values instead of falling back
func parseStrictInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}
