package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Server Configuration:
// - HTTP_ADDR: Listen address for the HTTP server (default: :8080)
// - LOG_LEVEL: Log level (debug, info, warn, error) (default: info)
//
// Extraction Configuration:
// - YTDLP_BIN: Path to the yt-dlp binary (default: yt-dlp)
// - YTDLP_TIMEOUT: Extraction timeout in seconds (default: 60)
// - PLAYER_CLIENTS: Comma-separated player clients to try (default: ios,android,web)
// - COOKIE_FILE: Path to the shared Netscape cookie file (default: cookies.txt)
//
// Pipeline Configuration:
// - FETCH_TIMEOUT: Direct caption fetch timeout in seconds (default: 15)
// - METADATA_TTL: Metadata cache TTL in seconds (default: 300)
// - RESULT_TTL: Caption result cache TTL in seconds (default: 600)
// - SWEEP_CRON: Cron expression for the background cache sweep (default: */5 * * * *)
//
// Translation Configuration:
// - TRANSLATE_ENDPOINT: Translation endpoint URL (optional, defaults to the public one)

type Config struct {
	// Server Configuration
	Server ServerConfig `json:"server"`

	// Extraction Configuration
	Extract ExtractConfig `json:"extract"`

	// Pipeline Configuration
	Pipeline PipelineConfig `json:"pipeline"`

	// Translation Configuration
	Translate TranslateConfig `json:"translate"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Addr     string `json:"addr"`
	LogLevel string `json:"log_level"`
}

// ExtractConfig holds the metadata extraction configuration
type ExtractConfig struct {
	Binary        string   `json:"binary"`
	Timeout       int      `json:"timeout"`
	PlayerClients []string `json:"player_clients"`
	CookieFile    string   `json:"cookie_file"`
}

// PipelineConfig holds the caption pipeline configuration
type PipelineConfig struct {
	FetchTimeout int    `json:"fetch_timeout"`
	MetadataTTL  int    `json:"metadata_ttl"`
	ResultTTL    int    `json:"result_ttl"`
	SweepCron    string `json:"sweep_cron"`
}

// TranslateConfig holds the translation endpoint configuration
type TranslateConfig struct {
	Endpoint string `json:"endpoint"`
}

func (c PipelineConfig) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c PipelineConfig) MetadataTTLDuration() time.Duration {
	return time.Duration(c.MetadataTTL) * time.Second
}

func (c PipelineConfig) ResultTTLDuration() time.Duration {
	return time.Duration(c.ResultTTL) * time.Second
}

func (c ExtractConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Option is a function type for configuring Config
type Option func(*Config)

// WithAddr overrides the HTTP listen address
func WithAddr(addr string) Option {
	return func(c *Config) {
		if addr != "" {
			c.Server.Addr = addr
		}
	}
}

// WithCookieFile overrides the shared cookie file path
func WithCookieFile(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.Extract.CookieFile = path
		}
	}
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Addr:     getEnvString("HTTP_ADDR", ":8080"),
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
		Extract: ExtractConfig{
			Binary:        getEnvString("YTDLP_BIN", "yt-dlp"),
			Timeout:       getEnvInt("YTDLP_TIMEOUT", 60),
			PlayerClients: getEnvList("PLAYER_CLIENTS", []string{"ios", "android", "web"}),
			CookieFile:    getEnvString("COOKIE_FILE", "cookies.txt"),
		},
		Pipeline: PipelineConfig{
			FetchTimeout: getEnvInt("FETCH_TIMEOUT", 15),
			MetadataTTL:  getEnvInt("METADATA_TTL", 300),
			ResultTTL:    getEnvInt("RESULT_TTL", 600),
			SweepCron:    getEnvString("SWEEP_CRON", "*/5 * * * *"),
		},
		Translate: TranslateConfig{
			Endpoint: getEnvString("TRANSLATE_ENDPOINT", ""),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if c.Extract.Binary == "" {
		return fmt.Errorf("YTDLP_BIN is required")
	}
	if c.Pipeline.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if c.Pipeline.MetadataTTL <= 0 || c.Pipeline.ResultTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated list from environment variables with default
func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		ret := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				ret = append(ret, p)
			}
		}
		if len(ret) > 0 {
			return ret
		}
	}
	return defaultValue
}
