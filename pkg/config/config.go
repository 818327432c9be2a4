package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Data files
	DataDir        string
	ArticlesFile   string
	CategoriesFile string
	SiteConfigPath string

	SessionSecret  string
	LogLevel       string
	LogFormat      string
	MaxUploadBytes int64
	UploadTimeout  time.Duration
	Cloudinary     CloudinaryConfig

	GinMode        string
	TrustedProxies []string
	SSLHeaders     bool
}

// CloudinaryConfig holds image host credentials. An empty CloudName disables uploads.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

func (c *Config) ArticlesPath() string {
	return filepath.Join(c.DataDir, c.ArticlesFile)
}

func (c *Config) CategoriesPath() string {
	return filepath.Join(c.DataDir, c.CategoriesFile)
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:           getEnv("PORT", "4000"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		ArticlesFile:   getEnv("ARTICLES_FILE", "articles.json"),
		CategoriesFile: getEnv("CATEGORIES_FILE", "categories.json"),
		SiteConfigPath: os.Getenv("SITE_CONFIG"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		GinMode:        getEnv("GIN_MODE", "release"),
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getEnv("CLOUDINARY_FOLDER", "blog"),
		},
	}

	mb, err := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "8"))
	if err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_MB: %w", err)
	}
	cfg.MaxUploadBytes = int64(mb) << 20

	cfg.UploadTimeout, err = time.ParseDuration(getEnv("UPLOAD_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("UPLOAD_TIMEOUT: %w", err)
	}

	if v := os.Getenv("SSL_HEADERS"); v != "" {
		cfg.SSLHeaders, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("SSL_HEADERS: %w", err)
		}
	}

	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, p)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.UploadTimeout <= 0 {
		return fmt.Errorf("UPLOAD_TIMEOUT must be positive")
	}
	if c.ArticlesFile == "" || c.CategoriesFile == "" {
		return fmt.Errorf("data file names must not be empty")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid GIN_MODE %q", c.GinMode)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}
