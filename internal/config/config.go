package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hongminglow/approval-desk/internal/storage"
)

// DefaultAPIBaseURL is the production transaction service.
const DefaultAPIBaseURL = "https://fastapi-capv1-production.up.railway.app"

// Config holds runtime configuration for the console.
type Config struct {
	APIBaseURL  string
	TokenPath   string
	HTTPTimeout time.Duration
	LogLevel    slog.Level
	LogFile     string
}

// fileConfig is the YAML shape. Durations and levels are kept as text so the
// same parsing applies to file and env values.
type fileConfig struct {
	APIBaseURL         string `yaml:"api_base_url"`
	TokenPath          string `yaml:"token_path"`
	HTTPTimeoutSeconds string `yaml:"http_timeout_seconds"`
	LogLevel           string `yaml:"log_level"`
	LogFile            string `yaml:"log_file"`
}

// Load reads configuration from DESK_CONFIG (if set) and then the
// environment, which takes precedence.
func Load() (Config, error) {
	var file fileConfig
	if path := strings.TrimSpace(os.Getenv("DESK_CONFIG")); path != "" {
		loaded, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		file = loaded
	}

	tokenPath, err := defaultTokenPath()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIBaseURL: fallback(os.Getenv("API_BASE_URL"), fallback(file.APIBaseURL, DefaultAPIBaseURL)),
		TokenPath:  fallback(os.Getenv("TOKEN_PATH"), fallback(file.TokenPath, tokenPath)),
		LogFile:    fallback(os.Getenv("LOG_FILE"), file.LogFile),
	}

	seconds := fallback(os.Getenv("HTTP_TIMEOUT_SECONDS"), fallback(file.HTTPTimeoutSeconds, "15"))
	if n, err := strconv.Atoi(seconds); err == nil && n > 0 {
		cfg.HTTPTimeout = time.Duration(n) * time.Second
	} else {
		return Config{}, fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS %q", seconds)
	}

	level := fallback(os.Getenv("LOG_LEVEL"), fallback(file.LogLevel, "warn"))
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL %q", level)
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("invalid API_BASE_URL %q", cfg.APIBaseURL)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", errors.New("cannot determine a config directory; set TOKEN_PATH")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "approval-desk", storage.DefaultKey), nil
}

// SandboxConfig configures the in-memory reference service.
type SandboxConfig struct {
	Port        string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string
}

// LoadSandbox reads the sandbox service settings from the environment.
func LoadSandbox() (SandboxConfig, error) {
	cfg := SandboxConfig{
		Port:      fallback(os.Getenv("PORT"), "8080"),
		JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer: fallback(os.Getenv("JWT_ISSUER"), "approval-sandbox"),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	for _, origin := range strings.Split(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if cfg.JWTSecret == "" {
		return SandboxConfig{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

// HTTPAddress returns the host:port pair for the sandbox to bind to.
func (c SandboxConfig) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}
