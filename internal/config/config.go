package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting of the process; it is built once and passed around as a unit.
type Config struct {
	CatalogURL    string
	TorProxyAddr  string
	UserAgent     string
	HTTPTimeout   time.Duration
	DetailTimeout time.Duration
	MaxInFlight   int

	TelegramToken string
	HTTPAddr      string

	LogLevel string
	LogFile  string
}

const (
	defaultCatalogURL    = "https://www.goodreads.com"
	defaultHTTPTimeout   = 30 * time.Second
	defaultDetailTimeout = 20 * time.Second
	defaultMaxInFlight   = 4
	defaultHTTPAddr      = ":8080"
)

// Load reads .env (when present) into the environment and builds a Config from it.
// A missing .env is fine: variables may come straight from the container.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults for unset values.
func FromEnv(getenv func(string) string) (*Config, error) {
	catalogURL := withDefault(getenv("CATALOG_URL"), defaultCatalogURL)
	u, err := url.Parse(catalogURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("CATALOG_URL %q is not an absolute URL", catalogURL)
	}

	httpTimeout, err := durationVar(getenv, "HTTP_TIMEOUT", defaultHTTPTimeout)
	if err != nil {
		return nil, err
	}
	detailTimeout, err := durationVar(getenv, "DETAIL_TIMEOUT", defaultDetailTimeout)
	if err != nil {
		return nil, err
	}

	maxInFlight := defaultMaxInFlight
	if v := strings.TrimSpace(getenv("MAX_IN_FLIGHT")); v != "" {
		maxInFlight, err = strconv.Atoi(v)
		if err != nil || maxInFlight < 1 {
			return nil, fmt.Errorf("MAX_IN_FLIGHT %q must be a positive integer", v)
		}
	}

	return &Config{
		CatalogURL:    strings.TrimRight(catalogURL, "/"),
		TorProxyAddr:  strings.TrimSpace(getenv("TOR_PROXY")),
		UserAgent:     strings.TrimSpace(getenv("USER_AGENT")),
		HTTPTimeout:   httpTimeout,
		DetailTimeout: detailTimeout,
		MaxInFlight:   maxInFlight,
		TelegramToken: strings.TrimSpace(getenv("TELEGRAM_TOKEN")),
		HTTPAddr:      withDefault(getenv("HTTP_ADDR"), defaultHTTPAddr),
		LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL"))),
		LogFile:       resolvePath(getenv("LOG_FILE")),
	}, nil
}

func durationVar(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s %q must be positive", key, v)
	}
	return d, nil
}

func withDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func resolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	if filepath.IsAbs(p) {
		return p
	}

	if cwd, err := os.Getwd(); err == nil {
		return filepath.Clean(filepath.Join(cwd, p))
	}

	return p
}
