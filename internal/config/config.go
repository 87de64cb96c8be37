package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	pkgerrors "github.com/obsops/fleetbrief/internal/errors"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultProblemWindow  = 24 * time.Hour
)

// Config holds everything the pipeline needs for one run. It is built once at
// startup, validated before any network activity, and passed by value into
// component constructors; there is no global configuration state.
type Config struct {
	// Monitoring platform
	TenantURL string // tenant base URL, e.g. https://abc123.live.example.com
	APIToken  string // bearer-style API token

	// Delivery
	Recipient  string // phone number or messaging account identifier
	ReportsDir string // fallback report directory

	// Analysis
	ProblemWindow  time.Duration // trailing window for problem aggregation
	RequestTimeout time.Duration // per-request HTTP timeout

	// Operational
	HistoryPath string // sqlite run archive; empty disables history
	LogFile     string
	LogLevel    string
	LogFormat   string
}

// Load builds a Config from an optional env file plus process environment.
// Environment variables win over file values that godotenv has not already
// set. A missing envFile is only an error when the path was given explicitly.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, pkgerrors.NewConfigError("load_env_file", fmt.Errorf("read %s: %w", envFile, err))
		}
		log.Debug().Str("path", envFile).Msg("Loaded environment file")
	} else if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env from working directory")
	}

	home, _ := os.UserHomeDir()

	cfg := Config{
		TenantURL:      getenv("FLEETBRIEF_TENANT_URL"),
		APIToken:       getenv("FLEETBRIEF_API_TOKEN"),
		Recipient:      getenv("FLEETBRIEF_RECIPIENT"),
		ReportsDir:     getenv("FLEETBRIEF_REPORTS_DIR"),
		HistoryPath:    getenv("FLEETBRIEF_HISTORY_PATH"),
		LogFile:        getenv("FLEETBRIEF_LOG_FILE"),
		LogLevel:       getenv("FLEETBRIEF_LOG_LEVEL"),
		LogFormat:      getenv("FLEETBRIEF_LOG_FORMAT"),
		ProblemWindow:  defaultProblemWindow,
		RequestTimeout: defaultRequestTimeout,
	}

	if raw := getenv("FLEETBRIEF_PROBLEM_WINDOW"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return Config{}, pkgerrors.NewConfigError("parse_problem_window", fmt.Errorf("invalid FLEETBRIEF_PROBLEM_WINDOW %q", raw))
		}
		cfg.ProblemWindow = parsed
	}

	if raw := getenv("FLEETBRIEF_REQUEST_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return Config{}, pkgerrors.NewConfigError("parse_request_timeout", fmt.Errorf("invalid FLEETBRIEF_REQUEST_TIMEOUT %q", raw))
		}
		cfg.RequestTimeout = parsed
	}

	if cfg.ReportsDir == "" && home != "" {
		cfg.ReportsDir = filepath.Join(home, ".fleetbrief", "reports")
	}
	if cfg.HistoryPath == "" && home != "" {
		cfg.HistoryPath = filepath.Join(home, ".fleetbrief", "history.db")
	}

	return cfg, nil
}

// Validate rejects missing or malformed startup configuration. It runs before
// the pipeline so a bad config never reaches the network.
func (c Config) Validate() error {
	if c.TenantURL == "" {
		return pkgerrors.NewConfigError("validate", fmt.Errorf("FLEETBRIEF_TENANT_URL is required"))
	}

	parsed, err := url.Parse(c.TenantURL)
	if err != nil || parsed.Host == "" {
		return pkgerrors.NewConfigError("validate", fmt.Errorf("FLEETBRIEF_TENANT_URL %q is not a valid URL", c.TenantURL))
	}
	switch parsed.Scheme {
	case "https":
	case "http":
		log.Warn().Str("url", c.TenantURL).Msg("Tenant URL uses plain HTTP - consider HTTPS")
	default:
		return pkgerrors.NewConfigError("validate", fmt.Errorf("FLEETBRIEF_TENANT_URL %q must use http or https", c.TenantURL))
	}

	if c.APIToken == "" {
		return pkgerrors.NewConfigError("validate", fmt.Errorf("FLEETBRIEF_API_TOKEN is required"))
	}
	if c.Recipient == "" {
		return pkgerrors.NewConfigError("validate", fmt.Errorf("FLEETBRIEF_RECIPIENT is required"))
	}
	if c.ReportsDir == "" {
		return pkgerrors.NewConfigError("validate", fmt.Errorf("reports directory could not be resolved"))
	}

	return nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
