package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"

	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	APIURL      string        `envconfig:"CAKESHOP_API_URL"    default:"http://localhost:8080"`
	StateFile   string        `envconfig:"CAKESHOP_STATE_FILE"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT"        default:"0s"` // 0 means no client timeout
	LogLevel    string        `envconfig:"LOG_LEVEL"           default:"warn"`
	LogFormat   string        `envconfig:"LOG_FORMAT"          default:"text"`
	Color       string        `envconfig:"CAKESHOP_COLOR"      default:"auto"`
}

// LoadConfig is Load followed by Validate.
func LoadConfig(logger *logrus.Logger) (*Config, error) {
	cfg, err := Load(logger)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads .env from the working directory, if there is one, and then the
// process environment. Variables already set in the environment win over the
// file. The result is not validated so callers can apply overrides first.
func Load(logger *logrus.Logger) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Debug("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFile(logger)
	}

	logger.Debugf("Configuration loaded: API URL=%s, StateFile=%s, LogLevel=%s", cfg.APIURL, cfg.StateFile, cfg.LogLevel)
	return &cfg, nil
}

// DefaultStateFile is session.yaml under the user's config directory, or in
// the working directory when there is no such directory.
func DefaultStateFile(logger *logrus.Logger) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		logger.Warnf("No user config directory (%v), keeping the session next to the working directory", err)
		return ".cakeshop-session.yaml"
	}
	return filepath.Join(dir, "cakeshop", "session.yaml")
}

// Validate checks the values that can also be overridden by flags.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid API URL %q: %w", c.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL %q: must be an absolute http or https URL", c.APIURL)
	}

	switch strings.ToLower(c.Color) {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q: must be auto, always or never", c.Color)
	}

	switch strings.ToLower(c.LogFormat) {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", c.LogFormat)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("invalid HTTP timeout %s: cannot be negative", c.HTTPTimeout)
	}
	if c.StateFile == "" {
		return fmt.Errorf("state file path cannot be empty")
	}
	return nil
}

// NewLogger builds the application logger from the configured level and
// format. Logs never go to stdout, which is reserved for command output.
func (c *Config) NewLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
	if strings.ToLower(c.LogFormat) == FormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
