package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ligustah/diario/internal/downloader"
	"github.com/ligustah/diario/internal/index"
	"github.com/ligustah/diario/internal/sidecar"
)

// Config defines configuration for the diario CLI.
type Config struct {
	IndexURL          string        `yaml:"index_url"`
	Entity            string        `yaml:"entity"`
	FileURLTemplate   string        `yaml:"file_url_template"`
	Storage           string        `yaml:"storage"`
	PDFDir            string        `yaml:"pdf_dir"`
	SidecarDir        string        `yaml:"sidecar_dir"`
	Workers           int           `yaml:"workers"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Progress          bool          `yaml:"progress"`
	Retry             RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry behavior for index requests.
type RetryConfig struct {
	// Attempts is the number of retries after the first request. 0 disables
	// retrying.
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
	Statuses   []int         `yaml:"statuses"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		IndexURL:        index.DefaultURL,
		Entity:          index.DefaultEntity,
		FileURLTemplate: downloader.DefaultURLTemplate,
		Storage:         ".",
		PDFDir:          "pdfs",
		SidecarDir:      sidecar.DefaultDir,
		Workers:         10,
		Timeout:         60 * time.Second,
		Retry: RetryConfig{
			Attempts:   5,
			Backoff:    10 * time.Second,
			MaxBackoff: 2 * time.Minute,
			Statuses:   []int{400},
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	IndexURL          string          `yaml:"index_url"`
	Entity            string          `yaml:"entity"`
	FileURLTemplate   string          `yaml:"file_url_template"`
	Storage           string          `yaml:"storage"`
	PDFDir            string          `yaml:"pdf_dir"`
	SidecarDir        string          `yaml:"sidecar_dir"`
	Workers           int             `yaml:"workers"`
	Timeout           string          `yaml:"timeout"`
	RequestsPerSecond float64         `yaml:"requests_per_second"`
	Progress          bool            `yaml:"progress"`
	Retry             yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   *int   `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
	Statuses   []int  `yaml:"statuses"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.IndexURL != "" {
		cfg.IndexURL = yc.IndexURL
	}
	if yc.Entity != "" {
		cfg.Entity = yc.Entity
	}
	if yc.FileURLTemplate != "" {
		cfg.FileURLTemplate = yc.FileURLTemplate
	}
	if yc.Storage != "" {
		cfg.Storage = yc.Storage
	}
	if yc.PDFDir != "" {
		cfg.PDFDir = yc.PDFDir
	}
	if yc.SidecarDir != "" {
		cfg.SidecarDir = yc.SidecarDir
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.RequestsPerSecond != 0 {
		cfg.RequestsPerSecond = yc.RequestsPerSecond
	}
	cfg.Progress = yc.Progress
	if yc.Retry.Attempts != nil {
		cfg.Retry.Attempts = *yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}
	if len(yc.Retry.Statuses) > 0 {
		cfg.Retry.Statuses = yc.Retry.Statuses
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the DIARIO_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("DIARIO_INDEX_URL"); v != "" {
		c.IndexURL = v
	}
	if v := os.Getenv("DIARIO_ENTITY"); v != "" {
		c.Entity = v
	}
	if v := os.Getenv("DIARIO_FILE_URL_TEMPLATE"); v != "" {
		c.FileURLTemplate = v
	}
	if v := os.Getenv("DIARIO_STORAGE"); v != "" {
		c.Storage = v
	}
	if v := os.Getenv("DIARIO_PDF_DIR"); v != "" {
		c.PDFDir = v
	}
	if v := os.Getenv("DIARIO_SIDECAR_DIR"); v != "" {
		c.SidecarDir = v
	}
	if v := os.Getenv("DIARIO_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DIARIO_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("DIARIO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse DIARIO_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("DIARIO_REQUESTS_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse DIARIO_REQUESTS_PER_SECOND: %w", err)
		}
		c.RequestsPerSecond = f
	}
	if v := os.Getenv("DIARIO_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("DIARIO_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DIARIO_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("DIARIO_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse DIARIO_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("DIARIO_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse DIARIO_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}
	if v := os.Getenv("DIARIO_RETRY_STATUSES"); v != "" {
		statuses, err := ParseStatuses(v)
		if err != nil {
			return fmt.Errorf("parse DIARIO_RETRY_STATUSES: %w", err)
		}
		c.Retry.Statuses = statuses
	}

	return nil
}

// ParseStatuses parses a comma-separated list of HTTP status codes.
func ParseStatuses(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if n < 100 || n > 599 {
			return nil, fmt.Errorf("status %d out of range", n)
		}
		out = append(out, n)
	}
	return out, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.IndexURL == "" {
		return errors.New("config: index_url is required")
	}
	if c.Entity == "" {
		return errors.New("config: entity is required")
	}
	if c.FileURLTemplate == "" {
		return errors.New("config: file_url_template is required")
	}
	if strings.Count(strings.ReplaceAll(c.FileURLTemplate, "%%", ""), "%") != 1 {
		return errors.New("config: file_url_template must contain exactly one verb for the edition number")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.Retry.Attempts < 0 {
		return errors.New("config: retry.attempts must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("config: requests_per_second must not be negative")
	}
	if c.PDFDir == c.SidecarDir {
		return errors.New("config: pdf_dir and sidecar_dir must differ")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.IndexURL != "" {
		c.IndexURL = override.IndexURL
	}
	if override.Entity != "" {
		c.Entity = override.Entity
	}
	if override.FileURLTemplate != "" {
		c.FileURLTemplate = override.FileURLTemplate
	}
	if override.Storage != "" {
		c.Storage = override.Storage
	}
	if override.PDFDir != "" {
		c.PDFDir = override.PDFDir
	}
	if override.SidecarDir != "" {
		c.SidecarDir = override.SidecarDir
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.RequestsPerSecond != 0 {
		c.RequestsPerSecond = override.RequestsPerSecond
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	if len(override.Retry.Statuses) > 0 {
		c.Retry.Statuses = override.Retry.Statuses
	}
	return c
}
