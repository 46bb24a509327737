package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `yaml:"service_name"`
	HTTPPort    string `yaml:"http_port"`
	PostgresDSN string `yaml:"postgres_dsn"`

	// Defaults applied when a batch request omits its own policy values.
	BatchMaxRequests  int    `yaml:"batch_max_requests"`
	BatchTimeWindowMS int    `yaml:"batch_time_window_ms"`
	BatchMaxRetries   int    `yaml:"batch_max_retries"`
	BatchRetryDelayMS int    `yaml:"batch_retry_delay_ms"`
	HistoryListLimit  int    `yaml:"history_list_limit"`
	RetentionDays     int    `yaml:"retention_days"`
	RetentionCron     string `yaml:"retention_cron"`
}

// Load reads an optional YAML file (CONFIG_PATH, default config.yaml) and then
// applies environment overrides. Env always wins over file values.
func Load() (Config, error) {
	cfg := Config{
		ServiceName:       "warden",
		HTTPPort:          "8080",
		BatchMaxRequests:  5,
		BatchTimeWindowMS: 1000,
		BatchMaxRetries:   2,
		BatchRetryDelayMS: 2000,
		HistoryListLimit:  50,
		RetentionDays:     30,
		RetentionCron:     "0 3 * * *",
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	envOverride(&cfg.ServiceName, "SERVICE_NAME")
	envOverride(&cfg.HTTPPort, "HTTP_PORT")
	envOverride(&cfg.PostgresDSN, "POSTGRES_DSN")
	envOverride(&cfg.RetentionCron, "RETENTION_CRON")
	if err := envOverrideInt(&cfg.BatchMaxRequests, "BATCH_MAX_REQUESTS"); err != nil {
		return Config{}, err
	}
	if err := envOverrideInt(&cfg.BatchTimeWindowMS, "BATCH_TIME_WINDOW_MS"); err != nil {
		return Config{}, err
	}
	if err := envOverrideInt(&cfg.BatchMaxRetries, "BATCH_MAX_RETRIES"); err != nil {
		return Config{}, err
	}
	if err := envOverrideInt(&cfg.BatchRetryDelayMS, "BATCH_RETRY_DELAY_MS"); err != nil {
		return Config{}, err
	}
	if err := envOverrideInt(&cfg.HistoryListLimit, "HISTORY_LIST_LIMIT"); err != nil {
		return Config{}, err
	}
	if err := envOverrideInt(&cfg.RetentionDays, "RETENTION_DAYS"); err != nil {
		return Config{}, err
	}

	cfg.ServiceName = strings.TrimSpace(cfg.ServiceName)
	if cfg.ServiceName == "" {
		cfg.ServiceName = "warden"
	}
	return cfg, nil
}

// BatchTimeWindow returns the default rate-limit window as a duration.
func (c Config) BatchTimeWindow() time.Duration {
	return time.Duration(c.BatchTimeWindowMS) * time.Millisecond
}

// BatchRetryDelay returns the default retry delay as a duration.
func (c Config) BatchRetryDelay() time.Duration {
	return time.Duration(c.BatchRetryDelayMS) * time.Millisecond
}

func envOverride(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func envOverrideInt(target *int, key string) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*target = parsed
	return nil
}
