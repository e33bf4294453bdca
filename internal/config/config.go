package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/claude/coachly/internal/periodize"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Tailscale  TailscaleConfig  `yaml:"tailscale"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Engine     EngineConfig     `yaml:"engine"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// ClassifierConfig points at an OpenAI-compatible chat completions API.
// Classification is disabled when APIKey is empty.
type ClassifierConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	FallbackModel  string `yaml:"fallback_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type EngineConfig struct {
	RoutinePolicy string `yaml:"routine_policy"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Enabled reports whether a classification service is configured.
func (c ClassifierConfig) Enabled() bool {
	return c.APIKey != ""
}

// Timeout returns the request timeout, defaulting to 60 seconds.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Policy returns the parsed routine policy. Load has already validated it.
func (e EngineConfig) Policy() periodize.RoutinePolicy {
	p, _ := periodize.ParseRoutinePolicy(e.RoutinePolicy)
	return p
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix COACHLY_ and underscore-separated paths:
//
//	COACHLY_SERVER_HOST, COACHLY_SERVER_PORT,
//	COACHLY_DB_HOST, COACHLY_DB_PORT, COACHLY_DB_NAME,
//	COACHLY_DB_USER, COACHLY_DB_PASSWORD, COACHLY_DB_SSLMODE,
//	COACHLY_AUTH_API_KEY,
//	COACHLY_TAILSCALE_ENABLED, COACHLY_TAILSCALE_HOSTNAME, COACHLY_TAILSCALE_STATE_DIR,
//	COACHLY_CLASSIFIER_BASE_URL, COACHLY_CLASSIFIER_API_KEY,
//	COACHLY_CLASSIFIER_MODEL, COACHLY_CLASSIFIER_FALLBACK_MODEL,
//	COACHLY_CLASSIFIER_TIMEOUT_SECONDS,
//	COACHLY_ENGINE_ROUTINE_POLICY
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("COACHLY_SERVER_HOST", &cfg.Server.Host)
	setInt("COACHLY_SERVER_PORT", &cfg.Server.Port)

	setString("COACHLY_DB_HOST", &cfg.Database.Host)
	setInt("COACHLY_DB_PORT", &cfg.Database.Port)
	setString("COACHLY_DB_NAME", &cfg.Database.Name)
	setString("COACHLY_DB_USER", &cfg.Database.User)
	setString("COACHLY_DB_PASSWORD", &cfg.Database.Password)
	setString("COACHLY_DB_SSLMODE", &cfg.Database.SSLMode)

	setString("COACHLY_AUTH_API_KEY", &cfg.Auth.APIKey)

	if v := os.Getenv("COACHLY_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	setString("COACHLY_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	setString("COACHLY_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)

	setString("COACHLY_CLASSIFIER_BASE_URL", &cfg.Classifier.BaseURL)
	setString("COACHLY_CLASSIFIER_API_KEY", &cfg.Classifier.APIKey)
	setString("COACHLY_CLASSIFIER_MODEL", &cfg.Classifier.Model)
	setString("COACHLY_CLASSIFIER_FALLBACK_MODEL", &cfg.Classifier.FallbackModel)
	setInt("COACHLY_CLASSIFIER_TIMEOUT_SECONDS", &cfg.Classifier.TimeoutSeconds)

	setString("COACHLY_ENGINE_ROUTINE_POLICY", &cfg.Engine.RoutinePolicy)
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Classifier.TimeoutSeconds < 0 {
		return fmt.Errorf("classifier.timeout_seconds must not be negative")
	}
	if _, err := periodize.ParseRoutinePolicy(c.Engine.RoutinePolicy); err != nil {
		return fmt.Errorf("engine.routine_policy: %w", err)
	}
	return nil
}
