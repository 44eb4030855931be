// Package config loads the service configuration from the environment, an optional .env file
// and an optional YAML overlay.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/prefect-field/jobtrack/internal/constants"
	"github.com/prefect-field/jobtrack/internal/logger"
)

// Defaults
const (
	DefaultServerPort     = "8080"
	DefaultDBDriver       = "postgres"
	DefaultDBPath         = "jobtrack.db"
	DefaultTokenTTL       = 12 * time.Hour
	DefaultAdminUsername  = "admin"
	DefaultRejectPolicy   = "rework"
	DefaultPollInterval   = 3 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

// Config is the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	LogLevel  string          `yaml:"log_level"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig holds the record store settings
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Path     string `yaml:"path"`
}

// AuthConfig holds credential and token settings
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminUsername string        `yaml:"admin_username"`
	AdminPassword string        `yaml:"admin_password"`
}

// WorkflowConfig holds job lifecycle settings
type WorkflowConfig struct {
	// RejectPolicy is "rework" (back to Pending) or "terminal" (Rejected)
	RejectPolicy string `yaml:"reject_policy"`
}

// DashboardConfig holds polling settings shared by every role
type DashboardConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Load builds the configuration. A .env file in the working directory is loaded first if present,
// then the environment is read, then the YAML file named by JOBTRACK_CONFIG (if any) is applied on top.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if path := os.Getenv(constants.EnvConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the configuration from environment variables only
func FromEnv() (*Config, error) {
	dbPort, err := strconv.Atoi(GetEnv(constants.EnvDBPort, "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", constants.EnvDBPort, err)
	}
	tokenTTL, err := durationEnv(constants.EnvTokenTTL, DefaultTokenTTL)
	if err != nil {
		return nil, err
	}
	pollInterval, err := durationEnv(constants.EnvPollInterval, DefaultPollInterval)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := durationEnv(constants.EnvRequestTimeout, DefaultRequestTimeout)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port: GetEnv(constants.EnvServerPort, DefaultServerPort),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(GetEnv(constants.EnvDBDriver, DefaultDBDriver)),
			Host:     GetEnv(constants.EnvDBHost, ""),
			Port:     dbPort,
			User:     GetEnv(constants.EnvDBUser, ""),
			Password: GetEnv(constants.EnvDBPassword, ""),
			Name:     GetEnv(constants.EnvDBName, ""),
			SSLMode:  GetEnv(constants.EnvDBSSLMode, "disable"),
			Path:     GetEnv(constants.EnvDBPath, DefaultDBPath),
		},
		Auth: AuthConfig{
			JWTSecret:     GetEnv(constants.EnvJWTSecret, ""),
			TokenTTL:      tokenTTL,
			AdminUsername: GetEnv(constants.EnvAdminUsername, DefaultAdminUsername),
			AdminPassword: GetEnv(constants.EnvAdminPassword, ""),
		},
		Workflow: WorkflowConfig{
			RejectPolicy: strings.ToLower(GetEnv(constants.EnvRejectPolicy, DefaultRejectPolicy)),
		},
		Dashboard: DashboardConfig{
			PollInterval:   pollInterval,
			RequestTimeout: requestTimeout,
		},
		LogLevel: GetEnv(constants.EnvLogLevel, "info"),
	}, nil
}

// applyFile overlays non-zero values from a YAML file
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	// Decoding into the populated struct keeps every key the file does not mention.
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	c.Workflow.RejectPolicy = strings.ToLower(c.Workflow.RejectPolicy)
	return nil
}

// Validate checks the configuration. Without JWT_SECRET a random secret is generated, so
// sessions do not survive a restart.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	switch c.Workflow.RejectPolicy {
	case "rework", "terminal":
	default:
		return fmt.Errorf("unsupported reject policy: %q", c.Workflow.RejectPolicy)
	}
	if c.Dashboard.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Dashboard.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("%s is not set and no secret could be generated: %w", constants.EnvJWTSecret, err)
		}
		logger.Warnf("%s is not set, sessions are signed with a per-process secret", constants.EnvJWTSecret)
		c.Auth.JWTSecret = secret
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
