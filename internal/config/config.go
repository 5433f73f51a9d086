package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Sync     SyncConfig     `yaml:"sync"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	// Endpoint switches to an S3-compatible provider; an http:// URL
	// gives plain-HTTP access.
	Endpoint string `yaml:"endpoint"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// SyncConfig holds the tunable grouping and dedup heuristics.
// CoordTolerance is the per-axis coordinate threshold in degrees used
// both for location matching and for duplicate suppression;
// DedupWindowSeconds bounds the createdAt distance of the
// similarity-based dedup check.
type SyncConfig struct {
	CoordTolerance     float64 `yaml:"coord_tolerance"`
	DedupWindowSeconds int     `yaml:"dedup_window_seconds"`
}

// DedupWindow returns the dedup window as a duration.
func (c *SyncConfig) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowSeconds) * time.Second
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Sync.applyDefaults()

	return &cfg, nil
}

func (c *SyncConfig) applyDefaults() {
	if c.CoordTolerance <= 0 {
		c.CoordTolerance = 0.0001
	}
	if c.DedupWindowSeconds <= 0 {
		c.DedupWindowSeconds = 60
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
