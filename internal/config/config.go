package config

import "time"

// Config is the root configuration for Overseer.
type Config struct {
	Server    ServerConfig       `yaml:"server"`
	Database  DatabaseConfig     `yaml:"database"`
	Ingest    IngestConfig       `yaml:"ingest"`
	MCP       MCPConfig          `yaml:"mcp"`
	Projects  map[string]Project `yaml:"projects"`
	RateLimit RateLimitConfig    `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// IngestConfig tunes the correlation engine.
type IngestConfig struct {
	// ConfidenceThreshold is the minimum binding confidence for
	// auto-completion. Bindings below it are never acted upon.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// NamingWindow bounds retroactive agent renames, measured against
	// event timestamps.
	NamingWindow time.Duration `yaml:"naming_window"`
}

type MCPConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Project maps a project id to the working directory tree it owns.
type Project struct {
	Path        string `yaml:"path"`
	Description string `yaml:"description"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8640,
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Path: "~/.config/overseer/overseer.db",
		},
		Ingest: IngestConfig{
			ConfidenceThreshold: 0.75,
			NamingWindow:        60 * time.Second,
		},
		MCP: MCPConfig{
			Enabled:  true,
			Debounce: 3 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 600,
			Burst:             200,
		},
	}
}
