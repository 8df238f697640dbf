package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent langchat configuration stored as config.toml
// in the .langchat/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Client  ClientConfig  `toml:"client"`
	History HistoryConfig `toml:"history"`
	Log     LogConfig     `toml:"log"`
}

// ClientConfig holds settings for talking to the langchat backend.
type ClientConfig struct {
	// Target is the scheme + host + port of the backend.
	Target string `toml:"target,omitempty"`

	// BasePath is joined onto Target to form the API base URL. An absolute
	// URL replaces Target entirely.
	BasePath string `toml:"base_path,omitempty"`

	// EnableSkills and EnableMCP are sent with every chat request. They are
	// pointers so an explicit false survives a round trip through the file.
	EnableSkills *bool `toml:"enable_skills,omitempty"`
	EnableMCP    *bool `toml:"enable_mcp,omitempty"`

	// Timeout bounds a whole request, including reading a stream.
	Timeout string `toml:"timeout,omitempty"`
}

// HistoryConfig holds settings for the local chat history.
type HistoryConfig struct {
	// Driver is one of "memory", "sqlite" or "postgres".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	JSON bool `toml:"json,omitempty"`
}

// Supported history drivers.
const (
	HistoryDriverMemory   = "memory"
	HistoryDriverSQLite   = "sqlite"
	HistoryDriverPostgres = "postgres"
)

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.target": {
		get: func(c *Config) string { return c.Client.Target },
		set: func(c *Config, v string) error { c.Client.Target = v; return nil },
	},
	"client.base_path": {
		get: func(c *Config) string { return c.Client.BasePath },
		set: func(c *Config, v string) error { c.Client.BasePath = v; return nil },
	},
	"client.enable_skills": {
		get: func(c *Config) string { return formatBoolPtr(c.Client.EnableSkills) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for client.enable_skills: %w", err)
			}
			c.Client.EnableSkills = &b
			return nil
		},
	},
	"client.enable_mcp": {
		get: func(c *Config) string { return formatBoolPtr(c.Client.EnableMCP) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for client.enable_mcp: %w", err)
			}
			c.Client.EnableMCP = &b
			return nil
		},
	},
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for client.timeout: %w", err)
			}
			c.Client.Timeout = v
			return nil
		},
	},
	"history.driver": {
		get: func(c *Config) string { return c.History.Driver },
		set: func(c *Config, v string) error {
			switch v {
			case HistoryDriverMemory, HistoryDriverSQLite, HistoryDriverPostgres:
				c.History.Driver = v
				return nil
			default:
				return fmt.Errorf("invalid value for history.driver: %q (available: memory, sqlite, postgres)", v)
			}
		},
	},
	"history.sqlite_path": {
		get: func(c *Config) string { return c.History.SQLitePath },
		set: func(c *Config, v string) error { c.History.SQLitePath = v; return nil },
	},
	"history.postgres_dsn": {
		get: func(c *Config) string { return c.History.PostgresDSN },
		set: func(c *Config, v string) error { c.History.PostgresDSN = v; return nil },
	},
	"log.json": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.JSON) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for log.json: %w", err)
			}
			c.Log.JSON = b
			return nil
		},
	},
}

func formatBoolPtr(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
