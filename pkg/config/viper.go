package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/langchat/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable override. The API base path
// override, for example, is LANGCHAT_CLIENT_BASE_PATH.
const EnvPrefix = "LANGCHAT"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the LANGCHAT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (LANGCHAT_CLIENT_TARGET, LANGCHAT_CLIENT_BASE_PATH, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: LANGCHAT_CLIENT_BASE_PATH, LANGCHAT_HISTORY_DRIVER, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Client
	v.SetDefault("client.target", d.Client.Target)
	v.SetDefault("client.base_path", d.Client.BasePath)
	v.SetDefault("client.enable_skills", *d.Client.EnableSkills)
	v.SetDefault("client.enable_mcp", *d.Client.EnableMCP)
	v.SetDefault("client.timeout", d.Client.Timeout)

	// History
	v.SetDefault("history.driver", d.History.Driver)
	v.SetDefault("history.sqlite_path", d.History.SQLitePath)
	v.SetDefault("history.postgres_dsn", d.History.PostgresDSN)

	// Log
	v.SetDefault("log.json", d.Log.JSON)
}
