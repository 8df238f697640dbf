package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --target
// on both "langchat health" and "langchat chat").
type Flag struct {
	// Name is the long flag name (e.g. "target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "t"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag, AddDurationFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagTarget       = "target"
	FlagBasePath     = "base-path"
	FlagEnableSkills = "skills"
	FlagEnableMCP    = "mcp"
	FlagTimeout      = "timeout"
	FlagHistory      = "history"
	FlagSQLite       = "sqlite"
	FlagPostgresDSN  = "postgres-dsn"
)

// ClientFlags is the registry shared by every command that talks to the
// backend or reads the local history.
var ClientFlags = FlagSet{
	FlagTarget:       {Name: "target", Shorthand: "t", ViperKey: "client.target", Description: "langchat backend URL"},
	FlagBasePath:     {Name: "base-path", ViperKey: "client.base_path", Description: "API base path joined onto --target, or an absolute API URL"},
	FlagEnableSkills: {Name: "skills", ViperKey: "client.enable_skills", Description: "Ask the backend to enable skills"},
	FlagEnableMCP:    {Name: "mcp", ViperKey: "client.enable_mcp", Description: "Ask the backend to enable MCP tools"},
	FlagTimeout:      {Name: "timeout", ViperKey: "client.timeout", Description: "Timeout for a whole request, including a stream"},
	FlagHistory:      {Name: "history", ViperKey: "history.driver", Description: "History driver (memory, sqlite, postgres)"},
	FlagSQLite:       {Name: "sqlite", Shorthand: "s", ViperKey: "history.sqlite_path", Description: "Path to the SQLite history database (default: .langchat/history.sqlite)"},
	FlagPostgresDSN:  {Name: "postgres-dsn", ViperKey: "history.postgres_dsn", Description: "PostgreSQL connection string for the history database"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddDurationFlag registers a time.Duration flag on cmd from the given FlagSet.
func AddDurationFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *time.Duration) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultDuration(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().DurationVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().DurationVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}

// defaultDuration returns the default duration for a viper key from NewDefaultConfig.
func defaultDuration(viperKey string) time.Duration {
	v := viper.New()
	setViperDefaults(v)
	return v.GetDuration(viperKey)
}
