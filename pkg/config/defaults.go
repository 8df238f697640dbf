package config

const (
	defaultClientTarget   = "http://localhost:8080"
	defaultClientBasePath = "/api"
	defaultEnableSkills   = true
	defaultEnableMCP      = false
	defaultClientTimeout  = "5m"

	defaultHistoryDriver = HistoryDriverSQLite
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
//
// history.sqlite_path has no static default: an empty path resolves to
// history.sqlite inside the .langchat/ directory at runtime.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			Target:       defaultClientTarget,
			BasePath:     defaultClientBasePath,
			EnableSkills: boolPtr(defaultEnableSkills),
			EnableMCP:    boolPtr(defaultEnableMCP),
			Timeout:      defaultClientTimeout,
		},
		History: HistoryConfig{
			Driver: defaultHistoryDriver,
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
