package cmdutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/papercomputeco/langchat/pkg/config"
	"github.com/papercomputeco/langchat/pkg/dotdir"
	"github.com/papercomputeco/langchat/pkg/history"
	"github.com/papercomputeco/langchat/pkg/history/inmemory"
	"github.com/papercomputeco/langchat/pkg/history/sqldriver"
)

const historyFile = "history.sqlite"

// HistoryOptions selects and configures a history backend.
type HistoryOptions struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string

	// ConfigDir is the --config-dir override, used to place the default
	// SQLite database.
	ConfigDir string
}

// HistoryOptionsFromViper reads the history.* keys from v.
func HistoryOptionsFromViper(v *viper.Viper, configDir string) HistoryOptions {
	return HistoryOptions{
		Driver:      v.GetString("history.driver"),
		SQLitePath:  v.GetString("history.sqlite_path"),
		PostgresDSN: v.GetString("history.postgres_dsn"),
		ConfigDir:   configDir,
	}
}

// OpenHistory opens the configured history driver.
func OpenHistory(ctx context.Context, opts HistoryOptions, log *slog.Logger) (history.Driver, error) {
	switch opts.Driver {
	case config.HistoryDriverMemory:
		log.Debug("using in-memory history")
		return inmemory.NewDriver(), nil

	case config.HistoryDriverPostgres:
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("history driver %q requires history.postgres_dsn", opts.Driver)
		}
		driver, err := sqldriver.NewPostgresDriver(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL history: %w", err)
		}
		log.Debug("using PostgreSQL history")
		return driver, nil

	case config.HistoryDriverSQLite, "":
		path, err := ResolveSQLitePath(opts.SQLitePath, opts.ConfigDir)
		if err != nil {
			return nil, err
		}
		driver, err := sqldriver.NewSQLiteDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite history: %w", err)
		}
		log.Debug("using SQLite history", "path", path)
		return driver, nil

	default:
		return nil, fmt.Errorf("unknown history driver %q (available: memory, sqlite, postgres)", opts.Driver)
	}
}

// ResolveSQLitePath returns the history database path. Order of precedence:
//  1. Explicit override
//  2. history.sqlite in the --config-dir override
//  3. An existing ./.langchat/history.sqlite or ~/.langchat/history.sqlite
//  4. history.sqlite in the resolved .langchat/ directory, created if missing
func ResolveSQLitePath(override, configDir string) (string, error) {
	if override != "" {
		if override != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(override), 0o755); err != nil {
				return "", fmt.Errorf("creating history directory: %w", err)
			}
		}
		return override, nil
	}

	if configDir == "" {
		for _, candidate := range sqliteCandidates() {
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	dir, err := dotdir.NewManager().Ensure(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving history directory: %w", err)
	}

	return filepath.Join(dir, historyFile), nil
}

func sqliteCandidates() []string {
	candidates := []string{
		filepath.Join(".langchat", historyFile),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".langchat", historyFile))
	}

	return candidates
}
