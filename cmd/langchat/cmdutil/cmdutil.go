// Package cmdutil holds the wiring shared by langchat commands: viper
// initialisation, logger construction, and opening the client and history
// backends from resolved configuration.
package cmdutil

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/langchat/pkg/client"
	"github.com/papercomputeco/langchat/pkg/config"
	"github.com/papercomputeco/langchat/pkg/logger"
)

// InitViper loads configuration for cmd from the --config-dir persistent flag
// and binds the given registry flags so they take precedence.
func InitViper(cmd *cobra.Command, flagKeys []string) (*viper.Viper, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.ClientFlags, flagKeys)
	return v, nil
}

// NewLogger builds the command logger. Console output goes to cmd's stderr,
// pretty by default or JSON when log.json is set. When --log-file is given,
// records are also appended to it as JSON. The returned func closes the file.
func NewLogger(cmd *cobra.Command, v *viper.Viper) (*slog.Logger, func(), error) {
	debug, _ := cmd.Flags().GetBool("debug")
	logFile, _ := cmd.Flags().GetString("log-file")
	jsonLogs := v.GetBool("log.json")

	console := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(!jsonLogs),
		logger.WithJSON(jsonLogs),
		logger.WithWriter(cmd.ErrOrStderr()),
	)

	if logFile == "" {
		return console, func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)

	return logger.Multi(console, file), func() { _ = f.Close() }, nil
}

// NewClient creates a backend client from the client.* keys in v.
func NewClient(v *viper.Viper, log *slog.Logger) (*client.Client, error) {
	c, err := client.New(client.Config{
		Target:   v.GetString("client.target"),
		BasePath: v.GetString("client.base_path"),
		Timeout:  v.GetDuration("client.timeout"),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return c, nil
}
