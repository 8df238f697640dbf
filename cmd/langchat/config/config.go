// Package configcmder provides the config command for managing persistent
// langchat configuration stored in the .langchat/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent langchat configuration.

Configuration is stored as config.toml in the .langchat/ directory and provides
default values for command flags. CLI flags and LANGCHAT_ environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.target, client.base_path, client.enable_skills,
  client.enable_mcp, client.timeout,
  history.driver, history.sqlite_path, history.postgres_dsn,
  log.json

Use subcommands to get, set, or list configuration values:
  langchat config set <key> <value>    Set a configuration value
  langchat config get <key>            Get a configuration value
  langchat config list                 List all configuration values

Examples:
  langchat config set client.target http://chat.internal:8080
  langchat config set client.enable_mcp true
  langchat config get client.base_path
  langchat config list`

const configShortDesc string = "Manage persistent langchat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
