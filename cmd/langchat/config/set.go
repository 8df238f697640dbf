package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/langchat/pkg/cliui"
	"github.com/papercomputeco/langchat/pkg/config"
	"github.com/papercomputeco/langchat/pkg/dotdir"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .langchat/ directory, creating ~/.langchat/ when no
directory exists yet. Keys use dotted notation matching the TOML
section structure.

Valid keys:
  client.target, client.base_path, client.enable_skills,
  client.enable_mcp, client.timeout,
  history.driver, history.sqlite_path, history.postgres_dsn,
  log.json

Examples:
  langchat config set client.target https://chat.example.com
  langchat config set client.base_path /v2/api
  langchat config set history.driver memory`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runSet(out io.Writer, key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	dir, err := dotdir.NewManager().Ensure(configDir)
	if err != nil {
		return fmt.Errorf("preparing config dir: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	printTarget(out, cfger.GetTarget())

	err = cfger.SetConfigValue(key, value)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
