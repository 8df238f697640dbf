// Package historycmder provides the history command for browsing the chat
// turns recorded by "langchat chat".
package historycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/langchat/cmd/langchat/cmdutil"
	"github.com/papercomputeco/langchat/pkg/config"
	"github.com/papercomputeco/langchat/pkg/history"
)

var historyFlags = []string{
	config.FlagHistory,
	config.FlagSQLite,
	config.FlagPostgresDSN,
}

const historyLongDesc string = `Browse the local chat history.

Every turn sent with "langchat chat" is recorded with its reply, the request
flags, timing, and any error. Use subcommands to read it:
  langchat history list               List recent turns, newest first
  langchat history show <id>          Show one turn in full
  langchat history clear              Delete every recorded turn

Examples:
  langchat history list --limit 5
  langchat history list --session 4f1c
  langchat history show 0b6e2a1c-...`

const historyShortDesc string = "Browse the local chat history"

// storeFlags are the flags every history subcommand shares.
type storeFlags struct {
	driver      string
	sqlitePath  string
	postgresDSN string
}

func (s *storeFlags) register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagHistory, &s.driver)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagSQLite, &s.sqlitePath)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagPostgresDSN, &s.postgresDSN)
}

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newClearCmd())

	return cmd
}

// openStore resolves configuration for cmd and opens the history driver.
func openStore(cmd *cobra.Command) (history.Driver, error) {
	v, err := cmdutil.InitViper(cmd, historyFlags)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := cmdutil.NewLogger(cmd, v)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	configDir, _ := cmd.Flags().GetString("config-dir")
	driver, err := cmdutil.OpenHistory(cmd.Context(), cmdutil.HistoryOptionsFromViper(v, configDir), log)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}

	return driver, nil
}
