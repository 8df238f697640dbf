// Package langchatcmder
package langchatcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/langchat/cmd/langchat/chat"
	configcmder "github.com/papercomputeco/langchat/cmd/langchat/config"
	healthcmder "github.com/papercomputeco/langchat/cmd/langchat/health"
	historycmder "github.com/papercomputeco/langchat/cmd/langchat/history"
	versioncmder "github.com/papercomputeco/langchat/cmd/version"
)

const langchatLongDesc string = `langchat is a command line client for the langchat chat backend.

Talk to the backend using:
  langchat health            Check the backend is up
  langchat chat              Chat, streaming replies as they arrive
  langchat history list      Browse past turns

Settings are read from .langchat/config.toml (see "langchat config"), and
can be overridden with LANGCHAT_ environment variables such as
LANGCHAT_CLIENT_BASE_PATH, or with flags.`

const langchatShortDesc string = "langchat - chat backend client"

func NewLangchatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "langchat",
		Short:        langchatShortDesc,
		Long:         langchatLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .langchat/ config directory")
	cmd.PersistentFlags().String("log-file", "", "Also append JSON logs to this file")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(healthcmder.NewHealthCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
