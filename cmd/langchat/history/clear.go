package historycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/langchat/pkg/cliui"
)

const clearShortDesc string = "Delete every recorded chat turn"

type clearCommander struct {
	store storeFlags
}

func newClearCmd() *cobra.Command {
	cmder := &clearCommander{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: clearShortDesc,
		Long:  clearShortDesc + ".",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			driver, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer driver.Close()

			if err := driver.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clearing history: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s History cleared\n\n", cliui.SuccessMark)
			return nil
		},
	}

	cmder.store.register(cmd)

	return cmd
}
