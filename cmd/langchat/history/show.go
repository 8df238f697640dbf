package historycmder

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/langchat/pkg/cliui"
	"github.com/papercomputeco/langchat/pkg/history"
)

const showLongDesc string = `Show one recorded chat turn in full.

Examples:
  langchat history show 0b6e2a1c-5f0d-4c59-9c51-7f5a3a9a1f10`

const showShortDesc string = "Show one recorded chat turn"

type showCommander struct {
	store storeFlags
}

func newShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer driver.Close()

			turn, err := driver.Get(cmd.Context(), args[0])
			if err != nil {
				var notFound history.ErrNotFound
				if errors.As(err, &notFound) {
					return fmt.Errorf("no turn with ID %q", notFound.ID)
				}
				return fmt.Errorf("reading history: %w", err)
			}

			printTurn(cmd.OutOrStdout(), turn)
			return nil
		},
	}

	cmder.store.register(cmd)

	return cmd
}

func printTurn(out io.Writer, turn *history.Turn) {
	field := func(key, value string) {
		fmt.Fprintf(out, "  %-11s %s\n", cliui.KeyStyle.Render(key), value)
	}

	fmt.Fprintln(out)
	field("ID:", cliui.IDStyle.Render(turn.ID))
	field("Session:", turn.SessionID)
	field("Started:", turn.StartedAt.Local().Format("2006-01-02 15:04:05"))
	field("Duration:", cliui.FormatDuration(turn.Duration()))
	field("Streamed:", strconv.FormatBool(turn.Streamed))
	field("Skills:", strconv.FormatBool(turn.EnableSkills))
	field("MCP:", strconv.FormatBool(turn.EnableMCP))
	if turn.Error != "" {
		field("Error:", cliui.ErrorStyle.Render(turn.Error))
	}

	fmt.Fprintf(out, "\n  %s\n%s\n", cliui.KeyStyle.Render("Message"), turn.Message)
	fmt.Fprintf(out, "\n  %s\n%s\n\n", cliui.KeyStyle.Render("Response"), turn.Response)
}
