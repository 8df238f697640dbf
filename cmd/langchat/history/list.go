package historycmder

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/langchat/pkg/cliui"
	"github.com/papercomputeco/langchat/pkg/history"
	"github.com/papercomputeco/langchat/pkg/utils"
)

const listLongDesc string = `List recorded chat turns, newest first.

Each line shows the turn ID, when it started, how long it took, and a
preview of the message and reply. Failed turns are marked with ✗.

Examples:
  langchat history list
  langchat history list --limit 5
  langchat history list --session 4f1c2d9e-...`

const listShortDesc string = "List recorded chat turns"

type listCommander struct {
	store   storeFlags
	limit   int
	session string
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			driver, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer driver.Close()

			turns, err := driver.List(cmd.Context(), history.ListOptions{
				SessionID: cmder.session,
				Limit:     cmder.limit,
			})
			if err != nil {
				return fmt.Errorf("listing history: %w", err)
			}

			printTurns(cmd.OutOrStdout(), turns)
			return nil
		},
	}

	cmder.store.register(cmd)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of turns to show (0 for all)")
	cmd.Flags().StringVar(&cmder.session, "session", "", "Only show turns from this session")

	return cmd
}

func printTurns(out io.Writer, turns []*history.Turn) {
	if len(turns) == 0 {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No chat history yet."))
		return
	}

	fmt.Fprintln(out)
	for _, turn := range turns {
		var failed error
		if turn.Error != "" {
			failed = errors.New(turn.Error)
		}

		fmt.Fprintf(out, "  %s %s %s %s\n",
			cliui.Mark(failed),
			cliui.IDStyle.Render(turn.ID),
			cliui.DimStyle.Render(turn.StartedAt.Local().Format("2006-01-02 15:04:05")),
			cliui.StepStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(turn.Duration()))),
		)
		fmt.Fprintf(out, "    %s %s\n",
			cliui.KeyStyle.Render("you:"),
			utils.Truncate(utils.OneLine(turn.Message), 72),
		)
		reply := turn.Response
		if turn.Error != "" && reply == "" {
			reply = cliui.ErrorStyle.Render(turn.Error)
		}
		fmt.Fprintf(out, "    %s %s\n\n",
			cliui.KeyStyle.Render("assistant:"),
			utils.Truncate(utils.OneLine(reply), 72),
		)
	}
}
