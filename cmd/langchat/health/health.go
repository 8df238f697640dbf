// Package healthcmder provides the health command, which checks that the
// langchat backend is reachable.
package healthcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/langchat/cmd/langchat/cmdutil"
	"github.com/papercomputeco/langchat/pkg/client"
	"github.com/papercomputeco/langchat/pkg/cliui"
	"github.com/papercomputeco/langchat/pkg/config"
)

type healthCommander struct {
	target   string
	basePath string
	timeout  time.Duration
	raw      bool

	client *client.Client
	logger *slog.Logger
}

var healthFlags = []string{
	config.FlagTarget,
	config.FlagBasePath,
	config.FlagTimeout,
}

const healthLongDesc string = `Check that the langchat backend is up.

Calls GET {base}/health and reports the backend status and version.
With --raw the JSON body is printed exactly as the backend sent it.

Examples:
  langchat health
  langchat health --target http://chat.internal:8080
  langchat health --raw`

const healthShortDesc string = "Check the langchat backend health"

func NewHealthCmd() *cobra.Command {
	cmder := &healthCommander{}

	cmd := &cobra.Command{
		Use:   "health",
		Short: healthShortDesc,
		Long:  healthLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := cmdutil.InitViper(cmd, healthFlags)
			if err != nil {
				return err
			}

			log, closeLog, err := cmdutil.NewLogger(cmd, v)
			if err != nil {
				return err
			}
			defer closeLog()
			cmder.logger = log

			cmder.client, err = cmdutil.NewClient(v, log)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagBasePath, &cmder.basePath)
	config.AddDurationFlag(cmd, config.ClientFlags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the health JSON unmodified")

	return cmd
}

func (c *healthCommander) run(ctx context.Context, out io.Writer) error {
	var raw json.RawMessage
	check := func() error {
		var err error
		raw, err = c.client.Health(ctx)
		return err
	}

	if c.raw {
		if err := check(); err != nil {
			return err
		}
		fmt.Fprintln(out, string(raw))
		return nil
	}

	fmt.Fprintln(out)
	err := cliui.Step(out, "Checking "+c.client.BaseURL(), check)
	if err != nil {
		fmt.Fprintln(out)
		return err
	}

	health, err := client.ParseHealth(raw)
	if err != nil {
		c.logger.Debug("health body is not a health report", "error", err)
		fmt.Fprintf(out, "\n  %s\n\n", string(raw))
		return nil
	}

	fmt.Fprintf(out, "\n  %s %s\n", cliui.KeyStyle.Render("Status: "), cliui.ValueStyle.Render(health.Status))
	if health.Version != "" {
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Version:"), cliui.ValueStyle.Render(health.Version))
	}
	fmt.Fprintln(out)

	return nil
}
