// Package chatcmder provides the chat command for talking to the langchat
// backend, either one message at a time or in an interactive session.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/langchat/cmd/langchat/cmdutil"
	"github.com/papercomputeco/langchat/pkg/client"
	"github.com/papercomputeco/langchat/pkg/cliui"
	"github.com/papercomputeco/langchat/pkg/config"
	"github.com/papercomputeco/langchat/pkg/history"
	"github.com/papercomputeco/langchat/pkg/history/recorder"
	"github.com/papercomputeco/langchat/pkg/sse"
	"github.com/papercomputeco/langchat/pkg/utils"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	target      string
	basePath    string
	timeout     time.Duration
	skills      bool
	mcp         bool
	historyName string
	sqlitePath  string
	postgresDSN string

	noStream    bool
	noHistory   bool
	markdown    bool
	interactive bool
	recordPath  string

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	client       *client.Client
	recorder     *recorder.Recorder
	decoderOpts  []sse.Option
	sessionID    string
	enableSkills bool
	enableMCP    bool
	logger       *slog.Logger
}

var chatFlags = []string{
	config.FlagTarget,
	config.FlagBasePath,
	config.FlagTimeout,
	config.FlagEnableSkills,
	config.FlagEnableMCP,
	config.FlagHistory,
	config.FlagSQLite,
	config.FlagPostgresDSN,
}

const chatLongDesc string = `Chat with the langchat backend.

With a message argument, or with a message piped on stdin, one message is
sent and the reply is printed. Otherwise an interactive session starts:
type a message and press Enter, /exit or Ctrl+D to quit.

Replies are streamed as they are generated. Use --no-stream to wait for the
complete reply instead. Server-side errors reported inside the stream are
printed to stderr and the session continues.

Every turn is recorded to the local history (see "langchat history").

Examples:
  langchat chat "What is the capital of France?"
  echo "Summarise this" | langchat chat
  langchat chat --mcp --no-stream
  langchat chat --record stream.log "hello"`

const chatShortDesc string = "Chat with the langchat backend"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := cmdutil.InitViper(cmd, chatFlags)
			if err != nil {
				return err
			}

			log, closeLog, err := cmdutil.NewLogger(cmd, v)
			if err != nil {
				return err
			}
			defer closeLog()

			cmder.logger = log
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			cmder.enableSkills = v.GetBool("client.enable_skills")
			cmder.enableMCP = v.GetBool("client.enable_mcp")

			cmder.client, err = cmdutil.NewClient(v, log)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if !cmder.noHistory {
				configDir, _ := cmd.Flags().GetString("config-dir")
				driver, err := cmdutil.OpenHistory(ctx, cmdutil.HistoryOptionsFromViper(v, configDir), log)
				if err != nil {
					return err
				}
				defer driver.Close()

				cmder.recorder, err = recorder.New(&recorder.Config{
					Driver: driver,
					Logger: log,
				})
				if err != nil {
					return fmt.Errorf("creating history recorder: %w", err)
				}
				defer cmder.recorder.Close()
			}

			if cmder.recordPath != "" {
				f, err := os.Create(cmder.recordPath)
				if err != nil {
					return fmt.Errorf("creating record file: %w", err)
				}
				defer f.Close()
				cmder.decoderOpts = append(cmder.decoderOpts, sse.WithTee(f))
			}

			return cmder.run(ctx, args)
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagBasePath, &cmder.basePath)
	config.AddDurationFlag(cmd, config.ClientFlags, config.FlagTimeout, &cmder.timeout)
	config.AddBoolFlag(cmd, config.ClientFlags, config.FlagEnableSkills, &cmder.skills)
	config.AddBoolFlag(cmd, config.ClientFlags, config.FlagEnableMCP, &cmder.mcp)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagHistory, &cmder.historyName)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagPostgresDSN, &cmder.postgresDSN)

	cmd.Flags().BoolVar(&cmder.noStream, "no-stream", false, "Wait for the complete reply instead of streaming it")
	cmd.Flags().BoolVar(&cmder.noHistory, "no-history", false, "Do not record turns to the local history")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render the reply as markdown once it is complete")
	cmd.Flags().BoolVarP(&cmder.interactive, "interactive", "i", false, "Start an interactive session even when stdin is not a terminal")
	cmd.Flags().StringVar(&cmder.recordPath, "record", "", "Copy the raw response stream to this file")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, args []string) error {
	c.sessionID = history.NewSessionID()

	if c.markdown && !c.stylable() {
		c.logger.Debug("output is not a styled terminal, markdown rendering disabled")
		c.markdown = false
	}

	if len(args) > 0 {
		_, err := c.send(ctx, strings.Join(args, " "))
		return err
	}

	if !c.interactive && !c.stdinIsTerminal() {
		data, err := io.ReadAll(c.in)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		message := strings.TrimSpace(string(data))
		if message == "" {
			return errors.New("no message given: pass one as an argument or on stdin")
		}

		_, err = c.send(ctx, message)
		return err
	}

	return c.repl(ctx)
}

func (c *chatCommander) repl(ctx context.Context) error {
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s\n",
		cliui.KeyStyle.Render("Backend:"),
		cliui.NameStyle.Render(c.client.BaseURL()),
	)
	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Session:"),
		cliui.IDStyle.Render(utils.Truncate(c.sessionID, 8)),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		if _, err := c.send(ctx, input); err != nil {
			fmt.Fprintf(c.errOut, "  %s %v\n", cliui.FailMark, err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		fmt.Fprintln(c.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// send delivers one message, prints the reply and records the turn.
func (c *chatCommander) send(ctx context.Context, message string) (string, error) {
	req := client.NewChatRequest(message)
	req.EnableSkills = c.enableSkills
	req.EnableMCP = c.enableMCP

	turn := history.NewTurn(c.sessionID, message)
	turn.Streamed = !c.noStream
	turn.EnableSkills = req.EnableSkills
	turn.EnableMCP = req.EnableMCP

	c.logger.Debug("sending chat message",
		"session_id", c.sessionID,
		"streamed", turn.Streamed,
		"enable_skills", req.EnableSkills,
		"enable_mcp", req.EnableMCP,
	)

	var (
		text string
		err  error
	)
	if c.noStream {
		text, err = c.chat(ctx, req)
	} else {
		text, err = c.stream(ctx, req)
	}

	turn.Response = text
	turn.EndedAt = time.Now().UTC()
	if err != nil {
		turn.Error = err.Error()
	}
	c.record(turn)

	return text, err
}

func (c *chatCommander) chat(ctx context.Context, req client.ChatRequest) (string, error) {
	raw, err := c.client.Chat(ctx, req)
	if err != nil {
		return "", err
	}

	resp, err := client.ParseChat(raw)
	if err != nil {
		return "", err
	}

	if resp.Error != "" {
		c.printServerError(resp.Error)
	}

	fmt.Fprint(c.out, assistantPrompt)
	c.printReply(resp.Response)
	return resp.Response, nil
}

func (c *chatCommander) stream(ctx context.Context, req client.ChatRequest) (string, error) {
	fmt.Fprint(c.out, assistantPrompt)

	callbacks := sse.Callbacks{
		OnError: c.printServerError,
		OnDone: func(fullText string) {
			c.logger.Debug("reply complete", "chars", len(fullText))
		},
		OnEnd: func() {
			c.logger.Debug("stream ended")
		},
	}
	if !c.markdown {
		callbacks.OnChunk = func(text string) {
			fmt.Fprint(c.out, text)
		}
	}

	text, err := c.client.ChatStream(ctx, req, callbacks, c.decoderOpts...)
	if err != nil {
		fmt.Fprintln(c.out)
		return text, err
	}

	if c.markdown {
		c.printReply(text)
		return text, nil
	}

	fmt.Fprintln(c.out)
	return text, nil
}

func (c *chatCommander) printReply(text string) {
	if !c.markdown {
		fmt.Fprintln(c.out, text)
		return
	}

	rendered, err := cliui.RenderMarkdown(text)
	if err != nil {
		c.logger.Debug("rendering markdown", "error", err)
	}
	fmt.Fprintln(c.out)
	fmt.Fprint(c.out, rendered)
}

func (c *chatCommander) printServerError(message string) {
	fmt.Fprintf(c.errOut, "\n  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(message))
}

func (c *chatCommander) record(turn *history.Turn) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(turn)
}

func (c *chatCommander) stdinIsTerminal() bool {
	f, ok := c.in.(*os.File)
	return ok && cliui.IsInteractive(f)
}

// stylable reports whether markdown output would be readable. Non-file
// writers are assumed to want rendered output.
func (c *chatCommander) stylable() bool {
	f, ok := c.out.(*os.File)
	if !ok {
		return true
	}
	return cliui.SupportsStyling(f)
}
