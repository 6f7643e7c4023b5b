package askcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/wellchat/cmd/wellchat/cmdconfig"
	"github.com/papercomputeco/wellchat/pkg/conversation"
	"github.com/papercomputeco/wellchat/pkg/logger"
	"github.com/papercomputeco/wellchat/pkg/tui"
)

const askLongDesc string = `Ask a single question and print the answer.

All arguments are joined into one question. The answer is rendered as
markdown when stdout is a terminal and printed as-is otherwise.

Examples:
  wellchat ask "What are good stretches for lower back pain?"
  wellchat ask --model gemini-1.5-pro-latest how much water should I drink`

const askShortDesc string = "Ask one question"

var (
	errEmptyQuestion    = errors.New("question is empty")
	errGenerationFailed = errors.New("generation failed, rerun with --debug for details")
)

type askCommander struct {
	opts *cmdconfig.Options
}

func NewAskCmd(opts *cmdconfig.Options) *cobra.Command {
	cmder := &askCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, question string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := c.opts.Load()
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	generator, err := cmdconfig.NewGenerator(cfg, log)
	if err != nil {
		return err
	}

	controller := cmdconfig.NewController(cfg, generator, log)
	defer controller.Close()

	reply, err := controller.Submit(question)
	if err != nil {
		return err
	}
	if reply == nil {
		return errEmptyQuestion
	}

	answer, err := reply.Wait(ctx)
	if err != nil {
		return err
	}

	if err := printAnswer(cmd.OutOrStdout(), answer.Content); err != nil {
		return err
	}
	if answer.Content == conversation.FailureContent {
		return errGenerationFailed
	}
	return nil
}

func printAnswer(out io.Writer, content string) error {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if rendered, err := glamour.Render(content, tui.DetectStyle()); err == nil {
			_, err = fmt.Fprint(out, rendered)
			return err
		}
	}
	_, err := fmt.Fprintln(out, content)
	return err
}
