package chatcmder

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/papercomputeco/wellchat/cmd/wellchat/cmdconfig"
	"github.com/papercomputeco/wellchat/pkg/config"
	"github.com/papercomputeco/wellchat/pkg/logger"
	"github.com/papercomputeco/wellchat/pkg/tui"
)

const chatLongDesc string = `Start an interactive chat in the terminal.

Each question is sent on its own, without the earlier conversation.
While the conversation is empty, suggested questions can be picked with
the arrow keys and enter. Suggestions reload when the config file changes.

When stdin is not a terminal, questions are read one per line.

Examples:
  wellchat chat
  wellchat chat --log-file /tmp/wellchat.log --debug
  echo "How can I sleep better?" | wellchat chat`

const chatShortDesc string = "Chat in the terminal"

type chatCommander struct {
	opts    *cmdconfig.Options
	logFile string
	plain   bool
}

func NewChatCmd(opts *cmdconfig.Options) *cobra.Command {
	cmder := &chatCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Write logs to this file (the terminal UI owns the screen)")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Line-by-line mode even on a terminal")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := c.opts.Load()
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if c.logFile != "" {
		var closeLog func() error
		log, closeLog, err = logger.NewFileLogger(c.logFile, cfg.Debug)
		if err != nil {
			return err
		}
		defer closeLog()
		defer log.Sync()
	}

	generator, err := cmdconfig.NewGenerator(cfg, log)
	if err != nil {
		return err
	}

	controller := cmdconfig.NewController(cfg, generator, log)
	defer controller.Close()

	if c.plain || !term.IsTerminal(int(os.Stdin.Fd())) {
		return tui.RunPlain(ctx, controller, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	log.Info("starting terminal chat", zap.String("model", generator.Model()))

	model := tui.New(controller,
		tui.WithStyle(tui.DetectStyle()),
		tui.WithTitle("wellchat · "+generator.Model()),
		tui.WithLogger(log),
	)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(), // turn on mouse support so we can track the mouse wheel
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if path := c.opts.WatchPath(); path != "" {
		watcher, err := config.NewWatcher(path, log)
		if err != nil {
			log.Warn("config reload disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			go watcher.Run(ctx, func(cfg *config.Config) {
				p.Send(tui.SuggestionsMsg(cfg.Chat.Suggestions))
			})
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}
