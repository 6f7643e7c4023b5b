package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/wellchat/cmd/wellchat/cmdconfig"
	"github.com/papercomputeco/wellchat/pkg/logger"
	"github.com/papercomputeco/wellchat/pkg/metrics"
	"github.com/papercomputeco/wellchat/server"
)

const serveLongDesc string = `Serve conversations over HTTP.

Each session owns its own conversation. Sessions live in memory and are
gone when the server stops.

Routes:
  POST   /api/sessions                   start a conversation
  GET    /api/sessions/:id               current turns, draft and suggestions
  PUT    /api/sessions/:id/draft         update the draft
  POST   /api/sessions/:id/questions     ask a question (?wait=true to block)
  POST   /api/sessions/:id/suggestions   ask a suggested question
  POST   /api/sessions/:id/cancel        stop the pending answer
  DELETE /api/sessions/:id               discard the conversation
  GET    /metrics                        Prometheus metrics

Examples:
  wellchat serve
  wellchat serve --listen :9090 --debug`

const serveShortDesc string = "Serve conversations over HTTP"

type serveCommander struct {
	opts   *cmdconfig.Options
	listen string
}

func NewServeCmd(opts *cmdconfig.Options) *cobra.Command {
	cmder := &serveCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default from config, :8080)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := c.opts.Load()
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Server.ListenAddr = c.listen
	}

	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	generator, err := cmdconfig.NewGenerator(cfg, log)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.ListenAddr,
		Suggestions: cfg.Chat.Suggestions,
	}, generator, metrics.New(), log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	log.Debug("answering with model", zap.String("model", generator.Model()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
