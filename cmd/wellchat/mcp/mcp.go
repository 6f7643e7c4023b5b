package mcpcmder

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/wellchat/cmd/wellchat/cmdconfig"
	"github.com/papercomputeco/wellchat/pkg/conversation"
	"github.com/papercomputeco/wellchat/pkg/logger"
)

const mcpLongDesc string = `Run an MCP server on stdio.

The server exposes one tool, "ask", which answers a single question.
Logs go to stderr so stdout stays free for the protocol.

Examples:
  wellchat mcp
  wellchat mcp --model gemini-1.5-pro-latest`

const mcpShortDesc string = "Run an MCP server on stdio"

const askToolDesc string = "Answer a question with the configured generative model. " +
	"Each call is answered on its own, without earlier questions."

var errEmptyQuestion = errors.New("question is empty")

type mcpCommander struct {
	opts    *cmdconfig.Options
	version string
}

type askInput struct {
	Question string `json:"question" jsonschema:"the question to answer"`
}

type askOutput struct {
	Answer string `json:"answer" jsonschema:"the answer, or a generic failure message"`
}

func NewMCPCmd(opts *cmdconfig.Options, version string) *cobra.Command {
	cmder := &mcpCommander{opts: opts, version: version}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	return cmd
}

func (c *mcpCommander) run(ctx context.Context) error {
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

	server := newServer(func() *conversation.Controller {
		return cmdconfig.NewController(cfg, generator, log)
	}, c.version, log)

	log.Info("serving MCP on stdio", zap.String("model", generator.Model()))
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

func newServer(newController func() *conversation.Controller, version string, log *zap.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "wellchat", Version: version}, nil)

	h := &askHandler{newController: newController, logger: log}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: askToolDesc,
	}, h.handle)

	return server
}

// askHandler answers every tool call in a fresh conversation that is
// discarded once the answer settles.
type askHandler struct {
	newController func() *conversation.Controller
	logger        *zap.Logger
}

func (h *askHandler) handle(ctx context.Context, _ *mcp.CallToolRequest, in askInput) (*mcp.CallToolResult, askOutput, error) {
	controller := h.newController()
	defer controller.Close()

	reply, err := controller.Submit(in.Question)
	if err != nil {
		return nil, askOutput{}, err
	}
	if reply == nil {
		return nil, askOutput{}, errEmptyQuestion
	}

	answer, err := reply.Wait(ctx)
	if err != nil {
		controller.Cancel()
		<-reply.Done()
		return nil, askOutput{}, err
	}

	h.logger.Debug("answered tool call", zap.Int("answer_len", len(answer.Content)))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: answer.Content}},
	}, askOutput{Answer: answer.Content}, nil
}
