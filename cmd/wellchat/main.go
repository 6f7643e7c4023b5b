package main

import (
	"os"

	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/wellchat/cmd/wellchat/ask"
	chatcmder "github.com/papercomputeco/wellchat/cmd/wellchat/chat"
	"github.com/papercomputeco/wellchat/cmd/wellchat/cmdconfig"
	mcpcmder "github.com/papercomputeco/wellchat/cmd/wellchat/mcp"
	servecmder "github.com/papercomputeco/wellchat/cmd/wellchat/serve"
)

var version = "dev"

const rootLongDesc string = `wellchat asks a hosted generative language model one question at a
time and shows the answers as a conversation.

The API key is read from WELLCHAT_API_KEY or GEMINI_API_KEY (a .env file in
the working directory is honored), the config file, or --api-key.`

func newRootCmd() *cobra.Command {
	opts := &cmdconfig.Options{}

	cmd := &cobra.Command{
		Use:          "wellchat",
		Short:        "Ask questions, read answers",
		Long:         rootLongDesc,
		Version:      version,
		SilenceUsage: true,
	}
	opts.AddFlags(cmd)

	cmd.AddCommand(
		chatcmder.NewChatCmd(opts),
		servecmder.NewServeCmd(opts),
		askcmder.NewAskCmd(opts),
		mcpcmder.NewMCPCmd(opts, version),
	)

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
