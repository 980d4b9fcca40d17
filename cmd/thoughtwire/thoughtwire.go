// Package thoughtwirecmder wires the thoughtwire root command.
package thoughtwirecmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/thoughtwire/cmd/thoughtwire/chat"
	configcmder "github.com/papercomputeco/thoughtwire/cmd/thoughtwire/config"
	initcmder "github.com/papercomputeco/thoughtwire/cmd/thoughtwire/init"
	servecmder "github.com/papercomputeco/thoughtwire/cmd/thoughtwire/serve"
	versioncmder "github.com/papercomputeco/thoughtwire/cmd/version"
)

const thoughtwireLongDesc string = `Thoughtwire relays narrated model reasoning to chat clients.

The relay proxies a streaming model service, normalizes its event stream,
and saves each conversation turn. The API server serves saved conversations
over HTTP and MCP. The chat client renders the narration as it arrives.

Run services using:
  thoughtwire serve relay    Run the relay
  thoughtwire serve api      Run the API server
  thoughtwire serve          Run both servers together

Chat using:
  thoughtwire chat`

const thoughtwireShortDesc string = "Thoughtwire - narrated reasoning relay"

func NewThoughtwireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "thoughtwire",
		Short:        thoughtwireShortDesc,
		Long:         thoughtwireLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")
	cmd.PersistentFlags().String("log-file", "", "Also write JSON logs with source locations to this file")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml and chat state (default: ./.thoughtwire or ~/.thoughtwire)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
