// Package configcmder provides the config command for managing persistent
// thoughtwire configuration stored in the .thoughtwire/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtwire/pkg/cliui"
	"github.com/papercomputeco/thoughtwire/pkg/config"
)

const configLongDesc string = `Manage persistent thoughtwire configuration.

Configuration is stored as config.toml in the .thoughtwire/ directory and
provides default values for command flags. CLI flags and THOUGHTWIRE_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.sqlite_path, storage.postgres_dsn,
  relay.listen, relay.upstream, relay.upstream_path, relay.timeout,
  api.listen,
  client.relay_target, client.api_target, client.user_id,
  render.profile, render.window_ms,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  thoughtwire config set <key> <value>    Set a configuration value
  thoughtwire config get <key>            Get a configuration value
  thoughtwire config list                 List all configuration values

Examples:
  thoughtwire config set relay.upstream http://localhost:8000
  thoughtwire config set render.profile compact
  thoughtwire config get relay.upstream
  thoughtwire config list`

const configShortDesc string = "Manage persistent thoughtwire configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKeysArg(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}
