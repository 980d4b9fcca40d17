// Package relaycmder provides the relay server command.
package relaycmder

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtwire/pkg/config"
	eventstreamutils "github.com/papercomputeco/thoughtwire/pkg/eventstream/utils"
	"github.com/papercomputeco/thoughtwire/pkg/logger"
	storageutils "github.com/papercomputeco/thoughtwire/pkg/storage/utils"
	"github.com/papercomputeco/thoughtwire/relay"
)

type relayCommander struct {
	cfg *config.Config

	listen       string
	upstream     string
	upstreamPath string
	timeout      string
	sqlitePath   string
	postgresDSN  string

	eventStreamProvider string
	kafkaBrokers        string
	kafkaTopic          string

	debug    bool
	jsonLogs bool
	logFile  string
	logger   *slog.Logger
}

const relayLongDesc string = `Run the relay server.

The relay accepts chat queries on POST /api/chat, forwards them to the
configured upstream model service, and streams the model's narration back as
server-sent events. Malformed upstream frames are dropped, split frames are
reassembled, and every stream ends with a terminal frame.

When a chat_id is given, the user's query and the assistant's accumulated
narration are persisted and announced on the configured event stream.`

const relayShortDesc string = "Run the thoughtwire relay server"

var relayFlags = []string{
	config.FlagRelayListenStandalone,
	config.FlagUpstream,
	config.FlagUpstreamPath,
	config.FlagTimeout,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEventStreamProv,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

func NewRelayCmd() *cobra.Command {
	cmder := &relayCommander{}

	cmd := &cobra.Command{
		Use:   "relay",
		Short: relayShortDesc,
		Long:  relayLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, relayFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.jsonLogs, err = cmd.Flags().GetBool("json-logs")
			if err != nil {
				return fmt.Errorf("could not get json-logs flag: %w", err)
			}
			cmder.logFile, err = cmd.Flags().GetString("log-file")
			if err != nil {
				return fmt.Errorf("could not get log-file flag: %w", err)
			}
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagRelayListenStandalone, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstreamPath, &cmder.upstreamPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamProv, &cmder.eventStreamProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.kafkaTopic)

	return cmd
}

func (c *relayCommander) run(cmd *cobra.Command) error {
	var err error
	var closeLog func() error
	c.logger, closeLog, err = logger.Console(c.debug, c.jsonLogs, c.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	timeout, err := c.cfg.Relay.TimeoutDuration()
	if err != nil {
		return err
	}

	driver, err := storageutils.NewDriver(cmd.Context(), &storageutils.NewDriverOpts{
		PostgresDSN: c.cfg.Storage.PostgresDSN,
		SQLitePath:  c.cfg.Storage.SQLitePath,
		Logger:      c.logger,
	})
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.cfg.EventStream.Provider,
		Brokers:      c.cfg.EventStream.BrokerList(),
		Topic:        c.cfg.EventStream.Topic,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	r, err := relay.New(relay.Config{
		ListenAddr:      c.cfg.Relay.Listen,
		UpstreamURL:     c.cfg.Relay.Upstream,
		UpstreamPath:    c.cfg.Relay.UpstreamPath,
		UpstreamTimeout: timeout,
	}, driver, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating relay: %w", err)
	}
	defer r.Close()

	return r.Run()
}
