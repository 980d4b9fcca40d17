// Package servecmder provides the serve command with subcommands for running services.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtwire/api"
	apicmder "github.com/papercomputeco/thoughtwire/cmd/thoughtwire/serve/api"
	relaycmder "github.com/papercomputeco/thoughtwire/cmd/thoughtwire/serve/relay"
	"github.com/papercomputeco/thoughtwire/pkg/config"
	eventstreamutils "github.com/papercomputeco/thoughtwire/pkg/eventstream/utils"
	"github.com/papercomputeco/thoughtwire/pkg/logger"
	storageutils "github.com/papercomputeco/thoughtwire/pkg/storage/utils"
	"github.com/papercomputeco/thoughtwire/relay"
)

type ServeCommander struct {
	relayListen  string
	apiListen    string
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

const serveLongDesc string = `Run thoughtwire services.

Use subcommands to run individual services or all services together:
  thoughtwire serve          Run both relay and API server together
  thoughtwire serve api      Run just the API server
  thoughtwire serve relay    Run just the relay

Running both in one process shares a single message store between them.`

const serveShortDesc string = "Run thoughtwire services"

var serveFlags = []string{
	config.FlagRelayListen,
	config.FlagAPIListen,
	config.FlagUpstream,
	config.FlagUpstreamPath,
	config.FlagTimeout,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEventStreamProv,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)

			cfg := config.FromViper(v)
			cmder.relayListen = cfg.Relay.Listen
			cmder.apiListen = cfg.API.Listen
			cmder.upstream = cfg.Relay.Upstream
			cmder.upstreamPath = cfg.Relay.UpstreamPath
			cmder.timeout = cfg.Relay.Timeout
			cmder.sqlitePath = cfg.Storage.SQLitePath
			cmder.postgresDSN = cfg.Storage.PostgresDSN
			cmder.eventStreamProvider = cfg.EventStream.Provider
			cmder.kafkaBrokers = cfg.EventStream.Brokers
			cmder.kafkaTopic = cfg.EventStream.Topic
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
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagRelayListen, &cmder.relayListen)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstreamPath, &cmder.upstreamPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamProv, &cmder.eventStreamProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.kafkaTopic)

	cmd.AddCommand(apicmder.NewAPICmd())
	cmd.AddCommand(relaycmder.NewRelayCmd())

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	var err error
	var closeLog func() error
	c.logger, closeLog, err = logger.Console(c.debug, c.jsonLogs, c.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	timeout, err := config.RelayConfig{Timeout: c.timeout}.TimeoutDuration()
	if err != nil {
		return err
	}

	// Create shared storer
	storer, err := storageutils.NewDriver(ctx, &storageutils.NewDriverOpts{
		PostgresDSN: c.postgresDSN,
		SQLitePath:  c.sqlitePath,
		Logger:      c.logger,
	})
	if err != nil {
		return err
	}
	defer storer.Close()

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.eventStreamProvider,
		Brokers:      config.EventStreamConfig{Brokers: c.kafkaBrokers}.BrokerList(),
		Topic:        c.kafkaTopic,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	// Create relay
	r, err := relay.New(relay.Config{
		ListenAddr:      c.relayListen,
		UpstreamURL:     c.upstream,
		UpstreamPath:    c.upstreamPath,
		UpstreamTimeout: timeout,
	}, storer, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating relay: %w", err)
	}
	defer r.Close()

	// Create API server
	apiServer, err := api.NewServer(api.Config{ListenAddr: c.apiListen}, storer, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	defer apiServer.Shutdown()

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := r.Run(); err != nil {
			errChan <- fmt.Errorf("relay error: %w", err)
		}
	}()

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return nil
	}
}
