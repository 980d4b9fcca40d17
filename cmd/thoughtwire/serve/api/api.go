// Package apicmder provides the API thoughtwire server cobra command.
package apicmder

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtwire/api"
	"github.com/papercomputeco/thoughtwire/pkg/config"
	"github.com/papercomputeco/thoughtwire/pkg/logger"
	storageutils "github.com/papercomputeco/thoughtwire/pkg/storage/utils"
)

type apiCommander struct {
	cfg *config.Config

	listen      string
	sqlitePath  string
	postgresDSN string
	disableMCP  bool

	debug    bool
	jsonLogs bool
	logFile  string
	logger   *slog.Logger
}

const apiLongDesc string = `Run the thoughtwire API server for reading persisted chat transcripts.

Serves GET /chats/:chat_id/messages and an MCP endpoint at /mcp exposing a
chat_history tool to agents.`

const apiShortDesc string = "Run the thoughtwire API server"

var apiFlags = []string{
	config.FlagAPIListenStandalone,
	config.FlagSQLite,
	config.FlagPostgres,
}

func NewAPICmd() *cobra.Command {
	cmder := &apiCommander{}

	cmd := &cobra.Command{
		Use:   "api",
		Short: apiShortDesc,
		Long:  apiLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, apiFlags)
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

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListenStandalone, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	cmd.Flags().BoolVar(&cmder.disableMCP, "disable-mcp", false, "Serve the MCP endpoint without tools")

	return cmd
}

func (c *apiCommander) run(cmd *cobra.Command) error {
	var err error
	var closeLog func() error
	c.logger, closeLog, err = logger.Console(c.debug, c.jsonLogs, c.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	driver, err := storageutils.NewDriver(cmd.Context(), &storageutils.NewDriverOpts{
		PostgresDSN: c.cfg.Storage.PostgresDSN,
		SQLitePath:  c.cfg.Storage.SQLitePath,
		Logger:      c.logger,
	})
	if err != nil {
		return err
	}
	defer driver.Close()

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		DisableMCP: c.disableMCP,
	}, driver, c.logger)
	if err != nil {
		return err
	}

	return server.Run()
}
