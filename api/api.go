package api

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/thoughtwire/api/mcp"
	"github.com/papercomputeco/thoughtwire/pkg/logger"
	"github.com/papercomputeco/thoughtwire/pkg/storage"
)

// MCPPath is where the MCP streamable HTTP endpoint is mounted.
const MCPPath = "/mcp"

// Server is the API server for querying chat transcripts.
type Server struct {
	config Config
	storer storage.Driver
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The storer is injected to allow sharing with other components
// (e.g., the relay when both run in one process).
func NewServer(config Config, storer storage.Driver, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	if config.AllowOrigins == "" {
		config.AllowOrigins = "*"
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.AllowOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}))

	s := &Server{
		config: config,
		storer: storer,
		logger: log,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/chats/:chat_id/messages", s.handleListMessages)

	mcpServer, err := mcp.NewServer(mcp.Config{
		Storer: storer,
		Noop:   config.DisableMCP,
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create MCP server: %w", err)
	}
	app.All(MCPPath, adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the API server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting API server",
		"listen", listener.Addr().String(),
	)
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
