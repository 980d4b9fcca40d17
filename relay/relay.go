// Package relay implements the streaming relay between a browser and the
// model service. Each POST to /api/chat opens one stream session which
// forwards canonical frames to the browser, accumulates the narration, and
// persists the finished exchange.
package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/thoughtwire/pkg/eventstream"
	"github.com/papercomputeco/thoughtwire/pkg/eventstream/nop"
	"github.com/papercomputeco/thoughtwire/pkg/llm"
	"github.com/papercomputeco/thoughtwire/pkg/logger"
	"github.com/papercomputeco/thoughtwire/pkg/storage"
	"github.com/papercomputeco/thoughtwire/pkg/upstream"
	"github.com/papercomputeco/thoughtwire/pkg/utils"
	"github.com/papercomputeco/thoughtwire/relay/header"
	"github.com/papercomputeco/thoughtwire/relay/worker"
)

// ChatPath is the streaming chat endpoint.
const ChatPath = "/api/chat"

// queryPreviewLen bounds how much of a user query is logged.
const queryPreviewLen = 80

// Relay is the browser-facing streaming endpoint. It holds no per-request
// state: every buffer and accumulator lives in a session.
type Relay struct {
	config        Config
	driver        storage.Driver
	upstream      *upstream.Client
	workerPool    *worker.Pool
	logger        *slog.Logger
	server        *fiber.App
	headerHandler *header.Handler
	sessions      sync.WaitGroup
	stats         *counters
}

// New creates a new Relay.
// The driver persists chat messages; publisher receives an event for every
// persisted message and may be nil to disable publishing.
func New(config Config, driver storage.Driver, publisher eventstream.Publisher, log *slog.Logger) (*Relay, error) {
	if driver == nil {
		return nil, fmt.Errorf("relay requires a storage driver")
	}
	if log == nil {
		log = logger.Nop()
	}
	if publisher == nil {
		publisher = nop.NewPublisher()
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	app.Use(recover.New())

	// Event streams are never compressed: compression buffers frames and
	// defeats per-frame delivery.
	app.Use(compress.New(compress.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == ChatPath
		},
	}))

	wp, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		QueueSize: config.PublishQueueSize,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	r := &Relay{
		config:     config,
		driver:     driver,
		workerPool: wp,
		logger:     log,
		server:     app,
		upstream: upstream.New(upstream.Config{
			BaseURL: config.UpstreamURL,
			Path:    config.UpstreamPath,
			Timeout: config.UpstreamTimeout,
			Logger:  log,
		}),
		headerHandler: header.NewHandler(),
		stats:         &counters{},
	}

	app.Post(ChatPath, r.handleChat)
	app.Get("/api/stats", r.handleStats)

	return r, nil
}

// Run starts the relay server on the configured listening address.
func (r *Relay) Run() error {
	r.logger.Info("starting relay server",
		"listen", r.config.ListenAddr,
		"upstream", r.upstream.URL(),
	)

	return r.server.Listen(r.config.ListenAddr)
}

// RunWithListener starts the relay server using the provided listener.
func (r *Relay) RunWithListener(listener net.Listener) error {
	r.logger.Info("starting relay server",
		"listen", listener.Addr().String(),
		"upstream", r.upstream.URL(),
	)

	return r.server.Listener(listener)
}

// Close stops accepting requests, waits for in-flight sessions to finish and
// drains the publishing pool.
func (r *Relay) Close() error {
	err := r.server.Shutdown()
	r.sessions.Wait()
	r.workerPool.Close()
	return err
}

// Stats returns a snapshot of the relay's session counters.
func (r *Relay) Stats() Stats {
	return r.stats.snapshot()
}

// handleChat validates the query, commits a 200 event-stream response and
// hands the rest of the exchange to a session goroutine.
func (r *Relay) handleChat(c *fiber.Ctx) error {
	var q llm.ChatQuery
	if err := json.Unmarshal(c.Body(), &q); err != nil {
		r.logger.Debug("rejecting malformed chat request", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if err := q.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	s := r.newSession(q, r.headerHandler.UpstreamRequestHeaders(c))
	s.logger.Debug("accepted chat query", "query", utils.Truncate(q.UserQuery, queryPreviewLen))

	r.headerHandler.SetStreamResponseHeaders(c)
	c.Status(fiber.StatusOK)

	// The session watches the connection for the browser leaving, so it must
	// not be reused for another request.
	c.Context().SetConnectionClose()
	conn := c.Context().Conn()

	// io.Pipe gives direct backpressure: pw.Write blocks until fasthttp has
	// consumed the frame and flushed it to the socket.
	pr, pw := io.Pipe()

	r.sessions.Add(1)
	go func() {
		defer r.sessions.Done()
		s.run(pw, conn)
	}()

	// Unknown size (-1) triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (r *Relay) handleStats(c *fiber.Ctx) error {
	return c.JSON(r.Stats())
}
