package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/thoughtwire/pkg/eventstream"
	"github.com/papercomputeco/thoughtwire/pkg/llm"
	"github.com/papercomputeco/thoughtwire/pkg/sse"
	"github.com/papercomputeco/thoughtwire/pkg/storage"
	"github.com/papercomputeco/thoughtwire/pkg/upstream"
	"github.com/papercomputeco/thoughtwire/relay/worker"
)

// errorPrefix prefixes every in-band error message.
const errorPrefix = "AI service error: "

// clientGoneError marks a failed write to the browser. Nothing more can be
// sent once it occurs.
type clientGoneError struct {
	err error
}

func (e *clientGoneError) Error() string {
	return "client disconnected: " + e.err.Error()
}

func (e *clientGoneError) Unwrap() error {
	return e.err
}

// session is one request-scoped exchange: browser query in, upstream
// narration relayed out. It is driven by a single goroutine.
type session struct {
	id      string
	query   llm.ChatQuery
	headers http.Header
	relay   *Relay
	logger  *slog.Logger

	startedAt time.Time
	text      strings.Builder
	result    sse.Result
}

func (r *Relay) newSession(q llm.ChatQuery, headers http.Header) *session {
	id := uuid.NewString()
	return &session{
		id:      id,
		query:   q,
		headers: headers,
		relay:   r,
		logger: r.logger.With(
			"session_id", id,
			"chat_id", q.ChatID,
		),
	}
}

// run drives the session to completion and closes pw. After the response
// status is committed, every failure becomes a single error frame.
func (s *session) run(pw *io.PipeWriter, conn net.Conn) {
	defer pw.Close()

	// fasthttp recycles its RequestCtx once the handler returns, so the
	// upstream exchange gets its own context, cancelled when the browser
	// disconnects.
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	stop := watchConn(conn, func() { cancel(errClientDisconnected) })
	defer stop()

	s.startedAt = time.Now()
	s.relay.stats.sessions.Add(1)

	w := sse.NewWriter(pw)
	err := s.stream(ctx, w)

	var gone *clientGoneError
	switch {
	case err == nil:
		s.relay.stats.completed.Add(1)

	case errors.As(err, &gone):
		// Completeness cannot be proven, so the accumulated text is dropped.
		cancel(errClientDisconnected)
		s.relay.stats.aborted.Add(1)
		s.logger.Info("client disconnected, discarding accumulated text",
			"discarded_bytes", s.text.Len(),
			"cause", err,
		)

	default:
		s.relay.stats.failed.Add(1)
		s.logger.Error("stream session failed", "error", err)
		if werr := w.WriteEvent(sse.NewErrorEvent(errorPrefix + err.Error())); werr != nil {
			s.logger.Debug("could not deliver error frame", "error", werr)
		}
	}

	s.relay.stats.events.Add(int64(s.result.Events))
	s.relay.stats.dropped.Add(int64(s.result.Dropped))

	s.logger.Debug("stream session finished",
		"duration", time.Since(s.startedAt),
		"chunks", s.result.Chunks,
		"lines", s.result.Lines,
		"events", s.result.Events,
		"dropped_lines", s.result.Dropped,
		"frames", w.Frames(),
		"done_sentinel", s.result.Done,
	)
}

// stream performs the exchange: persist the user turn, open the upstream
// stream, relay its events, persist the assistant turn, emit [DONE].
func (s *session) stream(ctx context.Context, w *sse.Writer) error {
	if err := s.relay.upstream.CheckConfig(); err != nil {
		return err
	}

	if s.query.Persistent() {
		s.persist(ctx, llm.NewUserMessage(s.query))
	}

	body, err := s.relay.upstream.Stream(ctx, s.query, s.headers)
	if err != nil {
		if ctx.Err() != nil {
			return &clientGoneError{err: context.Cause(ctx)}
		}
		return err
	}
	defer body.Close()

	s.result, err = sse.Decode(ctx, body, sse.SinkFunc(func(ev sse.Event) error {
		return s.forward(w, ev)
	}), sse.WithLogger(s.logger))
	if err != nil {
		var gone *clientGoneError
		switch {
		case errors.As(err, &gone):
			return err
		case ctx.Err() != nil:
			return &clientGoneError{err: context.Cause(ctx)}
		}
		return &upstream.TransportError{Err: err}
	}

	// The browser may have left while the upstream was finishing.
	if ctx.Err() != nil {
		return &clientGoneError{err: context.Cause(ctx)}
	}

	// [DONE] or natural end of the upstream body.
	if s.query.Persistent() && s.text.Len() > 0 {
		s.persist(ctx, llm.NewAssistantMessage(s.query, s.text.String()))
	}

	if err := w.WriteDone(); err != nil {
		return &clientGoneError{err: err}
	}
	return nil
}

// forward writes ev to the browser immediately and accumulates narration.
func (s *session) forward(w *sse.Writer, ev sse.Event) error {
	if err := w.WriteEvent(ev); err != nil {
		return &clientGoneError{err: err}
	}
	if ev.IsThought() {
		s.text.WriteString(ev.Message)
	}
	return nil
}

// persist stores msg and enqueues its event. Failures are logged only: the
// browser still receives the narration even when saving it fails.
func (s *session) persist(ctx context.Context, msg *llm.ChatMessage) {
	if err := s.relay.driver.InsertMessage(ctx, msg); err != nil {
		perr := &storage.PersistenceError{Op: "insert " + msg.Role + " message", ChatID: msg.ChatID, Err: err}
		s.logger.Error("persistence failed", "error", perr)
		return
	}

	s.logger.Debug("message persisted",
		"message_id", msg.ID,
		"role", msg.Role,
		"bytes", len(msg.Text),
	)

	meta := eventstream.StreamMeta{}
	if msg.Role == llm.RoleAssistant {
		completed := time.Now()
		meta = eventstream.StreamMeta{
			StartedAt:   s.startedAt.UTC(),
			CompletedAt: completed.UTC(),
			DurationMs:  completed.Sub(s.startedAt).Milliseconds(),
			Events:      s.result.Events,
			Chunks:      s.result.Chunks,
		}
	}
	s.relay.workerPool.Enqueue(worker.Job{Message: *msg, Stream: meta})
}
