package relay

import "time"

// Config is the relay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// UpstreamURL is the model service base URL (e.g., "http://localhost:8000").
	// An empty value is not a startup error: every request then answers with
	// an in-band configuration error frame.
	UpstreamURL string

	// UpstreamPath is the streaming endpoint on the model service.
	UpstreamPath string

	// UpstreamTimeout bounds a whole upstream exchange, including streaming.
	UpstreamTimeout time.Duration

	// PublishQueueSize is the capacity of the event publishing queue.
	PublishQueueSize uint
}
