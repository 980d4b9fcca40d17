// Package api provides an HTTP API server for reading persisted chat history.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// AllowOrigins is the CORS allow list for browser clients ("*" by default).
	AllowOrigins string

	// DisableMCP serves an MCP endpoint without tools.
	DisableMCP bool
}
