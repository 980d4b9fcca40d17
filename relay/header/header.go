// Package header provides header handling for the thoughtwire relay.
//
// The relay sits between a browser and the model service like so:
//
//	Browser <--> Relay <--> Model service
//
// and each leg negotiates its own transport. The relay rebuilds the upstream
// request body, so only end-to-end credentials and metadata are forwarded.
package header

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler manages headers between relay connections.
type Handler struct{}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// skipRequest is the set of request headers (browser --> relay --> upstream)
// that are not forwarded to the model service.
var skipRequest = map[string]struct{}{
	// Hop-by-hop headers: only meaningful for a single transport-level connection.
	"Connection": {},
	"Keep-Alive": {},
	"Upgrade":    {},

	// The Host header is rewritten by Go's http.Transport to match the
	// upstream URL.
	"Host": {},

	// Accept-Encoding is stripped so that Go's http.Transport adds its own
	// and transparently decompresses the upstream stream.
	"Accept-Encoding": {},

	// The upstream body is re-encoded by the relay, so the browser's framing
	// and negotiation headers do not apply.
	"Content-Length": {},
	"Content-Type":   {},
	"Accept":         {},

	// Browser-only headers.
	"Cookie":  {},
	"Origin":  {},
	"Referer": {},
}

// streamHeaders are set on every relay stream response.
var streamHeaders = map[string]string{
	fiber.HeaderContentType:  "text/event-stream",
	fiber.HeaderCacheControl: "no-cache",
	fiber.HeaderConnection:   "keep-alive",

	// Disables response buffering in nginx-style reverse proxies so frames
	// reach the browser as they are written.
	"X-Accel-Buffering": "no",
}

// UpstreamRequestHeaders returns the browser request headers that should be
// forwarded to the model service.
func (h *Handler) UpstreamRequestHeaders(c *fiber.Ctx) http.Header {
	out := http.Header{}
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := http.CanonicalHeaderKey(string(key))
		if _, skip := skipRequest[k]; !skip {
			out.Add(k, string(value))
		}
	})
	return out
}

// SetStreamResponseHeaders marks the response as an uncompressed,
// uncached event stream.
func (h *Handler) SetStreamResponseHeaders(c *fiber.Ctx) {
	for k, v := range streamHeaders {
		c.Set(k, v)
	}
}
