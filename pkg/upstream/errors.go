package upstream

import "fmt"

// ConfigurationError is returned when the upstream base address is unset.
type ConfigurationError struct{}

func (ConfigurationError) Error() string {
	return "AI API URL is not configured"
}

// StatusError is returned when the model service answers with a non-2xx
// status. Body holds the (truncated) response body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("AI API responded with status: %d - %s", e.StatusCode, e.Body)
}

// TransportError wraps network failures talking to the model service, either
// while connecting or mid-stream.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "AI API connection failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
