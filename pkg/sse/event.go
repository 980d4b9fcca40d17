// Package sse implements the narration stream protocol shared by the relay and
// its clients.
//
// A stream is a sequence of "data: <payload>\n\n" frames where the payload is
// either a JSON Event or the literal [DONE] sentinel. The same Reassembler,
// Classify and Decode code runs on both ends of the relay: once against the
// untrusted upstream model service, and again in clients against the relay's
// already-normalized output.
//
// See the HTML Living Standard section on server-sent events:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event types emitted by the upstream model service. The taxonomy is part of
// the wire contract and must not be renamed.
const (
	TypeThoughtStream  = "thought_stream"
	TypeIteration      = "iteration"
	TypeThinking       = "thinking"
	TypeReasoningStart = "reasoning_start"
	TypeToolPrep       = "tool_prep"
	TypeToolReady      = "tool_ready"
	TypeExecuting      = "executing"
	TypeToolResult     = "tool_result"
	TypeToolStream     = "tool_stream"
	TypeFinal          = "final"
	TypeReasoningDone  = "reasoning_done"
	TypeContinue       = "continue"
	TypeKeepalive      = "keepalive"
	TypeToolInput      = "tool_input"
	TypeError          = "error"
)

// Types lists the full event taxonomy in its canonical order.
var Types = []string{
	TypeThoughtStream,
	TypeIteration,
	TypeThinking,
	TypeReasoningStart,
	TypeToolPrep,
	TypeToolReady,
	TypeExecuting,
	TypeToolResult,
	TypeToolStream,
	TypeFinal,
	TypeReasoningDone,
	TypeContinue,
	TypeKeepalive,
	TypeToolInput,
	TypeError,
}

const (
	// DataPrefix marks a data frame line.
	DataPrefix = "data:"

	// DoneSentinel is the payload of the terminal frame.
	DoneSentinel = "[DONE]"
)

// Event is the canonical protocol unit carried in every data frame.
type Event struct {
	// Type is one of the taxonomy constants. Unknown types are carried through
	// untouched; presentation decides what to do with them.
	Type string `json:"type"`

	// Message is the text payload of the event.
	Message string `json:"message"`

	// Final marks an event as the last one the producer intends to send.
	Final bool `json:"final,omitempty"`
}

// NewErrorEvent builds the synthesized in-band error event used once a
// stream has been committed and an HTTP status can no longer be sent.
func NewErrorEvent(message string) Event {
	return Event{
		Type:    TypeError,
		Message: message,
		Final:   true,
	}
}

// IsThought reports whether the event contributes to persisted assistant text.
func (e Event) IsThought() bool {
	return e.Type == TypeThoughtStream
}
