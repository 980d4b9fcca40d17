package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the outcome of classifying a single protocol line.
type Kind int

const (
	// KindSkip means the line produced nothing: blank, not a data frame,
	// malformed, or missing a string message.
	KindSkip Kind = iota

	// KindEvent means the line produced exactly one Event.
	KindEvent

	// KindDone means the line was the terminal sentinel. Nothing after it
	// should be processed.
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindDone:
		return "done"
	default:
		return "skip"
	}
}

// FrameParseError reports a data frame whose payload was not valid JSON.
// It is informational only: a bad frame never ends a stream.
type FrameParseError struct {
	Payload string
	Err     error
}

func (e *FrameParseError) Error() string {
	return fmt.Sprintf("malformed frame payload %q: %v", e.Payload, e.Err)
}

func (e *FrameParseError) Unwrap() error {
	return e.Err
}

// Classify parses one protocol line into at most one canonical Event.
//
// Blank lines and lines without the data prefix are skipped. An empty payload
// or the [DONE] sentinel yields KindDone. Payloads must decode to a non-null
// JSON object carrying a string "message"; a missing or non-string "type"
// defaults to thought_stream. Anything else is dropped.
//
// The returned error is non-nil only for JSON decode failures and is always
// paired with KindSkip.
func Classify(line string) (Event, Kind, error) {
	if strings.TrimSpace(line) == "" {
		return Event{}, KindSkip, nil
	}

	payload, ok := strings.CutPrefix(line, DataPrefix)
	if !ok {
		return Event{}, KindSkip, nil
	}

	payload = strings.TrimSpace(payload)
	if payload == "" || payload == DoneSentinel {
		return Event{}, KindDone, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return Event{}, KindSkip, &FrameParseError{Payload: payload, Err: err}
	}

	// "null" decodes into a nil map without error.
	if fields == nil {
		return Event{}, KindSkip, nil
	}

	message, ok := stringField(fields, "message")
	if !ok {
		return Event{}, KindSkip, nil
	}

	ev := Event{
		Type:    TypeThoughtStream,
		Message: message,
	}

	if typ, ok := stringField(fields, "type"); ok && typ != "" {
		ev.Type = typ
	}

	if raw, ok := fields["final"]; ok {
		var final bool
		if json.Unmarshal(raw, &final) == nil {
			ev.Final = final
		}
	}

	return ev, KindEvent, nil
}

// stringField decodes fields[key] only when it holds a JSON string. A JSON
// null would otherwise unmarshal into "" without error.
func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
