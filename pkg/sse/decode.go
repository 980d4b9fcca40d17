package sse

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

const defaultReadSize = 32 * 1024

// Sink receives classified events in strict arrival order. Returning an error
// stops decoding and the error is returned from Decode unchanged.
type Sink interface {
	Event(ev Event) error
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(ev Event) error

// Event calls f(ev).
func (f SinkFunc) Event(ev Event) error {
	return f(ev)
}

// Result summarizes a single Decode run.
type Result struct {
	// Done is true when the [DONE] sentinel terminated the stream. False
	// means the source simply ran out.
	Done bool

	// Chunks is the number of non-empty reads from the source.
	Chunks int

	// Lines is the number of complete lines classified.
	Lines int

	// Events is the number of events handed to the sink.
	Events int

	// Dropped counts data frames whose payload failed to decode.
	Dropped int
}

type decodeOptions struct {
	logger   *slog.Logger
	readSize int
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeOptions)

// WithLogger logs recovered frame parse errors at debug level.
func WithLogger(l *slog.Logger) DecodeOption {
	return func(o *decodeOptions) {
		o.logger = l
	}
}

// WithReadSize sets the size of each read from the source.
func WithReadSize(n int) DecodeOption {
	return func(o *decodeOptions) {
		if n > 0 {
			o.readSize = n
		}
	}
}

// Decode reads src to completion, reassembling lines and classifying each one,
// and hands every resulting Event to sink in arrival order.
//
// Decoding stops at the first [DONE] sentinel; nothing after it is classified
// or delivered. At natural end of source, the retained partial line gets one
// final classification attempt. Malformed frames are skipped and counted.
//
// The returned error is either ctx.Err(), an error from the sink, or a read
// error from src. io.EOF is not an error.
func Decode(ctx context.Context, src io.Reader, sink Sink, opts ...DecodeOption) (Result, error) {
	o := decodeOptions{readSize: defaultReadSize}
	for _, opt := range opts {
		opt(&o)
	}

	var res Result
	reassembler := NewReassembler()
	buf := make([]byte, o.readSize)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			res.Chunks++
			done, err := process(reassembler.Feed(string(buf[:n])), sink, &res, o.logger)
			if err != nil || done {
				return res, err
			}
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				return res, readErr
			}

			if n := reassembler.Pending(); n > 0 && o.logger != nil {
				o.logger.Debug("source ended mid-line, classifying the partial line", "bytes", n)
			}
			_, err := process(reassembler.Flush(), sink, &res, o.logger)
			return res, err
		}
	}
}

// process classifies lines in order. It reports done=true as soon as a
// sentinel is seen, leaving any later lines unprocessed.
func process(lines []string, sink Sink, res *Result, logger *slog.Logger) (bool, error) {
	for _, line := range lines {
		res.Lines++

		ev, kind, err := Classify(line)
		switch kind {
		case KindDone:
			res.Done = true
			return true, nil

		case KindEvent:
			res.Events++
			if err := sink.Event(ev); err != nil {
				return false, err
			}

		default:
			if err != nil {
				res.Dropped++
				if logger != nil {
					logger.Debug("dropping malformed frame", "error", err)
				}
			}
		}
	}

	return false, nil
}
