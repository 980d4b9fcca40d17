package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

var doneFrame = []byte("data: " + DoneSentinel + "\n\n")

// EncodeFrame serializes ev as a single "data: <json>\n\n" frame.
func EncodeFrame(ev Event) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("data: ")

	// Messages are model narration, not HTML; keep <, > and & verbatim.
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}

	// Encode terminates the payload with one newline; frames need two.
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Writer writes normalized frames to an outbound stream. Every frame is
// written immediately with a single Write call; there is no batching.
//
// A Writer has a single owner and is not safe for concurrent use.
type Writer struct {
	w      io.Writer
	frames int
}

// NewWriter returns a Writer that frames events onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteEvent writes ev as one data frame.
func (fw *Writer) WriteEvent(ev Event) error {
	frame, err := EncodeFrame(ev)
	if err != nil {
		return err
	}

	if _, err := fw.w.Write(frame); err != nil {
		return err
	}
	fw.frames++
	return nil
}

// WriteDone writes the terminal [DONE] frame.
func (fw *Writer) WriteDone() error {
	if _, err := fw.w.Write(doneFrame); err != nil {
		return err
	}
	fw.frames++
	return nil
}

// Frames returns the number of frames successfully written.
func (fw *Writer) Frames() int {
	return fw.frames
}
