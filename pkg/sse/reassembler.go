package sse

import "strings"

// Reassembler turns an ordered sequence of text chunks into complete protocol
// lines. A trailing fragment without a newline is retained across calls to
// Feed until more text arrives or Flush is called at end of stream.
//
// Regardless of where chunk boundaries fall, the emitted line sequence is
// identical to what a single unsplit chunk would produce.
//
// A Reassembler is request-scoped and not safe for concurrent use.
type Reassembler struct {
	pending strings.Builder
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Feed appends chunk to the internal buffer and returns every complete line,
// in order, without its line terminator. The last fragment, which may be
// empty, is retained.
func (r *Reassembler) Feed(chunk string) []string {
	if !strings.Contains(chunk, "\n") {
		r.pending.WriteString(chunk)
		return nil
	}

	r.pending.WriteString(chunk)
	parts := strings.Split(r.pending.String(), "\n")

	r.pending.Reset()
	r.pending.WriteString(parts[len(parts)-1])

	lines := parts[:len(parts)-1]
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Flush returns whatever is still retained, split one final time, and resets
// the buffer. The retained fragment may hold a complete last line that was
// never terminated by a newline. An empty buffer yields no lines.
func (r *Reassembler) Flush() []string {
	rest := r.pending.String()
	r.pending.Reset()

	if rest == "" {
		return nil
	}

	lines := strings.Split(rest, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Pending returns the number of bytes currently retained.
func (r *Reassembler) Pending() int {
	return r.pending.Len()
}
