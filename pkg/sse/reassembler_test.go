package sse_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtwire/pkg/sse"
)

// feedSplit feeds input to a fresh Reassembler split at the given byte
// offsets and returns every line produced, including the final flush.
func feedSplit(input string, cuts ...int) []string {
	r := sse.NewReassembler()
	var lines []string

	prev := 0
	for _, cut := range cuts {
		lines = append(lines, r.Feed(input[prev:cut])...)
		prev = cut
	}
	lines = append(lines, r.Feed(input[prev:])...)
	lines = append(lines, r.Flush()...)
	return lines
}

var _ = Describe("Reassembler", func() {
	const (
		first  = "data: {\"type\":\"thought_stream\",\"message\":\"Hello \"}\n\n"
		second = "data: {\"message\":\"say \\\"hi\\\"\\n\"}\n\n"
		stream = first + second + "data: [DONE]\n\n"
	)

	It("yields complete lines and retains the trailing fragment", func() {
		r := sse.NewReassembler()

		Expect(r.Feed("data: one\ndata: tw")).To(Equal([]string{"data: one"}))
		Expect(r.Pending()).To(Equal(len("data: tw")))

		Expect(r.Feed("o\n")).To(Equal([]string{"data: two"}))
		Expect(r.Pending()).To(BeZero())
	})

	It("returns nothing until a newline arrives", func() {
		r := sse.NewReassembler()
		Expect(r.Feed("data: ")).To(BeEmpty())
		Expect(r.Feed("{\"message\":")).To(BeEmpty())
		Expect(r.Feed("\"x\"}")).To(BeEmpty())
		Expect(r.Feed("\n")).To(Equal([]string{"data: {\"message\":\"x\"}"}))
	})

	It("keeps blank separator lines in order", func() {
		r := sse.NewReassembler()
		Expect(r.Feed("data: a\n\ndata: b\n\n")).To(Equal([]string{"data: a", "", "data: b", ""}))
	})

	It("strips carriage returns from CRLF line endings", func() {
		r := sse.NewReassembler()
		Expect(r.Feed("data: a\r\n\r\n")).To(Equal([]string{"data: a", ""}))
	})

	Describe("Flush", func() {
		It("emits an unterminated final line", func() {
			r := sse.NewReassembler()
			Expect(r.Feed("data: a\ndata: last")).To(Equal([]string{"data: a"}))
			Expect(r.Flush()).To(Equal([]string{"data: last"}))
		})

		It("returns nothing when the buffer is empty", func() {
			r := sse.NewReassembler()
			r.Feed("data: a\n")
			Expect(r.Flush()).To(BeEmpty())
		})

		It("resets the buffer", func() {
			r := sse.NewReassembler()
			r.Feed("partial")
			r.Flush()
			Expect(r.Pending()).To(BeZero())
			Expect(r.Flush()).To(BeEmpty())
		})
	})

	Describe("split independence", func() {
		It("produces the same lines for every single split point", func() {
			expected := feedSplit(stream)
			for cut := 0; cut <= len(stream); cut++ {
				Expect(feedSplit(stream, cut)).To(Equal(expected), "split at %d", cut)
			}
		})

		It("produces the same lines for every pair of split points", func() {
			expected := feedSplit(stream)
			for a := 0; a <= len(stream); a++ {
				for b := a; b <= len(stream); b++ {
					Expect(feedSplit(stream, a, b)).To(Equal(expected), "split at %d,%d", a, b)
				}
			}
		})

		It("survives a split inside a JSON escape sequence", func() {
			escape := len(first) + len("data: {\"message\":\"say \\")
			lines := feedSplit(stream, escape)
			Expect(lines).To(ContainElement("data: {\"message\":\"say \\\"hi\\\"\\n\"}"))
		})

		It("survives a split inside a multi-byte rune", func() {
			input := "data: {\"message\":\"héllo\"}\n"
			mid := len("data: {\"message\":\"h") + 1
			Expect(feedSplit(input, mid)).To(Equal(feedSplit(input)))
		})

		It("produces the same lines when fed one byte at a time", func() {
			cuts := make([]int, 0, len(stream))
			for i := 1; i < len(stream); i++ {
				cuts = append(cuts, i)
			}
			Expect(feedSplit(stream, cuts...)).To(Equal(feedSplit(stream)))
		})
	})
})
