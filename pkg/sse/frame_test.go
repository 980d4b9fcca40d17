package sse_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtwire/pkg/sse"
)

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

var _ = Describe("Frames", func() {
	It("encodes the canonical payload shape", func() {
		frame, err := sse.EncodeFrame(sse.Event{Type: sse.TypeThoughtStream, Message: "Hello "})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(frame)).To(Equal("data: {\"type\":\"thought_stream\",\"message\":\"Hello \"}\n\n"))
	})

	It("encodes synthesized error events with final set", func() {
		frame, err := sse.EncodeFrame(sse.NewErrorEvent("AI service error: boom"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(frame)).To(Equal("data: {\"type\":\"error\",\"message\":\"AI service error: boom\",\"final\":true}\n\n"))
	})

	It("does not HTML-escape messages", func() {
		frame, err := sse.EncodeFrame(sse.Event{Type: sse.TypeToolResult, Message: "<b>a & b</b>"})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(frame)).To(ContainSubstring(`"<b>a & b</b>"`))
	})

	It("round-trips through Classify", func() {
		ev := sse.Event{Type: sse.TypeFinal, Message: "line one\nline \"two\"", Final: true}
		frame, err := sse.EncodeFrame(ev)
		Expect(err).NotTo(HaveOccurred())

		lines := sse.NewReassembler().Feed(string(frame))
		Expect(lines).To(HaveLen(2))

		got, kind, err := sse.Classify(lines[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(kind).To(Equal(sse.KindEvent))
		Expect(got).To(Equal(ev))
	})

	Describe("Writer", func() {
		It("writes each event immediately followed by [DONE]", func() {
			var buf bytes.Buffer
			w := sse.NewWriter(&buf)

			Expect(w.WriteEvent(sse.Event{Type: sse.TypeThinking, Message: "hmm"})).To(Succeed())
			Expect(buf.String()).To(Equal("data: {\"type\":\"thinking\",\"message\":\"hmm\"}\n\n"))

			Expect(w.WriteDone()).To(Succeed())
			Expect(buf.String()).To(HaveSuffix("data: [DONE]\n\n"))
			Expect(w.Frames()).To(Equal(2))
		})

		It("surfaces write failures", func() {
			boom := errors.New("closed pipe")
			w := sse.NewWriter(failingWriter{err: boom})

			Expect(w.WriteEvent(sse.Event{Type: sse.TypeThinking, Message: "x"})).To(MatchError(boom))
			Expect(w.WriteDone()).To(MatchError(boom))
			Expect(w.Frames()).To(BeZero())
		})
	})
})
