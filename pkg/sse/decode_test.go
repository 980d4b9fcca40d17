package sse_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtwire/pkg/logger"
	"github.com/papercomputeco/thoughtwire/pkg/sse"
)

// collect returns a sink that records every event it receives.
func collect(events *[]sse.Event) sse.Sink {
	return sse.SinkFunc(func(ev sse.Event) error {
		*events = append(*events, ev)
		return nil
	})
}

var _ = Describe("Decode", func() {
	var (
		ctx    context.Context
		events []sse.Event
	)

	BeforeEach(func() {
		ctx = context.Background()
		events = nil
	})

	It("decodes a complete stream terminated by [DONE]", func() {
		src := strings.NewReader(
			"data: {\"type\":\"thought_stream\",\"message\":\"Hello \"}\n\n" +
				"data: {\"type\":\"thought_stream\",\"message\":\"world.\"}\n\n" +
				"data: [DONE]\n\n",
		)

		res, err := sse.Decode(ctx, src, collect(&events))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Done).To(BeTrue())
		Expect(res.Events).To(Equal(2))
		Expect(events).To(Equal([]sse.Event{
			{Type: sse.TypeThoughtStream, Message: "Hello "},
			{Type: sse.TypeThoughtStream, Message: "world."},
		}))
	})

	It("processes nothing after [DONE], even in the same chunk", func() {
		src := strings.NewReader(
			"data: {\"message\":\"before\"}\n\n" +
				"data: [DONE]\n\n" +
				"data: {\"message\":\"after\"}\n\n",
		)

		res, err := sse.Decode(ctx, src, collect(&events))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Done).To(BeTrue())
		Expect(events).To(HaveLen(1))
		Expect(events[0].Message).To(Equal("before"))
	})

	It("drops exactly one malformed line and keeps going", func() {
		src := strings.NewReader(
			"data: {\"message\":\"one\"}\n\n" +
				"data: not-json\n\n" +
				"data: {\"message\":\"two\"}\n\n",
		)

		res, err := sse.Decode(ctx, src, collect(&events), sse.WithLogger(logger.Nop()))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Done).To(BeFalse())
		Expect(res.Dropped).To(Equal(1))
		Expect(events).To(Equal([]sse.Event{
			{Type: sse.TypeThoughtStream, Message: "one"},
			{Type: sse.TypeThoughtStream, Message: "two"},
		}))
	})

	It("logs dropped frames at debug level", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true), logger.WithJSON(true))

		_, err := sse.Decode(ctx, strings.NewReader("data: {oops\n"), collect(&events), sse.WithLogger(l))
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("dropping malformed frame"))
	})

	It("gives an unterminated final line one last chance", func() {
		src := strings.NewReader("data: {\"message\":\"a\"}\n\ndata: {\"message\":\"tail\"}")

		res, err := sse.Decode(ctx, src, collect(&events))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Done).To(BeFalse())
		Expect(events).To(HaveLen(2))
		Expect(events[1].Message).To(Equal("tail"))
	})

	It("logs the size of a partial line left at end of source", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
		src := strings.NewReader("data: {\"message\":\"tail\"}")

		_, err := sse.Decode(ctx, src, collect(&events), sse.WithLogger(l))
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("source ended mid-line"))
		Expect(buf.String()).To(ContainSubstring("bytes=24"))
	})

	It("discards an unterminated final line that is still incomplete", func() {
		src := strings.NewReader("data: {\"message\":\"a\"}\n\ndata: {\"message\":\"ta")

		res, err := sse.Decode(ctx, src, collect(&events))
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(res.Dropped).To(Equal(1))
	})

	It("recognizes an unterminated [DONE] at end of source", func() {
		res, err := sse.Decode(ctx, strings.NewReader("data: {\"message\":\"a\"}\n\ndata: [DONE]"), collect(&events))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Done).To(BeTrue())
	})

	It("decodes identically when the source returns one byte per read", func() {
		input := "data: {\"message\":\"x\\\"y\"}\n\ndata: not-json\n\ndata: {\"type\":\"final\",\"message\":\"z\"}\n\ndata: [DONE]\n\n"

		var whole []sse.Event
		_, err := sse.Decode(ctx, strings.NewReader(input), collect(&whole))
		Expect(err).NotTo(HaveOccurred())

		res, err := sse.Decode(ctx, iotest.OneByteReader(strings.NewReader(input)), collect(&events))
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(Equal(whole))
		Expect(res.Chunks).To(Equal(len(input) - len("\n")))
	})

	It("returns sink errors unchanged and stops", func() {
		stop := errors.New("client gone")
		calls := 0
		sink := sse.SinkFunc(func(sse.Event) error {
			calls++
			return stop
		})

		_, err := sse.Decode(ctx, strings.NewReader("data: {\"message\":\"a\"}\ndata: {\"message\":\"b\"}\n"), sink)
		Expect(err).To(MatchError(stop))
		Expect(calls).To(Equal(1))
	})

	It("returns read errors", func() {
		boom := errors.New("connection reset")
		src := io.MultiReader(strings.NewReader("data: {\"message\":\"a\"}\n"), iotest.ErrReader(boom))

		_, err := sse.Decode(ctx, src, collect(&events))
		Expect(err).To(MatchError(boom))
		Expect(events).To(HaveLen(1))
	})

	It("stops when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := sse.Decode(cancelled, strings.NewReader("data: {\"message\":\"a\"}\n"), collect(&events))
		Expect(err).To(MatchError(context.Canceled))
		Expect(events).To(BeEmpty())
	})
})
