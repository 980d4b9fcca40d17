package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/thoughtwire/pkg/eventstream"
	"github.com/papercomputeco/thoughtwire/pkg/eventstream/kafka"
	"github.com/papercomputeco/thoughtwire/pkg/llm"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var event *eventstream.MessagePersistedEvent

	BeforeEach(func() {
		event = eventstream.NewMessagePersistedEvent(llm.ChatMessage{
			ID:     "m1",
			ChatID: "chat-42",
			Text:   "Hello world.",
			Role:   llm.RoleAssistant,
			Type:   llm.MessageTypeText,
		}, eventstream.StreamMeta{})
	})

	It("requires brokers when no writer is provided", func() {
		_, err := kafka.NewPublisher(kafka.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("builds a writer from brokers with the default topic", func() {
		p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Topic()).To(Equal(kafka.DefaultTopic))
		Expect(p.Close()).To(Succeed())
	})

	It("writes the event keyed by chat id", func() {
		w := &recordingWriter{}
		p, err := kafka.NewPublisher(kafka.Config{Writer: w, Topic: "chats"})
		Expect(err).NotTo(HaveOccurred())

		Expect(p.PublishMessage(context.Background(), event)).To(Succeed())
		Expect(w.msgs).To(HaveLen(1))
		Expect(string(w.msgs[0].Key)).To(Equal("chat-42"))

		var decoded eventstream.MessagePersistedEvent
		Expect(json.Unmarshal(w.msgs[0].Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal(event.EventID))
		Expect(decoded.Message.Text).To(Equal("Hello world."))
	})

	It("wraps writer failures", func() {
		w := &recordingWriter{err: errors.New("broker down")}
		p, err := kafka.NewPublisher(kafka.Config{Writer: w})
		Expect(err).NotTo(HaveOccurred())

		err = p.PublishMessage(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		w := &recordingWriter{}
		p, err := kafka.NewPublisher(kafka.Config{Writer: w})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})

	Describe("BuildMessage", func() {
		It("rejects nil events", func() {
			_, err := kafka.BuildMessage(nil)
			Expect(err).To(MatchError(eventstream.ErrNilEvent))
		})

		It("carries event metadata in headers", func() {
			msg, err := kafka.BuildMessage(event)
			Expect(err).NotTo(HaveOccurred())

			headers := map[string]string{}
			for _, h := range msg.Headers {
				headers[h.Key] = string(h.Value)
			}
			Expect(headers).To(HaveKeyWithValue("event_type", eventstream.EventTypeMessagePersisted))
			Expect(headers).To(HaveKeyWithValue("schema_version", "1"))
			Expect(headers).To(HaveKeyWithValue("role", llm.RoleAssistant))
			Expect(msg.Time).To(Equal(event.EmittedAt))
		})
	})
})
