package llm_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
)

var _ = Describe("ChatQuery", func() {
	DescribeTable("Validate",
		func(query string, valid bool) {
			err := llm.ChatQuery{UserQuery: query}.Validate()
			if valid {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(llm.ErrMissingUserQuery))
			}
		},
		Entry("plain text", "Hi", true),
		Entry("padded text", "  Hi  ", true),
		Entry("empty", "", false),
		Entry("whitespace only", " \t\n", false),
	)

	It("is persistent only with a chat id", func() {
		Expect(llm.ChatQuery{UserQuery: "Hi"}.Persistent()).To(BeFalse())
		Expect(llm.ChatQuery{UserQuery: "Hi", ChatID: "c1"}.Persistent()).To(BeTrue())
	})

	It("omits empty optional fields on the wire", func() {
		b, err := json.Marshal(llm.ChatQuery{UserQuery: "Hi"})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal(`{"user_query":"Hi"}`))
	})
})

var _ = Describe("ChatMessage", func() {
	q := llm.ChatQuery{UserQuery: "What is 2+2?", ChatID: "c1", UserID: "u1"}

	It("builds the user turn from the query", func() {
		before := time.Now().UTC()
		msg := llm.NewUserMessage(q)

		Expect(msg.ID).NotTo(BeEmpty())
		Expect(msg.ChatID).To(Equal("c1"))
		Expect(msg.UserID).To(Equal("u1"))
		Expect(msg.Text).To(Equal("What is 2+2?"))
		Expect(msg.Role).To(Equal(llm.RoleUser))
		Expect(msg.Type).To(Equal(llm.MessageTypeText))
		Expect(msg.CreatedAt).To(BeTemporally(">=", before))
		Expect(msg.CreatedAt.Location()).To(Equal(time.UTC))
	})

	It("builds the assistant turn with the accumulated text", func() {
		msg := llm.NewAssistantMessage(q, "It is 4.")

		Expect(msg.Role).To(Equal(llm.RoleAssistant))
		Expect(msg.Text).To(Equal("It is 4."))
		Expect(msg.ChatID).To(Equal("c1"))
	})

	It("gives every message a distinct id", func() {
		Expect(llm.NewUserMessage(q).ID).NotTo(Equal(llm.NewUserMessage(q).ID))
	})
})
