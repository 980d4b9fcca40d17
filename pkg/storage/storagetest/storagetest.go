// Package storagetest provides a shared ginkgo conformance suite for
// storage.Driver implementations.
package storagetest

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
	"github.com/papercomputeco/thoughtwire/pkg/storage"
)

// Message builds a message at the given offset from a fixed base time.
func Message(chatID, role, text string, offset time.Duration) *llm.ChatMessage {
	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	return &llm.ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		UserID:    "user-1",
		Text:      text,
		Role:      role,
		Type:      llm.MessageTypeText,
		CreatedAt: base.Add(offset),
	}
}

// DriverConformance registers specs every storage.Driver must pass. newDriver
// is called before each test and the returned driver is closed after it.
func DriverConformance(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
			driver = nil
		}
	})

	Describe("InsertMessage and ListMessages", func() {
		It("stores and retrieves a message", func() {
			msg := Message("chat-1", llm.RoleUser, "Why is the sky blue?", 0)
			Expect(driver.InsertMessage(ctx, msg)).To(Succeed())

			got, err := driver.ListMessages(ctx, "chat-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].ID).To(Equal(msg.ID))
			Expect(got[0].ChatID).To(Equal("chat-1"))
			Expect(got[0].UserID).To(Equal("user-1"))
			Expect(got[0].Text).To(Equal("Why is the sky blue?"))
			Expect(got[0].Role).To(Equal(llm.RoleUser))
			Expect(got[0].Type).To(Equal(llm.MessageTypeText))
			Expect(got[0].CreatedAt).To(BeTemporally("~", msg.CreatedAt, time.Millisecond))
		})

		It("returns messages oldest first", func() {
			assistant := Message("chat-1", llm.RoleAssistant, "Rayleigh scattering.", 2*time.Second)
			user := Message("chat-1", llm.RoleUser, "Why is the sky blue?", time.Second)

			Expect(driver.InsertMessage(ctx, assistant)).To(Succeed())
			Expect(driver.InsertMessage(ctx, user)).To(Succeed())

			got, err := driver.ListMessages(ctx, "chat-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[0].Role).To(Equal(llm.RoleUser))
			Expect(got[1].Role).To(Equal(llm.RoleAssistant))
		})

		It("isolates chats from each other", func() {
			Expect(driver.InsertMessage(ctx, Message("chat-1", llm.RoleUser, "one", 0))).To(Succeed())
			Expect(driver.InsertMessage(ctx, Message("chat-2", llm.RoleUser, "two", 0))).To(Succeed())

			got, err := driver.ListMessages(ctx, "chat-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Text).To(Equal("two"))
		})

		It("returns an empty slice for an unknown chat", func() {
			got, err := driver.ListMessages(ctx, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).NotTo(BeNil())
			Expect(got).To(BeEmpty())
		})

		It("preserves multi-byte text", func() {
			msg := Message("chat-1", llm.RoleAssistant, "héllo wörld 🌍", 0)
			Expect(driver.InsertMessage(ctx, msg)).To(Succeed())

			got, err := driver.ListMessages(ctx, "chat-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got[0].Text).To(Equal("héllo wörld 🌍"))
		})

		It("rejects a message without a chat id", func() {
			msg := Message("", llm.RoleUser, "orphan", 0)
			Expect(driver.InsertMessage(ctx, msg)).To(MatchError(storage.ErrInvalidMessage))
		})

		It("rejects a nil message", func() {
			Expect(driver.InsertMessage(ctx, nil)).To(MatchError(storage.ErrInvalidMessage))
		})

		It("rejects a duplicate message id", func() {
			msg := Message("chat-1", llm.RoleUser, "once", 0)
			Expect(driver.InsertMessage(ctx, msg)).To(Succeed())
			Expect(driver.InsertMessage(ctx, msg)).NotTo(Succeed())
		})
	})
}
