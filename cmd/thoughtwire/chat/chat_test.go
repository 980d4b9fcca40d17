package chatcmder

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtwire/pkg/dotdir"
)

var _ = Describe("NewChatCmd", func() {
	It("registers the client and render flags", func() {
		cmd := NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))

		for _, name := range []string{"relay-target", "api-target", "user-id", "profile", "window-ms", "chat-id", "new"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().ShorthandLookup("p").Name).To(Equal("profile"))
		Expect(cmd.Flags().Lookup("window-ms").DefValue).To(Equal("300"))
		Expect(cmd.Flags().Lookup("profile").DefValue).To(Equal("auto"))
	})

	It("rejects positional arguments", func() {
		cmd := NewChatCmd()
		Expect(cmd.Args(cmd, []string{"hello"})).To(HaveOccurred())
	})
})

var _ = Describe("resolveSession", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "thoughtwire-chat-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(dir) })
	})

	It("starts and saves a fresh session when none exists", func() {
		c := &chatCommander{configDir: dir}
		session, err := c.resolveSession()
		Expect(err).NotTo(HaveOccurred())
		Expect(session.ChatID).NotTo(BeEmpty())
		Expect(session.StartedAt.IsZero()).To(BeFalse())

		Expect(filepath.Join(dir, "session.json")).To(BeAnExistingFile())
	})

	It("resumes the saved session", func() {
		first, err := (&chatCommander{configDir: dir}).resolveSession()
		Expect(err).NotTo(HaveOccurred())

		second, err := (&chatCommander{configDir: dir}).resolveSession()
		Expect(err).NotTo(HaveOccurred())
		Expect(second.ChatID).To(Equal(first.ChatID))
	})

	It("starts over with --new", func() {
		first, err := (&chatCommander{configDir: dir}).resolveSession()
		Expect(err).NotTo(HaveOccurred())

		second, err := (&chatCommander{configDir: dir, newChat: true}).resolveSession()
		Expect(err).NotTo(HaveOccurred())
		Expect(second.ChatID).NotTo(Equal(first.ChatID))
	})

	It("joins an explicit chat id and remembers it", func() {
		session, err := (&chatCommander{configDir: dir, chatID: "chat-42", userID: "ada"}).resolveSession()
		Expect(err).NotTo(HaveOccurred())
		Expect(session.ChatID).To(Equal("chat-42"))
		Expect(session.UserID).To(Equal("ada"))

		saved, err := dotdir.NewManager().LoadChatSession(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.ChatID).To(Equal("chat-42"))
		Expect(saved.UserID).To(Equal("ada"))
	})
})

var _ = Describe("debugLogPath", func() {
	It("prefers --log-file", func() {
		path, err := (&chatCommander{logFile: "/tmp/chat-debug.log"}).debugLogPath()
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/chat-debug.log"))
	})

	It("defaults to chat.log in the config directory", func() {
		dir := GinkgoT().TempDir()
		path, err := (&chatCommander{configDir: dir}).debugLogPath()
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "chat.log")))
	})
})
