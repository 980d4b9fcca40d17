package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
	"github.com/papercomputeco/thoughtwire/pkg/storage"
	"github.com/papercomputeco/thoughtwire/pkg/storage/sqlite"
	"github.com/papercomputeco/thoughtwire/pkg/storage/storagetest"
)

var _ = Describe("Driver", func() {
	storagetest.DriverConformance(func() storage.Driver {
		d, err := sqlite.NewDriver(context.Background(), ":memory:")
		Expect(err).NotTo(HaveOccurred())
		return d
	})

	Describe("NewDriver", func() {
		It("creates a driver with file database", func() {
			tmpDir := GinkgoT().TempDir()
			dbPath := filepath.Join(tmpDir, "test.db")

			s, err := sqlite.NewDriver(context.Background(), dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			// Verify file was created
			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps messages across reopen", func() {
			ctx := context.Background()
			dbPath := filepath.Join(GinkgoT().TempDir(), "reopen.db")

			s, err := sqlite.NewDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.InsertMessage(ctx, storagetest.Message("chat-1", llm.RoleUser, "persisted", 0))).To(Succeed())
			Expect(s.Close()).To(Succeed())

			s, err = sqlite.NewDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			got, err := s.ListMessages(ctx, "chat-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Text).To(Equal("persisted"))
		})
	})

	Describe("Truncate", func() {
		It("removes every message", func() {
			ctx := context.Background()
			s, err := sqlite.NewDriver(ctx, ":memory:")
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			Expect(s.InsertMessage(ctx, storagetest.Message("chat-1", llm.RoleUser, "gone", 0))).To(Succeed())
			Expect(s.Truncate(ctx)).To(Succeed())

			got, err := s.ListMessages(ctx, "chat-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})
	})
})
