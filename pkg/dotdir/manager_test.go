package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtwire/pkg/dotdir"
)

// isolate moves the test into an empty working directory with an empty HOME.
func isolate(tmpDir string) string {
	emptyDir := filepath.Join(tmpDir, "empty")
	Expect(os.Mkdir(emptyDir, 0o755)).To(Succeed())

	origDir, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())
	Expect(os.Chdir(emptyDir)).To(Succeed())
	DeferCleanup(func() { os.Chdir(origDir) })

	GinkgoT().Setenv("HOME", emptyDir)
	return emptyDir
}

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Target", func() {
		It("creates the override directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns the override dir even when a local .thoughtwire dir exists", func() {
			emptyDir := isolate(tmpDir)
			Expect(os.Mkdir(filepath.Join(emptyDir, ".thoughtwire"), 0o755)).To(Succeed())

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .thoughtwire dir when no override is provided", func() {
			emptyDir := isolate(tmpDir)
			local := filepath.Join(emptyDir, ".thoughtwire")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to the home .thoughtwire dir", func() {
			emptyDir := isolate(tmpDir)
			sub := filepath.Join(emptyDir, "project")
			Expect(os.Mkdir(sub, 0o755)).To(Succeed())
			Expect(os.Chdir(sub)).To(Succeed())

			home := filepath.Join(emptyDir, ".thoughtwire")
			Expect(os.Mkdir(home, 0o755)).To(Succeed())

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(home))
		})

		It("returns empty string when nothing resolves", func() {
			isolate(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeEmpty())
		})
	})

	Describe("EnsureTarget", func() {
		It("creates the home directory when nothing resolves", func() {
			emptyDir := isolate(tmpDir)

			result, err := m.EnsureTarget("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(emptyDir, ".thoughtwire")))
			Expect(result).To(BeADirectory())
		})
	})
})
