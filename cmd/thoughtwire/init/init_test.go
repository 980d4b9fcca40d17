package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/thoughtwire/cmd/thoughtwire/init"
	"github.com/papercomputeco/thoughtwire/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "thoughtwire-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates a .thoughtwire directory with a default config.toml", func() {
		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Initialized .thoughtwire directory"))

		info, err := os.Stat(filepath.Join(tmpDir, ".thoughtwire"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Relay.Listen).To(Equal(":8080"))
		Expect(cfg.Relay.Upstream).To(Equal("http://localhost:8000"))
		Expect(cfg.API.Listen).To(Equal(":8081"))
		Expect(cfg.Render.Profile).To(Equal("auto"))
	})

	It("leaves an initialized directory alone", func() {
		dir := filepath.Join(tmpDir, ".thoughtwire")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[relay]\nlisten = \":9999\"\n"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "session.json"), []byte(`{"chat_id":"abc"}`), 0o600)).To(Succeed())

		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Already initialized"))

		Expect(loadConfig(tmpDir).Relay.Listen).To(Equal(":9999"))
		data, err := os.ReadFile(filepath.Join(dir, "session.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"chat_id":"abc"}`))
	})

	It("writes a config into an existing directory that has none", func() {
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".thoughtwire"), 0o755)).To(Succeed())

		_, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(loadConfig(tmpDir).API.Listen).To(Equal(":8081"))
	})

	Describe("--preset with named presets", func() {
		It("writes the local preset", func() {
			_, err := run("--preset", "local")
			Expect(err).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Storage.SQLitePath).To(Equal("thoughtwire.sqlite"))
			Expect(cfg.EventStream.Provider).To(Equal("nop"))
		})

		It("writes the postgres preset", func() {
			_, err := run("--preset", "postgres")
			Expect(err).NotTo(HaveOccurred())
			Expect(loadConfig(tmpDir).Storage.PostgresDSN).To(HavePrefix("postgres://"))
		})

		It("writes the kafka preset", func() {
			_, err := run("--preset", "kafka")
			Expect(err).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.EventStream.Provider).To(Equal("kafka"))
			Expect(cfg.EventStream.Brokers).To(Equal("localhost:9092"))
			Expect(cfg.EventStream.Topic).To(Equal("thoughtwire.messages"))
		})

		It("rejects unknown preset names", func() {
			_, err := run("--preset", "mainframe")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown preset"))
		})

		It("overwrites the config when re-run with a different preset", func() {
			_, err := run("--preset", "local")
			Expect(err).NotTo(HaveOccurred())

			out, err := run("--preset", "kafka")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Updated config"))
			Expect(loadConfig(tmpDir).EventStream.Provider).To(Equal("kafka"))
		})
	})

	Describe("--preset with a remote URL", func() {
		It("fetches and writes the remote config.toml", func() {
			remoteCfg := `version = 0

[relay]
upstream = "http://reasoner.internal:8000"
listen = ":9090"

[render]
profile = "compact"
window_ms = 500
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, remoteCfg)
			}))
			defer server.Close()

			_, err := run("--preset", server.URL)
			Expect(err).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Relay.Upstream).To(Equal("http://reasoner.internal:8000"))
			Expect(cfg.Relay.Listen).To(Equal(":9090"))
			Expect(cfg.Render.Profile).To(Equal("compact"))
			Expect(cfg.Render.WindowMS).To(Equal(uint(500)))
		})

		It("returns an error for a non-200 response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			_, err := run("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("HTTP 404"))
		})

		It("returns an error for invalid TOML", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			_, err := run("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing"))
		})

		It("returns an error for an unreachable URL", func() {
			_, err := run("--preset", "http://127.0.0.1:1")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("fetching remote config"))
		})
	})
})

// loadConfig reads and parses config.toml from the .thoughtwire directory
// within baseDir.
func loadConfig(baseDir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(baseDir, ".thoughtwire", "config.toml"))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	ExpectWithOffset(1, toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}
