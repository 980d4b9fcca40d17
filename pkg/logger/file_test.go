package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtwire/pkg/logger"
)

// brokenHandler accepts every level and fails every write.
type brokenHandler struct{}

func (brokenHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (brokenHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }
func (h brokenHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h brokenHandler) WithGroup(string) slog.Handler           { return h }

var _ = Describe("Log files", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	readLines := func(path string) []map[string]any {
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		var out []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			var parsed map[string]any
			Expect(json.Unmarshal([]byte(line), &parsed)).To(Succeed())
			out = append(out, parsed)
		}
		return out
	}

	Describe("OpenFile", func() {
		It("appends JSON records with source locations", func() {
			path := filepath.Join(dir, "relay.log")
			l, f, err := logger.OpenFile(path, false)
			Expect(err).NotTo(HaveOccurred())

			l.Debug("hidden")
			l.Info("session finished", "events", 3)
			Expect(f.Close()).To(Succeed())

			lines := readLines(path)
			Expect(lines).To(HaveLen(1))
			Expect(lines[0]["msg"]).To(Equal("session finished"))
			Expect(lines[0]["events"]).To(BeNumerically("==", 3))
			Expect(lines[0]).To(HaveKey(slog.SourceKey))
		})

		It("fails for a missing directory", func() {
			_, _, err := logger.OpenFile(filepath.Join(dir, "missing", "relay.log"), false)
			Expect(err).To(MatchError(ContainSubstring("opening log file")))
		})
	})

	Describe("Console", func() {
		It("returns a no-op close without a log file", func() {
			l, closeFn, err := logger.Console(false, true, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(l).NotTo(BeNil())
			Expect(closeFn()).To(Succeed())
		})

		It("copies every record into the log file", func() {
			path := filepath.Join(dir, "serve.log")
			l, closeFn, err := logger.Console(true, true, path)
			Expect(err).NotTo(HaveOccurred())

			l.With("service", "relay").Debug("accepted chat query")
			Expect(closeFn()).To(Succeed())

			lines := readLines(path)
			Expect(lines).To(HaveLen(1))
			Expect(lines[0]["service"]).To(Equal("relay"))
			Expect(lines[0]["level"]).To(Equal("DEBUG"))
		})
	})

	Describe("Multi", func() {
		It("skips nil loggers", func() {
			var buf bytes.Buffer
			multi := logger.Multi(nil, logger.New(logger.WithWriter(&buf)))
			multi.Info("kept")
			Expect(buf.String()).To(ContainSubstring("kept"))
		})

		It("keeps writing when one handler fails", func() {
			var buf bytes.Buffer
			multi := logger.Multi(slog.New(brokenHandler{}), logger.New(logger.WithWriter(&buf)))

			err := multi.Handler().Handle(context.Background(), slog.NewRecord(
				time.Now(), slog.LevelInfo, "still delivered", 0))
			Expect(err).To(MatchError("disk full"))
			Expect(buf.String()).To(ContainSubstring("still delivered"))
		})
	})
})
