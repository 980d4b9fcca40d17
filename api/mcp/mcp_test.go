package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtwire/api/mcp"
	"github.com/papercomputeco/thoughtwire/pkg/logger"
	"github.com/papercomputeco/thoughtwire/pkg/storage/inmemory"
)

var _ = Describe("MCP Server", func() {
	Describe("NewServer", func() {
		It("returns an error when storage driver is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("storage driver is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Storer: inmemory.NewDriver()})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("creates an empty server when noop", func() {
			server, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			server, err := mcp.NewServer(mcp.Config{
				Storer: inmemory.NewDriver(),
				Logger: logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})
})
