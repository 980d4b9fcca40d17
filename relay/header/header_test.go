package header

import (
	"net/http"
	"net/http/httptest"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("UpstreamRequestHeaders", func() {
	var (
		app *fiber.App
		hh  *Handler
		got http.Header
	)

	BeforeEach(func() {
		app = fiber.New()
		hh = NewHandler()
		app.Post("/test", func(c *fiber.Ctx) error {
			got = hh.UpstreamRequestHeaders(c)
			return c.SendStatus(fiber.StatusOK)
		})
	})

	AfterEach(func() {
		app.Shutdown()
	})

	send := func(headers map[string]string) {
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
	}

	It("forwards credentials and custom headers", func() {
		send(map[string]string{
			"Authorization": "Bearer token123",
			"X-Request-Id":  "req-1",
		})

		Expect(got.Get("Authorization")).To(Equal("Bearer token123"))
		Expect(got.Get("X-Request-Id")).To(Equal("req-1"))
	})

	It("strips hop-by-hop and negotiation headers", func() {
		send(map[string]string{
			"Connection":      "keep-alive",
			"Accept-Encoding": "gzip",
			"Content-Type":    "application/json",
			"Accept":          "*/*",
		})

		Expect(got.Get("Connection")).To(BeEmpty())
		Expect(got.Get("Accept-Encoding")).To(BeEmpty())
		Expect(got.Get("Content-Type")).To(BeEmpty())
		Expect(got.Get("Accept")).To(BeEmpty())
		Expect(got.Get("Host")).To(BeEmpty())
	})

	It("strips browser-only headers", func() {
		send(map[string]string{
			"Cookie": "session=abc",
			"Origin": "http://localhost:3000",
		})

		Expect(got.Get("Cookie")).To(BeEmpty())
		Expect(got.Get("Origin")).To(BeEmpty())
	})
})

var _ = Describe("SetStreamResponseHeaders", func() {
	It("marks the response as an event stream", func() {
		app := fiber.New()
		defer app.Shutdown()

		hh := NewHandler()
		app.Get("/stream", func(c *fiber.Ctx) error {
			hh.SetStreamResponseHeaders(c)
			return c.SendString("data: [DONE]\n\n")
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stream", nil))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))
		Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache"))
		Expect(resp.Header.Get("X-Accel-Buffering")).To(Equal("no"))
	})
})
