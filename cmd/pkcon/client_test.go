package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPkcon(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pkcon Suite")
}

var _ = Describe("client", func() {
	It("allocates a tid and decodes the response", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/transactions"))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"tid":"abc-123"}`))
		}))
		defer srv.Close()

		c := newClient(srv.URL, 1000)
		tid, err := c.allocateTID(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(tid).To(Equal("abc-123"))
	})

	It("surfaces a non-2xx response as an error", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"transaction not found"}`))
		}))
		defer srv.Close()

		c := newClient(srv.URL, 0)
		Expect(c.cancel(context.Background(), "missing")).To(MatchError(ContainSubstring("transaction not found")))
	})

	It("streams SSE events until Finished", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("event: Package\ndata: {\"info\":\"available\"}\n\n"))
			w.Write([]byte("event: Finished\ndata: {\"exit\":\"success\"}\n\n"))
		}))
		defer srv.Close()

		c := newClient(srv.URL, 0)
		var names []string
		err := c.streamSignals(context.Background(), "tid-1", func(sig signal) {
			names = append(names, sig.Name)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{"Package", "Finished"}))
	})
})
