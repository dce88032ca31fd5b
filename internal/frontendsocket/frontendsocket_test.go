package frontendsocket_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opkgd/pkgbrokerd/internal/frontendsocket"
)

func TestFrontendsocket(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Frontendsocket Suite")
}

var _ = Describe("Dial", func() {
	It("connects to an already-listening unix socket and exchanges bytes unchanged", func() {
		sockPath := filepath.Join(os.TempDir(), "frontendsocket-test.sock")
		os.Remove(sockPath)
		ln, err := net.Listen("unix", sockPath)
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()
		defer os.Remove(sockPath)

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			buf := make([]byte, 5)
			conn.Read(buf)
			conn.Write(buf)
		}()

		conn, err := frontendsocket.Dial(context.Background(), sockPath)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		_, err = conn.Write([]byte("hello"))
		Expect(err).NotTo(HaveOccurred())

		reply := make([]byte, 5)
		_, err = conn.Read(reply)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(reply)).To(Equal("hello"))
	})

	It("errors when nothing is listening", func() {
		_, err := frontendsocket.Dial(context.Background(), filepath.Join(os.TempDir(), "frontendsocket-missing.sock"))
		Expect(err).To(HaveOccurred())
	})
})
