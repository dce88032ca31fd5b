package main

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPkgbrokerd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pkgbrokerd Suite")
}

var _ = Describe("resolveConfiguration", func() {
	It("builds a Configuration from flag defaults when no --config is given", func() {
		cmd := newRootCommand()
		Expect(cmd.ParseFlags(nil)).To(Succeed())
		Expect(cmd.PersistentPreRunE(cmd, nil)).To(Succeed())

		cfg, err := resolveConfiguration()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.ServerMode).To(Equal("dev"))
		Expect(cfg.Server.HTTPPort).To(Equal(8000))
		Expect(cfg.Broker.BackendName).To(Equal("memory"))
	})

	It("honors an overridden --http-port", func() {
		cmd := newRootCommand()
		Expect(cmd.ParseFlags([]string{"--http-port=9100", "--backend-name=remote"})).To(Succeed())
		Expect(cmd.PersistentPreRunE(cmd, nil)).To(Succeed())

		cfg, err := resolveConfiguration()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.HTTPPort).To(Equal(9100))
		Expect(cfg.Broker.BackendName).To(Equal("remote"))
	})
})

var _ = Describe("selectBackend", func() {
	It("falls back to the memory backend for an unknown name", func() {
		be := selectBackend("some-remote-backend")
		Expect(be.Descriptor.Name).To(Equal("test-succeed"))
	})
})
