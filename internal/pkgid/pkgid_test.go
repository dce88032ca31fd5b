package pkgid_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opkgd/pkgbrokerd/internal/pkgid"
)

func TestPkgID(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PkgID Suite")
}

var _ = Describe("ID", func() {
	Context("Parse", func() {
		It("round-trips a well-formed id", func() {
			id, err := pkgid.Parse("hello;2.10;noarch;fedora")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(pkgid.ID{Name: "hello", Version: "2.10", Architecture: "noarch", Data: "fedora"}))
			Expect(id.String()).To(Equal("hello;2.10;noarch;fedora"))
		})

		It("preserves an empty data component", func() {
			id, err := pkgid.Parse("hello;2.10;noarch;")
			Expect(err).NotTo(HaveOccurred())
			Expect(id.Data).To(Equal(""))
			Expect(id.String()).To(Equal("hello;2.10;noarch;"))
		})

		It("rejects a string without exactly three separators", func() {
			_, err := pkgid.Parse("hello;2.10;noarch")
			Expect(err).To(HaveOccurred())

			_, err = pkgid.Parse("hello;2.10;noarch;fedora;extra")
			Expect(err).To(HaveOccurred())
		})

		It("rejects an empty name", func() {
			_, err := pkgid.Parse(";2.10;noarch;fedora")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("equality", func() {
		a := pkgid.ID{Name: "hello", Version: "2.10", Architecture: "x86_64", Data: "fedora"}
		b := pkgid.ID{Name: "hello", Version: "2.10", Architecture: "noarch", Data: "fedora"}

		It("Equal requires all four components", func() {
			Expect(a.Equal(b)).To(BeFalse())
			Expect(a.Equal(a)).To(BeTrue())
		})

		It("EqualFuzzyArch ignores architecture", func() {
			Expect(a.EqualFuzzyArch(b)).To(BeTrue())
		})
	})

	Context("ParseList", func() {
		It("rejects an empty list", func() {
			_, err := pkgid.ParseList(nil)
			Expect(err).To(HaveOccurred())
		})

		It("rejects the whole list if any element fails to parse", func() {
			_, err := pkgid.ParseList([]string{"hello;2.10;noarch;fedora", "bad"})
			Expect(err).To(HaveOccurred())
		})

		It("parses every element of a valid list", func() {
			ids, err := pkgid.ParseList([]string{"a;1;noarch;", "b;2;x86_64;repo"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(HaveLen(2))
		})
	})
})
