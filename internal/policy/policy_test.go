package policy_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/policy"
)

func TestPolicy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Policy Suite")
}

var _ = Describe("Checker", func() {
	var checker *policy.Checker

	BeforeEach(func() {
		var err error
		checker, err = policy.NewFromBundle(context.Background(), "testdata")
		Expect(err).NotTo(HaveOccurred())
	})

	It("grants uid 0 any role", func() {
		granted, err := checker.CheckAuthorization(context.Background(), enums.RoleRemovePackages, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(granted).To(BeTrue())
	})

	It("grants install-packages for the allowlisted uid", func() {
		granted, err := checker.CheckAuthorization(context.Background(), enums.RoleInstallPackages, 1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(granted).To(BeTrue())
	})

	It("denies an unlisted uid/role combination", func() {
		granted, err := checker.CheckAuthorization(context.Background(), enums.RoleRemovePackages, 1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(granted).To(BeFalse())
	})

	It("answers CanAuthorize per action id", func() {
		yes, err := checker.CanAuthorize(context.Background(), "org.pkgbrokerd.always-allowed")
		Expect(err).NotTo(HaveOccurred())
		Expect(yes).To(Equal(enums.AuthorizeYes))

		interactive, err := checker.CanAuthorize(context.Background(), "org.pkgbrokerd.needs-prompt")
		Expect(err).NotTo(HaveOccurred())
		Expect(interactive).To(Equal(enums.AuthorizeInteractive))

		no, err := checker.CanAuthorize(context.Background(), "org.pkgbrokerd.unknown")
		Expect(err).NotTo(HaveOccurred())
		Expect(no).To(Equal(enums.AuthorizeNo))
	})
})

var _ = Describe("ParseCallerUID", func() {
	It("recovers the uid claim from an unverified token", func() {
		claims := policy.Claims{UID: 4242}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("test-secret"))
		Expect(err).NotTo(HaveOccurred())

		uid, err := policy.ParseCallerUID(signed)
		Expect(err).NotTo(HaveOccurred())
		Expect(uid).To(Equal(uint32(4242)))
	})
})
