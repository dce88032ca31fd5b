package memorybackend_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/backend/memorybackend"
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/pkgid"
	"github.com/opkgd/pkgbrokerd/internal/results"
)

func TestMemoryBackend(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "MemoryBackend Suite")
}

func run(b *backend.Backend, role enums.Role, params backend.Params) []backend.Event {
	job, err := b.Dispatch(context.Background(), "tx-1", role, params)
	Expect(err).NotTo(HaveOccurred())

	var events []backend.Event
	for ev := range job.Events() {
		events = append(events, ev)
		if ev.Kind == backend.EventFinished {
			break
		}
	}
	return events
}

var _ = Describe("memorybackend", func() {
	It("implements every role PackageKit's test-succeed backend does", func() {
		b := memorybackend.New()
		for _, role := range []enums.Role{
			enums.RoleResolve, enums.RoleSearchName, enums.RoleSearchDetails,
			enums.RoleGetPackages, enums.RoleGetDetails, enums.RoleGetUpdates,
			enums.RoleInstallPackages, enums.RoleRemovePackages, enums.RoleRefreshCache,
		} {
			_, ok := b.Entry(role)
			Expect(ok).To(BeTrue(), role.String())
		}
	})

	It("resolves a package by search term and finishes successfully", func() {
		b := memorybackend.New()
		events := run(b, enums.RoleSearchName, backend.Params{SearchTerms: []string{"vim"}})

		Expect(events).To(HaveLen(2))
		pkg := events[0].Payload.(results.Package)
		Expect(pkg.PackageID.Name).To(Equal("vim"))
		Expect(events[1].Payload).To(Equal(enums.ExitSuccess))
	})

	It("reports install progress monotonically to 100", func() {
		b := memorybackend.New()
		id := memorybackend.Catalog[0].ID
		events := run(b, enums.RoleInstallPackages, backend.Params{PackageIDs: []pkgid.ID{id}})

		var lastPct int
		for _, ev := range events {
			if ev.Kind == backend.EventSetPercentage {
				Expect(ev.Payload.(int)).To(BeNumerically(">=", lastPct))
				lastPct = ev.Payload.(int)
			}
		}
		Expect(lastPct).To(Equal(100))
	})

	It("finishing twice is a no-op: the backend cancel hook never double-reports", func() {
		b := memorybackend.New()
		job, err := b.Dispatch(context.Background(), "tx-1", enums.RoleRefreshCache, backend.Params{})
		Expect(err).NotTo(HaveOccurred())

		var events []backend.Event
		for ev := range job.Events() {
			events = append(events, ev)
		}
		Expect(events).To(HaveLen(1))
		Expect(events[0].Payload).To(Equal(enums.ExitSuccess))

		b.Cancel(job) // job already finished; must not panic or reopen the channel
	})
})
