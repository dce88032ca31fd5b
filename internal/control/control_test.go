package control_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/backend/memorybackend"
	"github.com/opkgd/pkgbrokerd/internal/control"
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/results"
	"github.com/opkgd/pkgbrokerd/internal/scheduler"
	"github.com/opkgd/pkgbrokerd/internal/transaction"
)

func TestControl(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Control Suite")
}

type grantAll struct{}

func (grantAll) CheckAuthorization(context.Context, enums.Role, uint32) (bool, error) {
	return true, nil
}

type noopPersister struct{}

func (noopPersister) RecordTransaction(context.Context, results.TransactionPast) error { return nil }

type fakeHistory struct {
	at    time.Time
	found bool
}

func (f fakeHistory) LastCompletion(context.Context, enums.Role) (time.Time, bool, error) {
	return f.at, f.found, nil
}

type fakeAuthorizer struct{ result enums.AuthorizeResult }

func (f fakeAuthorizer) CanAuthorize(context.Context, string) (enums.AuthorizeResult, error) {
	return f.result, nil
}

type fakeQuitter struct{ requested bool }

func (f *fakeQuitter) RequestQuit() { f.requested = true }

func newControl() *control.Control {
	list := scheduler.NewList()
	be := memorybackend.New()
	return control.New(
		control.Descriptor{BackendAuthor: "test suite", VersionMajor: 1, VersionMinor: 2, VersionMicro: 3, DistroID: "fedora"},
		be, list, grantAll{}, noopPersister{}, nil, nil, nil,
	)
}

var _ = Describe("Control", func() {
	It("exposes the backend's static capabilities as read-only properties", func() {
		c := newControl()

		Expect(c.BackendName()).To(Equal("test-succeed"))
		Expect(c.BackendAuthor()).To(Equal("test suite"))
		Expect(c.Filters().Has(enums.FilterInstalled)).To(BeTrue())
		major, minor, micro := c.Version()
		Expect([]int{major, minor, micro}).To(Equal([]int{1, 2, 3}))
	})

	It("allocates a fresh tid per GetTid call and forgets it once finished", func() {
		c := newControl()

		tx, tid := c.GetTid()
		Expect(tid).NotTo(BeEmpty())
		got, err := c.Transaction(tid)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(tx))

		Expect(tx.Start(context.Background(), enums.RoleSearchName, transaction.Request{})).NotTo(HaveOccurred())
		Eventually(func() error {
			_, err := c.Transaction(tid)
			return err
		}).Should(HaveOccurred())
	})

	It("rejects SuggestDaemonQuit while a transaction is in flight", func() {
		list := scheduler.NewList()
		blocking := backend.New("blocking", "blocks until its context is cancelled")
		blocking.Register(enums.RoleInstallPackages, func(job *backend.Job, _ backend.Params) {
			<-job.Context().Done()
			job.Finished(enums.ExitCancelled)
		})
		c := control.New(control.Descriptor{}, blocking, list, grantAll{}, noopPersister{}, nil, nil, nil)

		tx, _ := c.GetTid()
		Expect(tx.Start(context.Background(), enums.RoleInstallPackages, transaction.Request{
			PackageIDs: []string{"hello;2.10;x86_64;fedora"},
		})).NotTo(HaveOccurred())
		Eventually(func() transaction.State { return tx.State() }).Should(Equal(transaction.StateRunning))

		q := &fakeQuitter{}
		Expect(c.SuggestDaemonQuit(q)).To(MatchError(control.ErrNotIdle))
		Expect(q.requested).To(BeFalse())

		Expect(tx.Cancel()).NotTo(HaveOccurred())
	})

	It("honors SuggestDaemonQuit once idle", func() {
		c := newControl()

		q := &fakeQuitter{}
		Expect(c.SuggestDaemonQuit(q)).NotTo(HaveOccurred())
		Expect(q.requested).To(BeTrue())
	})

	It("flips Locked and fires subscribers only on change", func() {
		c := newControl()

		var calls int
		c.OnLocked(func(bool) { calls++ })
		c.SetLocked(true)
		c.SetLocked(true)
		c.SetLocked(false)
		Expect(calls).To(Equal(2))
	})

	It("reports GetTimeSinceAction from the injected history", func() {
		list := scheduler.NewList()
		be := memorybackend.New()
		last := time.Now().Add(-time.Hour)
		c := control.New(control.Descriptor{}, be, list, grantAll{}, noopPersister{}, nil, fakeHistory{at: last, found: true}, nil)

		since, err := c.GetTimeSinceAction(context.Background(), enums.RoleRefreshCache)
		Expect(err).NotTo(HaveOccurred())
		Expect(since).To(BeNumerically(">=", time.Hour))
	})

	It("answers CanAuthorize from the injected authorizer", func() {
		list := scheduler.NewList()
		be := memorybackend.New()
		c := control.New(control.Descriptor{}, be, list, grantAll{}, noopPersister{}, fakeAuthorizer{result: enums.AuthorizeInteractive}, nil, nil)

		result, err := c.CanAuthorize(context.Background(), "org.pkgbrokerd.install")
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(enums.AuthorizeInteractive))
	})

	It("remembers per-uid proxy hints", func() {
		c := newControl()

		c.SetProxy(1000, "http://proxy:3128", "")
		hint, ok := c.ProxyFor(1000)
		Expect(ok).To(BeTrue())
		Expect(hint.HTTPProxy).To(Equal("http://proxy:3128"))

		_, ok = c.ProxyFor(2000)
		Expect(ok).To(BeFalse())
	})
})
