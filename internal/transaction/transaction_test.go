package transaction_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/backend/memorybackend"
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/results"
	"github.com/opkgd/pkgbrokerd/internal/scheduler"
	"github.com/opkgd/pkgbrokerd/internal/transaction"
)

func TestTransaction(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transaction Suite")
}

type fakeAuth struct{ grant bool }

func (f fakeAuth) CheckAuthorization(context.Context, enums.Role, uint32) (bool, error) {
	return f.grant, nil
}

type recordingPersister struct {
	mu      sync.Mutex
	records []results.TransactionPast
}

func (p *recordingPersister) RecordTransaction(_ context.Context, rec results.TransactionPast) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return nil
}

func (p *recordingPersister) Records() []results.TransactionPast {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]results.TransactionPast{}, p.records...)
}

func waitForState(tx *transaction.Transaction, s transaction.State) {
	Eventually(func() transaction.State { return tx.State() }, time.Second).Should(Equal(s))
}

var _ = Describe("Transaction", func() {
	var (
		list    *scheduler.List
		be      *backend.Backend
		persist *recordingPersister
	)

	BeforeEach(func() {
		list = scheduler.NewList()
		be = memorybackend.New()
		persist = &recordingPersister{}
	})

	It("runs a READ role straight through to FINISHED without authorization", func() {
		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: false}, persist)
		err := tx.Start(context.Background(), enums.RoleSearchName, transaction.Request{
			SearchTerms: []string{"vim"},
		})
		Expect(err).NotTo(HaveOccurred())

		waitForState(tx, transaction.StateFinished)
		exit, ok := tx.Exit()
		Expect(ok).To(BeTrue())
		Expect(exit).To(Equal(enums.ExitSuccess))
		Expect(tx.Results().Packages()).NotTo(BeEmpty())
		Expect(persist.Records()).To(HaveLen(1))
	})

	It("requires authorization for a WRITE role and fails setup when denied", func() {
		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: false}, persist)
		err := tx.Start(context.Background(), enums.RoleInstallPackages, transaction.Request{
			PackageIDs: []string{"hello;2.10;x86_64;fedora"},
		})
		Expect(err).NotTo(HaveOccurred())

		exit, ok := tx.Exit()
		Expect(ok).To(BeTrue())
		Expect(exit).To(Equal(enums.ExitFailed))
		Expect(tx.Results().Error()).NotTo(BeNil())
		Expect(tx.Results().Error().Code).To(Equal(enums.ErrCodeNotAuthorized))
	})

	It("admits a WRITE role once authorized and runs it to completion", func() {
		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: true}, persist)
		err := tx.Start(context.Background(), enums.RoleInstallPackages, transaction.Request{
			PackageIDs: []string{"hello;2.10;x86_64;fedora"},
		})
		Expect(err).NotTo(HaveOccurred())

		waitForState(tx, transaction.StateFinished)
		exit, _ := tx.Exit()
		Expect(exit).To(Equal(enums.ExitSuccess))
	})

	It("rejects a malformed filter before ever touching the scheduler", func() {
		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: true}, persist)
		err := tx.Start(context.Background(), enums.RoleSearchName, transaction.Request{
			Filters: []string{"not-a-real-filter"},
		})
		Expect(err).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateFinished)
		Expect(tx.Results().Error().Code).To(Equal(enums.ErrCodeFilterInvalid))
	})

	It("rejects an empty package list as input-invalid rather than filter-invalid", func() {
		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: true}, persist)
		err := tx.Start(context.Background(), enums.RoleInstallPackages, transaction.Request{
			PackageIDs: []string{},
		})
		Expect(err).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateFinished)
		Expect(tx.Results().Error().Code).To(Equal(enums.ErrCodeInputInvalid))
	})

	It("rejects a malformed package-id token as package-id-invalid", func() {
		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: true}, persist)
		err := tx.Start(context.Background(), enums.RoleInstallPackages, transaction.Request{
			PackageIDs: []string{"not-a-valid-pkgid"},
		})
		Expect(err).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateFinished)
		Expect(tx.Results().Error().Code).To(Equal(enums.ErrCodePackageIDInvalid))
	})

	It("rejects a non-existent file path as no-such-file", func() {
		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: true}, persist)
		err := tx.Start(context.Background(), enums.RoleInstallFiles, transaction.Request{
			Files: []string{"/no/such/file-really-does-not-exist.rpm"},
		})
		Expect(err).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateFinished)
		Expect(tx.Results().Error().Code).To(Equal(enums.ErrCodeNoSuchFile))
	})

	It("rejects a relative file path as no-such-file", func() {
		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: true}, persist)
		err := tx.Start(context.Background(), enums.RoleInstallFiles, transaction.Request{
			Files: []string{"relative/path.rpm"},
		})
		Expect(err).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateFinished)
		Expect(tx.Results().Error().Code).To(Equal(enums.ErrCodeNoSuchFile))
	})

	It("accepts an existing absolute file path on the native filesystem unchanged", func() {
		f, ferr := os.CreateTemp("", "pkgbrokerd-install-*.rpm")
		Expect(ferr).NotTo(HaveOccurred())
		defer os.Remove(f.Name())
		f.Close()

		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: true}, persist)
		err := tx.Start(context.Background(), enums.RoleInstallFiles, transaction.Request{
			Files: []string{f.Name()},
		})
		Expect(err).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateFinished)
		Expect(tx.Results().Error()).To(BeNil())
	})

	It("reports backend-role-unsupported with the apperrors message when the backend has no entry for the role", func() {
		tx := transaction.New(list.NewTID(), list, backend.New("bare", "no roles registered"), fakeAuth{grant: true}, persist)
		err := tx.Start(context.Background(), enums.RoleInstallPackages, transaction.Request{
			PackageIDs: []string{"hello;2.10;x86_64;fedora"},
		})
		Expect(err).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateFinished)
		Expect(tx.Results().Error().Code).To(Equal(enums.ErrCodeNotSupported))
		Expect(tx.Results().Error().Details).To(ContainSubstring("does not support role"))
	})

	It("reports policy-denied with the apperrors message when authorization is refused", func() {
		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: false}, persist)
		err := tx.Start(context.Background(), enums.RoleInstallPackages, transaction.Request{
			PackageIDs: []string{"hello;2.10;x86_64;fedora"},
		})
		Expect(err).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateFinished)
		Expect(tx.Results().Error().Details).To(ContainSubstring("policy denied role"))
	})

	It("serializes two WRITE transactions: the second only runs once the first finishes", func() {
		tx1 := transaction.New(list.NewTID(), list, be, fakeAuth{grant: true}, persist)
		tx2 := transaction.New(list.NewTID(), list, be, fakeAuth{grant: true}, persist)

		Expect(tx1.Start(context.Background(), enums.RoleInstallPackages, transaction.Request{
			PackageIDs: []string{"hello;2.10;x86_64;fedora"},
		})).NotTo(HaveOccurred())
		Expect(tx2.Start(context.Background(), enums.RoleRemovePackages, transaction.Request{
			PackageIDs: []string{"vim;9.1;x86_64;fedora"},
		})).NotTo(HaveOccurred())

		waitForState(tx1, transaction.StateFinished)
		waitForState(tx2, transaction.StateFinished)
		Expect(persist.Records()).To(HaveLen(2))
	})

	It("cancels a running transaction through the backend's cancel entry", func() {
		blocking := backend.New("blocking", "blocks until its context is cancelled")
		blocking.Register(enums.RoleRefreshCache, func(job *backend.Job, _ backend.Params) {
			<-job.Context().Done()
			job.Finished(enums.ExitCancelled)
		})

		tx := transaction.New(list.NewTID(), list, blocking, fakeAuth{grant: true}, persist)
		Expect(tx.Start(context.Background(), enums.RoleRefreshCache, transaction.Request{})).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateRunning)

		Expect(tx.Cancel()).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateFinished)
		exit, _ := tx.Exit()
		Expect(exit).To(Equal(enums.ExitCancelled))
	})

	It("rejects Cancel once FINISHED", func() {
		tx := transaction.New(list.NewTID(), list, be, fakeAuth{grant: false}, persist)
		Expect(tx.Start(context.Background(), enums.RoleSearchName, transaction.Request{})).NotTo(HaveOccurred())
		waitForState(tx, transaction.StateFinished)

		Expect(tx.Cancel()).To(MatchError(transaction.ErrAlreadyFinished))
	})
})
