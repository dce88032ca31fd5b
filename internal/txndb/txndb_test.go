package txndb_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/results"
	"github.com/opkgd/pkgbrokerd/internal/txndb"
)

func TestTxndb(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Txndb Suite")
}

var _ = Describe("DB", func() {
	var (
		ctx context.Context
		db  *txndb.DB
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = txndb.Open(ctx, ":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			Expect(db.Close()).To(Succeed())
		}
	})

	record := func(tid string, role enums.Role, at time.Time, succeeded bool) results.TransactionPast {
		return results.TransactionPast{
			TID:       tid,
			Timespec:  at,
			Succeeded: succeeded,
			Role:      role,
			Duration:  250 * time.Millisecond,
			Data:      "pkg-a\tpkg-b",
			UID:       1000,
			Cmdline:   "pkcon install pkg-a pkg-b",
		}
	}

	Describe("RecordTransaction and GetOldTransactions", func() {
		It("returns an empty list against an empty database", func() {
			rows, err := db.GetOldTransactions(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})

		It("round-trips a recorded transaction", func() {
			at := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
			rec := record("/transaction/1", enums.RoleInstallPackages, at, true)
			Expect(db.RecordTransaction(ctx, rec)).To(Succeed())

			rows, err := db.GetOldTransactions(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].TID).To(Equal("/transaction/1"))
			Expect(rows[0].Role).To(Equal(enums.RoleInstallPackages))
			Expect(rows[0].Succeeded).To(BeTrue())
			Expect(rows[0].UID).To(Equal(uint32(1000)))
			Expect(rows[0].Duration).To(Equal(250 * time.Millisecond))
			Expect(rows[0].Cmdline).To(Equal("pkcon install pkg-a pkg-b"))
		})

		It("orders by most recent first and honors the limit", func() {
			base := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)
			for i, tid := range []string{"/transaction/1", "/transaction/2", "/transaction/3"} {
				rec := record(tid, enums.RoleSearchName, base.Add(time.Duration(i)*time.Minute), true)
				Expect(db.RecordTransaction(ctx, rec)).To(Succeed())
			}

			rows, err := db.GetOldTransactions(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].TID).To(Equal("/transaction/3"))
			Expect(rows[1].TID).To(Equal("/transaction/2"))
		})

		It("treats n == 0 as unlimited", func() {
			base := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)
			for i, tid := range []string{"/transaction/1", "/transaction/2", "/transaction/3"} {
				rec := record(tid, enums.RoleSearchName, base.Add(time.Duration(i)*time.Minute), true)
				Expect(db.RecordTransaction(ctx, rec)).To(Succeed())
			}

			rows, err := db.GetOldTransactions(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))
		})
	})

	Describe("LastCompletion", func() {
		It("reports not-found for a role with no history", func() {
			_, found, err := db.LastCompletion(ctx, enums.RoleRefreshCache)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})

		It("returns the most recent completion for that role", func() {
			older := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
			newer := time.Date(2026, 7, 29, 11, 0, 0, 0, time.UTC)
			Expect(db.RecordTransaction(ctx, record("/transaction/1", enums.RoleRefreshCache, older, true))).To(Succeed())
			Expect(db.RecordTransaction(ctx, record("/transaction/2", enums.RoleRefreshCache, newer, true))).To(Succeed())
			Expect(db.RecordTransaction(ctx, record("/transaction/3", enums.RoleSearchName, newer.Add(time.Hour), true))).To(Succeed())

			at, found, err := db.LastCompletion(ctx, enums.RoleRefreshCache)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(at.Equal(newer)).To(BeTrue())
		})
	})
})
