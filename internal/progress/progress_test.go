package progress_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/progress"
)

var _ = Describe("Progress", func() {
	It("starts with percentage unknown", func() {
		p := progress.NewProgress()
		pct, unknown := p.Percentage()
		Expect(unknown).To(BeTrue())
		Expect(pct).To(Equal(0))
	})

	It("clears unknown on the first successful SetPercentage", func() {
		p := progress.NewProgress()
		Expect(p.SetPercentage(10)).NotTo(HaveOccurred())
		pct, unknown := p.Percentage()
		Expect(unknown).To(BeFalse())
		Expect(pct).To(Equal(10))
	})

	It("notifies subscribers keyed by the field that changed", func() {
		p := progress.NewProgress()
		var changed []progress.Field
		p.Subscribe(func(f progress.Field) { changed = append(changed, f) })

		p.SetStatus(enums.StatusDownload)
		p.SetAllowCancel(true)
		Expect(p.SetPercentage(5)).NotTo(HaveOccurred())

		Expect(changed).To(Equal([]progress.Field{
			progress.FieldStatus,
			progress.FieldAllowCancel,
			progress.FieldPercentage,
		}))
	})

	It("rejects a percentage regression, leaving the snapshot unchanged", func() {
		p := progress.NewProgress()
		Expect(p.SetPercentage(50)).NotTo(HaveOccurred())
		Expect(p.SetPercentage(10)).To(HaveOccurred())

		snap := p.Snapshot()
		Expect(snap.Percentage).To(Equal(50))
		Expect(snap.PercentageUnknown).To(BeFalse())
	})

	It("snapshots every flat attribute", func() {
		p := progress.NewProgress()
		p.SetRole(enums.RoleInstallPackages)
		p.SetStatus(enums.StatusInstall)
		p.SetUID(1000)
		p.SetSender(":1.42")

		snap := p.Snapshot()
		Expect(snap.Role).To(Equal(enums.RoleInstallPackages))
		Expect(snap.Status).To(Equal(enums.StatusInstall))
		Expect(snap.UID).To(Equal(uint32(1000)))
		Expect(snap.Sender).To(Equal(":1.42"))
	})
})
