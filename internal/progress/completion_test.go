package progress_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opkgd/pkgbrokerd/internal/progress"
)

func TestProgress(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Progress Suite")
}

var _ = Describe("Completion", func() {
	Context("SetSteps", func() {
		It("rejects zero and negative step counts", func() {
			c := progress.New()
			Expect(c.SetSteps(0)).To(HaveOccurred())
			Expect(c.SetSteps(-1)).To(HaveOccurred())
		})

		It("may only be called once", func() {
			c := progress.New()
			Expect(c.SetSteps(3)).NotTo(HaveOccurred())
			Expect(c.SetSteps(5)).To(MatchError(progress.ErrStepsAlreadySet))
		})
	})

	Context("SetPercentage monotonicity", func() {
		It("rejects a regression and leaves state unchanged", func() {
			c := progress.New()
			Expect(c.SetPercentage(40)).NotTo(HaveOccurred())
			Expect(c.SetPercentage(10)).To(MatchError(progress.ErrPercentageRegression))
			Expect(c.Percentage()).To(Equal(40))
		})

		It("silently no-ops on a duplicate value", func() {
			c := progress.New()
			var notified []int
			c.OnPercentageChanged(func(p int) { notified = append(notified, p) })

			Expect(c.SetPercentage(40)).NotTo(HaveOccurred())
			Expect(c.SetPercentage(40)).NotTo(HaveOccurred())
			Expect(notified).To(Equal([]int{40}))
		})
	})

	Context("Done", func() {
		It("requires steps to be set first", func() {
			c := progress.New()
			Expect(c.Done()).To(MatchError(progress.ErrStepsUnset))
		})

		It("recomputes percentage as floor(current*100/steps)", func() {
			c := progress.New()
			Expect(c.SetSteps(3)).NotTo(HaveOccurred())

			Expect(c.Done()).NotTo(HaveOccurred())
			Expect(c.Percentage()).To(Equal(33))

			Expect(c.Done()).NotTo(HaveOccurred())
			Expect(c.Percentage()).To(Equal(66))

			Expect(c.Done()).NotTo(HaveOccurred())
			Expect(c.Percentage()).To(Equal(100))

			Expect(c.Done()).To(MatchError(progress.ErrStepsExhausted))
		})
	})

	Context("GetChild", func() {
		It("returns the same node on every call", func() {
			c := progress.New()
			Expect(c.SetSteps(1)).NotTo(HaveOccurred())
			Expect(c.GetChild()).To(BeIdenticalTo(c.GetChild()))
		})

		It("propagates a single-step parent's child percentage verbatim", func() {
			c := progress.New()
			Expect(c.SetSteps(1)).NotTo(HaveOccurred())
			child := c.GetChild()

			Expect(child.SetPercentage(57)).NotTo(HaveOccurred())
			Expect(c.Percentage()).To(Equal(57))
		})

		It("maps a multi-step parent's child percentage into its slice of the range", func() {
			// S6: parent has 2 steps. The first child drives 33 -> 16 and
			// 100 -> 50; parent.Done() advances to step 2 and resets the
			// child; the second child drives 25/50/100 -> 62/75/100.
			c := progress.New()
			Expect(c.SetSteps(2)).NotTo(HaveOccurred())

			var parentPcts, subPcts []int
			c.OnPercentageChanged(func(p int) { parentPcts = append(parentPcts, p) })
			c.OnSubPercentageChanged(func(p int) { subPcts = append(subPcts, p) })

			child1 := c.GetChild()
			Expect(child1.SetPercentage(33)).NotTo(HaveOccurred())
			Expect(c.Percentage()).To(Equal(16))

			Expect(child1.SetPercentage(100)).NotTo(HaveOccurred())
			Expect(c.Percentage()).To(Equal(50))

			Expect(c.Done()).NotTo(HaveOccurred())
			Expect(c.Percentage()).To(Equal(50))

			child2 := c.GetChild()
			Expect(child2).To(BeIdenticalTo(child1))
			Expect(child2.Steps()).To(Equal(0), "Done resets the child so it can be reused")

			Expect(child2.SetPercentage(25)).NotTo(HaveOccurred())
			Expect(c.Percentage()).To(Equal(62))

			Expect(child2.SetPercentage(50)).NotTo(HaveOccurred())
			Expect(c.Percentage()).To(Equal(75))

			Expect(child2.SetPercentage(100)).NotTo(HaveOccurred())
			Expect(c.Percentage()).To(Equal(100))

			Expect(subPcts).To(Equal([]int{33, 100, 25, 50, 100}))
			Expect(parentPcts).To(Equal([]int{16, 50, 62, 75, 100}))
		})
	})

	Context("Reset", func() {
		It("clears steps, current, percentage and child", func() {
			c := progress.New()
			Expect(c.SetSteps(4)).NotTo(HaveOccurred())
			Expect(c.Done()).NotTo(HaveOccurred())
			_ = c.GetChild()

			c.Reset()
			Expect(c.Steps()).To(Equal(0))
			Expect(c.Current()).To(Equal(0))
			Expect(c.Percentage()).To(Equal(0))
		})
	})
})
