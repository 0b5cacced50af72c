package orchestrator_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/lock"
	"github.com/re-cinq/lanectl/internal/orchestrator"
	"github.com/re-cinq/lanectl/internal/staleness"
)

var _ = Describe("Orchestrate tick", func() {
	var layout fileutil.Layout
	var now time.Time
	var deps orchestrator.Deps

	BeforeEach(func() {
		layout = fileutil.NewLayout(GinkgoT().TempDir())
		now = time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
		deps = orchestrator.Deps{
			Layout:  layout,
			LockTTL: time.Minute,
			Now:     func() time.Time { return now },
		}
	})

	It("runs one tick end to end with an empty registry: decides, persists state, and releases the lock", func() {
		result := orchestrator.Orchestrate(deps, 0, false)

		Expect(result.OK).To(BeTrue())
		Expect(result.Skipped).To(BeFalse())
		Expect(result.Stage).To(Equal(orchestrator.StageNeedsKickoff))

		var st orchestrator.State
		Expect(fileutil.ReadJSON(layout.StateFile(), &st)).To(Succeed())
		Expect(st.Stage).To(Equal(orchestrator.StageNeedsKickoff))

		_, statErr := fileutil.ReadFileIfExists(layout.LockFile())
		Expect(statErr).To(HaveOccurred(), "the lock must be released once the tick completes")
	})

	It("yields a skipped result instead of erroring when another process already holds the lock", func() {
		h, err := lock.Acquire(layout, time.Minute, func() time.Time { return now })
		Expect(err).NotTo(HaveOccurred())
		defer h.Release()

		result := orchestrator.Orchestrate(deps, 0, false)

		Expect(result.OK).To(BeTrue())
		Expect(result.Skipped).To(BeTrue())
		Expect(result.Reason).To(Equal("lock_held"))
	})

	It("computes the same stage and releases the lock on a dry run without executing an action", func() {
		dryRunDeps := deps
		dryResult := orchestrator.Orchestrate(dryRunDeps, 0, true)
		Expect(dryResult.OK).To(BeTrue())
		Expect(dryResult.Stage).To(Equal(orchestrator.StageNeedsKickoff))

		_, statErr := fileutil.ReadFileIfExists(layout.LockFile())
		Expect(statErr).To(HaveOccurred(), "the lock must be released once the dry run completes")
	})

	It("advances soft-stale tracking across repeated ticks without error", func() {
		deps.SoftStale = staleness.Config{EscalateAfterMinutes: 60, EscalateCapPerDay: 5, EscalateMode: staleness.ModeDecisionPacket}
		deps.Policy = staleness.Policy{ScanStaleWindow: 24 * time.Hour, HardStaleAfter: 48 * time.Hour}

		first := orchestrator.Orchestrate(deps, 0, false)
		Expect(first.OK).To(BeTrue())

		later := now.Add(time.Hour)
		deps.Now = func() time.Time { return later }
		second := orchestrator.Orchestrate(deps, 0, false)
		Expect(second.OK).To(BeTrue())
	})
})
