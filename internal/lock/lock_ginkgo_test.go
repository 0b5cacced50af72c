package lock_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/lock"
)

var _ = Describe("Lane A orchestrate lock lifecycle", func() {
	var layout fileutil.Layout
	var now time.Time
	var clock func() time.Time

	BeforeEach(func() {
		layout = fileutil.NewLayout(GinkgoT().TempDir())
		now = time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
		clock = func() time.Time { return now }
	})

	It("acquires, blocks a concurrent acquire, then releases cleanly", func() {
		h, err := lock.Acquire(layout, time.Minute, clock)
		Expect(err).NotTo(HaveOccurred())
		Expect(layout.LockFile()).To(BeAnExistingFile())

		_, err = lock.Acquire(layout, time.Minute, clock)
		Expect(err).To(HaveOccurred(), "a fresh, unexpired lock must block a concurrent acquire")

		Expect(h.Release()).To(Succeed())
		_, statErr := os.Stat(layout.LockFile())
		Expect(os.IsNotExist(statErr)).To(BeTrue(), "release must remove the lock file")

		h2, err := lock.Acquire(layout, time.Minute, clock)
		Expect(err).NotTo(HaveOccurred(), "the lock must be acquirable again after release")
		Expect(h2.Release()).To(Succeed())
	})

	It("reclaims a stale lock under a fresh owner token and refuses release by the old owner", func() {
		h1, err := lock.Acquire(layout, time.Minute, clock)
		Expect(err).NotTo(HaveOccurred())

		later := now.Add(5 * time.Minute)
		laterClock := func() time.Time { return later }
		h2, err := lock.Acquire(layout, time.Minute, laterClock)
		Expect(err).NotTo(HaveOccurred(), "an expired lock must be reclaimable")

		Expect(h1.Release()).To(HaveOccurred(), "the original handle must no longer own the lock after a stale reclaim")
		Expect(h2.Release()).To(Succeed())
	})

	It("runs a callback under WithLock and always releases afterward, even on error", func() {
		ran := false
		err := lock.WithLock(layout, time.Minute, clock, func() error {
			ran = true
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(ran).To(BeTrue())
		_, statErr := os.Stat(layout.LockFile())
		Expect(os.IsNotExist(statErr)).To(BeTrue())

		callErr := lock.WithLock(layout, time.Minute, clock, func() error {
			return os.ErrClosed
		})
		Expect(callErr).To(HaveOccurred())
		_, statErr = os.Stat(layout.LockFile())
		Expect(os.IsNotExist(statErr)).To(BeTrue(), "WithLock must release even when fn fails")
	})
})
