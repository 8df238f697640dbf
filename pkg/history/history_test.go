package history_test

import (
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/langchat/pkg/history"
)

var _ = Describe("Turn", func() {
	It("gets a fresh ID and start time", func() {
		before := time.Now()
		turn := history.NewTurn("session-1", "hello")

		_, err := uuid.Parse(turn.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(turn.SessionID).To(Equal("session-1"))
		Expect(turn.Message).To(Equal("hello"))
		Expect(turn.StartedAt).To(BeTemporally(">=", before.Add(-time.Second)))
		Expect(turn.StartedAt.Location()).To(Equal(time.UTC))

		other := history.NewTurn("session-1", "hello")
		Expect(other.ID).NotTo(Equal(turn.ID))
	})

	It("reports its duration", func() {
		start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		turn := &history.Turn{StartedAt: start, EndedAt: start.Add(1500 * time.Millisecond)}
		Expect(turn.Duration()).To(Equal(1500 * time.Millisecond))
	})

	It("generates distinct session IDs", func() {
		Expect(history.NewSessionID()).NotTo(Equal(history.NewSessionID()))
	})
})

var _ = Describe("ErrNotFound", func() {
	It("names the missing turn", func() {
		Expect(history.ErrNotFound{ID: "abc"}.Error()).To(Equal("turn not found: abc"))
		Expect(history.ErrNotFound{}.Error()).To(Equal("turn not found"))
	})

	It("can be matched with errors.As", func() {
		var err error = history.ErrNotFound{ID: "abc"}
		var notFound history.ErrNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())
		Expect(notFound.ID).To(Equal("abc"))
	})
})
