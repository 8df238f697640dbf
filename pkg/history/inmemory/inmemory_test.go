package inmemory_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/langchat/pkg/history"
	"github.com/papercomputeco/langchat/pkg/history/inmemory"
)

// testTurn builds a completed turn started offset after a fixed base time.
func testTurn(id, session string, offset time.Duration) *history.Turn {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &history.Turn{
		ID:           id,
		SessionID:    session,
		Message:      "question " + id,
		Response:     "answer " + id,
		Streamed:     true,
		EnableSkills: true,
		StartedAt:    base.Add(offset),
		EndedAt:      base.Add(offset + time.Second),
	}
}

var _ = Describe("Driver", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	Describe("Put and Get", func() {
		It("stores and retrieves a turn", func() {
			turn := testTurn("t1", "s1", 0)
			Expect(driver.Put(ctx, turn)).To(Succeed())

			got, err := driver.Get(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(turn))
		})

		It("replaces a turn with the same ID", func() {
			turn := testTurn("t1", "s1", 0)
			Expect(driver.Put(ctx, turn)).To(Succeed())

			updated := testTurn("t1", "s1", 0)
			updated.Error = "backend returned status 500"
			Expect(driver.Put(ctx, updated)).To(Succeed())

			got, err := driver.Get(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Error).To(Equal("backend returned status 500"))
		})

		It("stores a copy", func() {
			turn := testTurn("t1", "s1", 0)
			Expect(driver.Put(ctx, turn)).To(Succeed())
			turn.Response = "mutated"

			got, err := driver.Get(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Response).To(Equal("answer t1"))
		})

		It("returns ErrNotFound for a missing turn", func() {
			_, err := driver.Get(ctx, "missing")

			var notFound history.ErrNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.ID).To(Equal("missing"))
		})

		It("rejects nil and ID-less turns", func() {
			Expect(driver.Put(ctx, nil)).To(HaveOccurred())
			Expect(driver.Put(ctx, &history.Turn{})).To(HaveOccurred())
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			Expect(driver.Put(ctx, testTurn("t1", "s1", 0))).To(Succeed())
			Expect(driver.Put(ctx, testTurn("t2", "s2", time.Minute))).To(Succeed())
			Expect(driver.Put(ctx, testTurn("t3", "s1", 2*time.Minute))).To(Succeed())
		})

		ids := func(turns []*history.Turn) []string {
			out := make([]string, 0, len(turns))
			for _, t := range turns {
				out = append(out, t.ID)
			}
			return out
		}

		It("returns turns newest first", func() {
			turns, err := driver.List(ctx, history.ListOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(turns)).To(Equal([]string{"t3", "t2", "t1"}))
		})

		It("honours the limit", func() {
			turns, err := driver.List(ctx, history.ListOptions{Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(turns)).To(Equal([]string{"t3", "t2"}))
		})

		It("filters by session", func() {
			turns, err := driver.List(ctx, history.ListOptions{SessionID: "s1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(turns)).To(Equal([]string{"t3", "t1"}))
		})

		It("returns an empty list for an unknown session", func() {
			turns, err := driver.List(ctx, history.ListOptions{SessionID: "nope"})
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(BeEmpty())
		})
	})
})

var _ = Describe("Clear", func() {
	It("removes every turn", func() {
		ctx := context.Background()
		driver := inmemory.NewDriver()
		Expect(driver.Put(ctx, testTurn("t1", "s1", 0))).To(Succeed())

		Expect(driver.Clear(ctx)).To(Succeed())

		turns, err := driver.List(ctx, history.ListOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(BeEmpty())
	})
})
