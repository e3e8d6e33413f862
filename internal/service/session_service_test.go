package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/internal/service"
	"github.com/harshaislive/bespoke/internal/util"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SessionService", func() {
	var (
		ctx      context.Context
		gen      *stubGenerator
		store    *memoryStore
		cache    *memoryCache
		tickers  *tickerSource
		archiver *recordingArchiver
		svc      *service.SessionService
		profile  model.UserProfile
	)

	threeQuestions := []model.Question{
		{Text: "How would you address a prospect's pricing concern?"},
		{Text: "A prospect doubts the community model. What do you say?"},
		{Text: "How do you explain long-term value without hyperbole?"},
	}

	answerAll := func(id string) {
		for _, q := range threeQuestions {
			_, err := svc.EditAnswer(ctx, id, q.Text, "a considered answer")
			Expect(err).NotTo(HaveOccurred())
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		gen = &stubGenerator{questions: threeQuestions}
		store = newMemoryStore()
		cache = newMemoryCache()
		tickers = &tickerSource{}
		archiver = &recordingArchiver{}
		svc = service.NewSessionService(gen, store, cache, stubContexts{}, archiver, tickers.New)
		profile = model.UserProfile{Name: "Asha", Email: "asha@beforest.co", Team: "Sales"}
	})

	AfterEach(func() {
		svc.Shutdown()
	})

	Describe("Start", func() {
		It("opens a live session with generated questions", func() {
			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())

			Expect(session.Status).To(Equal(model.StatusInProgress))
			Expect(session.DemoMode).To(BeFalse())
			Expect(session.Warning).To(BeEmpty())
			Expect(session.Questions).To(Equal(threeQuestions))
			Expect(session.CurrentIndex).To(BeZero())
			Expect(session.Answers).To(BeEmpty())
			Expect(store.created()).To(Equal(1))
			Expect(cache.snapshot(session.ID)).NotTo(BeNil())
		})

		It("degrades to demo mode when generation fails", func() {
			gen.err = fmt.Errorf("%w: status 500", util.ErrGenerationUpstream)

			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())

			Expect(session.DemoMode).To(BeTrue())
			Expect(session.Status).To(Equal(model.StatusInProgress))
			Expect(session.Warning).NotTo(BeEmpty())
			Expect(session.Questions).To(HaveLen(2))
			Expect(session.Questions[0].Text).To(HavePrefix("Demo:"))
			// The durable record is still created when the store is healthy.
			Expect(store.created()).To(Equal(1))
		})

		It("falls back to default questions when the generator returns none", func() {
			gen.questions = nil

			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())

			Expect(session.DemoMode).To(BeFalse())
			Expect(session.Questions).To(HaveLen(2))
			Expect(session.Questions[0].Text).To(HavePrefix("Default:"))
		})

		It("fails outright when the store rejects a live session", func() {
			store.createErr = fmt.Errorf("%w: connection refused", util.ErrStoreUnavailable)

			session, err := svc.Start(ctx, profile)
			Expect(err).To(MatchError(util.ErrStoreUnavailable))
			Expect(session).To(BeNil())

			// Nothing is left behind to resume.
			_, err = svc.Get(ctx, "sess-1")
			Expect(err).To(MatchError(util.ErrSessionNotFound))
		})

		It("continues locally when both generator and store fail", func() {
			gen.err = util.ErrGenerationNoCredentials
			store.createErr = fmt.Errorf("%w: connection refused", util.ErrStoreUnavailable)

			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())

			Expect(session.DemoMode).To(BeTrue())
			Expect(session.ID).To(HavePrefix("demo-session-"))
			Expect(session.Warning).To(ContainSubstring("durability"))
			Expect(cache.snapshot(session.ID)).NotTo(BeNil())
		})
	})

	Describe("answer editing and navigation", func() {
		var id string

		BeforeEach(func() {
			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())
			id = session.ID
		})

		It("records an answer and mirrors the snapshot", func() {
			session, err := svc.EditAnswer(ctx, id, threeQuestions[0].Text, "value first")
			Expect(err).NotTo(HaveOccurred())
			Expect(session.Answers[threeQuestions[0].Text]).To(Equal("value first"))

			snap := cache.snapshot(id)
			Expect(snap).NotTo(BeNil())
			Expect(snap.Answers[threeQuestions[0].Text]).To(Equal("value first"))
		})

		It("rejects edits for unknown sessions", func() {
			_, err := svc.EditAnswer(ctx, "nope", "q", "a")
			Expect(err).To(MatchError(util.ErrSessionNotFound))
		})

		It("clamps navigation into the question range", func() {
			session, err := svc.Navigate(ctx, id, 99)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.CurrentIndex).To(Equal(len(threeQuestions) - 1))

			session, err = svc.Navigate(ctx, id, -5)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.CurrentIndex).To(BeZero())
		})

		It("rejects mutations once the session is completed", func() {
			answerAll(id)
			_, err := svc.Complete(ctx, id)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.EditAnswer(ctx, id, threeQuestions[0].Text, "too late")
			Expect(err).To(MatchError(util.ErrSessionNotInProgress))
			_, err = svc.Navigate(ctx, id, 1)
			Expect(err).To(MatchError(util.ErrSessionNotInProgress))
		})
	})

	Describe("Complete", func() {
		var id string

		BeforeEach(func() {
			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())
			id = session.ID
		})

		It("blocks completion while answers are missing and jumps to the first gap", func() {
			_, err := svc.EditAnswer(ctx, id, threeQuestions[0].Text, "answered")
			Expect(err).NotTo(HaveOccurred())
			// Whitespace counts as unanswered.
			_, err = svc.EditAnswer(ctx, id, threeQuestions[1].Text, "   ")
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Complete(ctx, id)
			var incomplete *service.IncompleteAnswersError
			Expect(errors.As(err, &incomplete)).To(BeTrue())
			Expect(incomplete.Questions).To(Equal(threeQuestions[1:]))
			Expect(incomplete.FirstIndex).To(Equal(1))

			session, err := svc.Get(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.Status).To(Equal(model.StatusInProgress))
			Expect(session.CurrentIndex).To(Equal(1))
		})

		It("completes once every question has a real answer", func() {
			answerAll(id)

			session, err := svc.Complete(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.Status).To(Equal(model.StatusCompleted))
			Expect(session.Warning).To(BeEmpty())

			_, ok := store.completedElapsed(id)
			Expect(ok).To(BeTrue())
			Expect(cache.snapshot(id)).To(BeNil())
			Expect(archiver.count()).To(Equal(1))
		})

		It("keeps the completed state when the store fails late", func() {
			answerAll(id)
			store.saveErr = fmt.Errorf("%w: timeout", util.ErrStoreUnavailable)
			store.completeErr = fmt.Errorf("%w: timeout", util.ErrStoreUnavailable)

			session, err := svc.Complete(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.Status).To(Equal(model.StatusCompleted))
			Expect(session.Warning).To(ContainSubstring("could not be"))
		})

		It("never touches the store for an unpersisted demo session", func() {
			gen.err = util.ErrGenerationUpstream
			store.createErr = fmt.Errorf("%w: down", util.ErrStoreUnavailable)
			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())

			for _, q := range session.Questions {
				_, err := svc.EditAnswer(ctx, session.ID, q.Text, "demo answer")
				Expect(err).NotTo(HaveOccurred())
			}

			store.saveErr = nil
			store.completeErr = nil
			final, err := svc.Complete(ctx, session.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(final.Status).To(Equal(model.StatusCompleted))
			_, ok := store.completedElapsed(session.ID)
			Expect(ok).To(BeFalse())
		})

		It("refuses a second completion", func() {
			answerAll(id)
			_, err := svc.Complete(ctx, id)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Complete(ctx, id)
			Expect(err).To(MatchError(util.ErrSessionNotInProgress))
		})
	})

	Describe("elapsed timer", func() {
		var id string

		BeforeEach(func() {
			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())
			id = session.ID
		})

		It("counts seconds while in progress", func() {
			ticker := tickers.last()
			Expect(ticker).NotTo(BeNil())

			ticker.Tick()
			Eventually(func() int {
				session, err := svc.Get(ctx, id)
				Expect(err).NotTo(HaveOccurred())
				return session.ElapsedSeconds
			}).Should(Equal(1))

			ticker.Tick()
			Eventually(func() int {
				session, _ := svc.Get(ctx, id)
				return session.ElapsedSeconds
			}).Should(Equal(2))
		})

		It("stops counting after completion", func() {
			ticker := tickers.last()
			answerAll(id)
			_, err := svc.Complete(ctx, id)
			Expect(err).NotTo(HaveOccurred())

			Eventually(ticker.isStopped).Should(BeTrue())

			ticker.Tick()
			Consistently(func() int {
				session, _ := svc.Get(ctx, id)
				return session.ElapsedSeconds
			}).Should(BeZero())
		})
	})

	Describe("Restart", func() {
		It("drops the session and its snapshot", func() {
			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())
			ticker := tickers.last()

			Expect(svc.Restart(ctx, session.ID)).To(Succeed())
			Eventually(ticker.isStopped).Should(BeTrue())
			Expect(cache.snapshot(session.ID)).To(BeNil())

			_, err = svc.Get(ctx, session.ID)
			Expect(err).To(MatchError(util.ErrSessionNotFound))
		})

		It("reports unknown sessions", func() {
			Expect(svc.Restart(ctx, "missing")).To(MatchError(util.ErrSessionNotFound))
		})
	})

	Describe("snapshot restore", func() {
		It("resumes an interrupted session from the cache", func() {
			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.EditAnswer(ctx, session.ID, threeQuestions[0].Text, "saved before crash")
			Expect(err).NotTo(HaveOccurred())

			// A fresh service instance simulates a restarted process.
			svc.Shutdown()
			revived := service.NewSessionService(gen, store, cache, stubContexts{}, archiver, tickers.New)
			defer revived.Shutdown()

			restored, err := revived.Get(ctx, session.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.Status).To(Equal(model.StatusInProgress))
			Expect(restored.Answers[threeQuestions[0].Text]).To(Equal("saved before crash"))

			// The timer resumes with the restored session.
			ticker := tickers.last()
			ticker.Tick()
			Eventually(func() int {
				s, _ := revived.Get(ctx, session.ID)
				return s.ElapsedSeconds
			}).Should(BeNumerically(">", restored.ElapsedSeconds))
		})

		It("does not resurrect a completed snapshot", func() {
			cache.Save(ctx, &model.Session{
				ID:     "done-1",
				Status: model.StatusCompleted,
			})

			_, err := svc.Get(ctx, "done-1")
			Expect(err).To(MatchError(util.ErrSessionNotFound))
		})
	})

	Describe("warnings", func() {
		It("accumulates rather than replaces warning text", func() {
			gen.err = util.ErrGenerationNoCredentials
			store.createErr = fmt.Errorf("%w: down", util.ErrStoreUnavailable)

			session, err := svc.Start(ctx, profile)
			Expect(err).NotTo(HaveOccurred())
			parts := strings.Split(session.Warning, "; ")
			Expect(len(parts)).To(BeNumerically(">=", 2))
		})
	})
})
