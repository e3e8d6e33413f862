package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/internal/util"
	"github.com/harshaislive/bespoke/pkg/logger"
	"github.com/harshaislive/bespoke/pkg/monitoring"

	"go.uber.org/zap"
)

// SessionStore is the narrow durable-store surface the lifecycle needs:
// create once, overwrite answers wholesale, complete at most once.
type SessionStore interface {
	CreateSession(profile model.UserProfile, questions []model.Question) (string, error)
	SaveAnswers(id string, answers model.AnswerMap) error
	CompleteSession(id string, elapsedSeconds int) error
}

// TranscriptArchiver receives the finished session payload, best-effort.
type TranscriptArchiver interface {
	StoreTranscript(ctx context.Context, session *model.Session) error
}

const demoSessionIDPrefix = "demo-session-"

// Fallback question sets. Demo questions cover generator failures; default
// questions cover a generator that succeeded with an empty list.
func demoQuestions() []model.Question {
	return []model.Question{
		{Text: "Demo: What is your primary goal for today?"},
		{Text: "Demo: How can we assist you further?"},
	}
}

func defaultQuestions() []model.Question {
	return []model.Question{
		{Text: "Default: What are your primary goals?"},
		{Text: "Default: Describe a recent challenge."},
	}
}

// sessionRuntime pairs a live session with its tick source. persisted is
// false when the durable create failed in demo mode and the id is synthetic.
type sessionRuntime struct {
	session    *model.Session
	stop       chan struct{}
	persisted  bool
	completing bool
}

// SessionService owns the assessment-session lifecycle: it runs the question
// generator once per start, keeps the authoritative in-memory state, mirrors
// every mutation to the snapshot cache, and drives the elapsed timer. All
// mutations are serialized under one lock.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*sessionRuntime

	generator QuestionGenerator
	store     SessionStore
	cache     SessionCache
	contexts  ContextSource
	archiver  TranscriptArchiver
	newTicker TickerFactory
}

func NewSessionService(generator QuestionGenerator, store SessionStore, cache SessionCache, contexts ContextSource, archiver TranscriptArchiver, newTicker TickerFactory) *SessionService {
	if newTicker == nil {
		newTicker = NewWallClockTicker
	}
	return &SessionService{
		sessions:  make(map[string]*sessionRuntime),
		generator: generator,
		store:     store,
		cache:     cache,
		contexts:  contexts,
		archiver:  archiver,
		newTicker: newTicker,
	}
}

// Start runs the generator once and creates the durable record. Generator
// failures degrade into demo mode with fallback questions; a store failure
// on the non-demo path fails the whole start and leaves nothing behind. The
// user is never blocked by a degraded generator, only informed.
func (s *SessionService) Start(ctx context.Context, profile model.UserProfile) (*model.Session, error) {
	knowledge := s.contexts.Context(ctx)
	queries := s.contexts.UserQueries(ctx)

	demoMode := false
	warning := ""

	questions, err := s.generator.Generate(ctx, knowledge, queries)
	if err != nil {
		monitoring.GenerationFailures.WithLabelValues(generationFailureReason(err)).Inc()
		logger.Log.Warn("Question generation failed, starting in demo mode", zap.Error(err))
		questions = demoQuestions()
		demoMode = true
		warning = err.Error()
	} else if len(questions) == 0 {
		logger.Log.Warn("Generator returned no questions, using default set")
		questions = defaultQuestions()
	}

	id, err := s.store.CreateSession(profile, questions)
	if err != nil {
		if !demoMode {
			logger.Log.Error("Failed to create session record", zap.Error(err))
			return nil, err
		}
		// Durability is best-effort in demo mode: proceed locally.
		id = fmt.Sprintf("%s%d", demoSessionIDPrefix, time.Now().UnixNano())
		warning = appendWarning(warning, "session durability unavailable, running locally")
		logger.Log.Warn("Store unavailable in demo mode, using synthetic session id",
			zap.String("session_id", id), zap.Error(err))
	}

	session := &model.Session{
		ID:           id,
		Profile:      profile,
		Questions:    questions,
		Answers:      model.AnswerMap{},
		CurrentIndex: 0,
		StartedAt:    time.Now(),
		Status:       model.StatusInProgress,
		DemoMode:     demoMode,
		Warning:      warning,
	}

	s.mu.Lock()
	rt := &sessionRuntime{
		session:   session,
		persisted: !strings.HasPrefix(id, demoSessionIDPrefix),
	}
	s.sessions[id] = rt
	s.startTimerLocked(rt)
	snap := session.Clone()
	s.mu.Unlock()

	s.saveSnapshot(ctx, snap)

	mode := "live"
	if demoMode {
		mode = "demo"
	}
	monitoring.SessionsStarted.WithLabelValues(mode).Inc()
	logger.Log.Info("Assessment session started",
		zap.String("session_id", id),
		zap.Bool("demo_mode", demoMode),
		zap.Int("questions", len(questions)))

	return snap, nil
}

// Get returns the live session, restoring it from the snapshot cache when
// it is not in memory (e.g. after a server restart). The cache contract
// guarantees a restored session is never completed or malformed.
func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	if rt, ok := s.sessions[id]; ok {
		snap := rt.session.Clone()
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	cached, err := s.cache.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, util.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rt, ok := s.sessions[id]; ok {
		return rt.session.Clone(), nil
	}
	if cached.Answers == nil {
		cached.Answers = model.AnswerMap{}
	}
	rt := &sessionRuntime{
		session:   cached,
		persisted: !strings.HasPrefix(id, demoSessionIDPrefix),
	}
	s.sessions[id] = rt
	if cached.Status == model.StatusInProgress {
		s.startTimerLocked(rt)
	}
	logger.Log.Info("Session restored from snapshot cache", zap.String("session_id", id))
	return cached.Clone(), nil
}

// EditAnswer mutates the answer map and mirrors the new state. No
// completeness validation happens here.
func (s *SessionService) EditAnswer(ctx context.Context, id, questionText, value string) (*model.Session, error) {
	s.mu.Lock()
	rt, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, util.ErrSessionNotFound
	}
	if rt.session.Status != model.StatusInProgress {
		s.mu.Unlock()
		return nil, util.ErrSessionNotInProgress
	}
	rt.session.Answers[questionText] = value
	snap := rt.session.Clone()
	s.mu.Unlock()

	s.saveSnapshot(ctx, snap)
	return snap, nil
}

// Navigate reclamps the index into [0, len-1]. Out-of-range requests are
// clamped, not rejected.
func (s *SessionService) Navigate(ctx context.Context, id string, index int) (*model.Session, error) {
	s.mu.Lock()
	rt, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, util.ErrSessionNotFound
	}
	if rt.session.Status != model.StatusInProgress {
		s.mu.Unlock()
		return nil, util.ErrSessionNotInProgress
	}

	if max := len(rt.session.Questions) - 1; index > max {
		index = max
	}
	if index < 0 {
		index = 0
	}
	rt.session.CurrentIndex = index
	snap := rt.session.Clone()
	s.mu.Unlock()

	s.saveSnapshot(ctx, snap)
	return snap, nil
}

// Complete finalizes the session once every question has a non-blank
// answer. Store failures after the gate passes are reduced to warnings; the
// user has finished their work and the transition is never reverted.
func (s *SessionService) Complete(ctx context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	rt, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, util.ErrSessionNotFound
	}
	if rt.session.Status != model.StatusInProgress {
		s.mu.Unlock()
		return nil, util.ErrSessionNotInProgress
	}
	if rt.completing {
		s.mu.Unlock()
		return nil, util.ErrCompletionInFlight
	}

	if incomplete := FindIncompleteAnswers(rt.session.Questions, rt.session.Answers); len(incomplete) > 0 {
		first := questionIndex(rt.session.Questions, incomplete[0].Text)
		rt.session.CurrentIndex = first
		snap := rt.session.Clone()
		s.mu.Unlock()
		s.saveSnapshot(ctx, snap)
		return nil, &IncompleteAnswersError{Questions: incomplete, FirstIndex: first}
	}

	rt.completing = true
	s.stopTimerLocked(rt)
	snap := rt.session.Clone()
	persisted := rt.persisted
	s.mu.Unlock()

	var warnings []string
	if persisted {
		if err := s.store.SaveAnswers(snap.ID, snap.Answers); err != nil {
			logger.Log.Error("Failed to save final answers", zap.String("session_id", snap.ID), zap.Error(err))
			warnings = append(warnings, "final answers could not be saved remotely")
		}
		if err := s.store.CompleteSession(snap.ID, snap.ElapsedSeconds); err != nil {
			logger.Log.Error("Failed to mark session completed", zap.String("session_id", snap.ID), zap.Error(err))
			warnings = append(warnings, "completion could not be recorded remotely")
		}
	}

	if err := s.cache.Clear(ctx, snap.ID); err != nil {
		logger.Log.Warn("Failed to clear session snapshot", zap.String("session_id", snap.ID), zap.Error(err))
	}

	s.mu.Lock()
	rt.session.Status = model.StatusCompleted
	if len(warnings) > 0 {
		rt.session.Warning = appendWarning(rt.session.Warning, strings.Join(warnings, "; "))
	}
	final := rt.session.Clone()
	s.mu.Unlock()

	monitoring.SessionsCompleted.Inc()
	logger.Log.Info("Assessment session completed",
		zap.String("session_id", final.ID),
		zap.Int("elapsed_seconds", final.ElapsedSeconds))

	if s.archiver != nil {
		if err := s.archiver.StoreTranscript(ctx, final); err != nil {
			logger.Log.Warn("Transcript archive failed", zap.String("session_id", final.ID), zap.Error(err))
		}
	}

	return final, nil
}

// Restart drops the session entirely: timer stopped, snapshot cleared,
// every field back to defaults on the next start.
func (s *SessionService) Restart(ctx context.Context, id string) error {
	s.mu.Lock()
	rt, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return util.ErrSessionNotFound
	}
	s.stopTimerLocked(rt)
	delete(s.sessions, id)
	s.mu.Unlock()

	if err := s.cache.Clear(ctx, id); err != nil {
		logger.Log.Warn("Failed to clear session snapshot on restart", zap.String("session_id", id), zap.Error(err))
	}
	logger.Log.Info("Assessment session restarted", zap.String("session_id", id))
	return nil
}

// Shutdown cancels every live tick source. Sessions stay resumable through
// the snapshot cache.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rt := range s.sessions {
		s.stopTimerLocked(rt)
	}
}

// startTimerLocked launches the single tick source for a session. The
// caller holds s.mu.
func (s *SessionService) startTimerLocked(rt *sessionRuntime) {
	if rt.stop != nil {
		return
	}
	stop := make(chan struct{})
	rt.stop = stop
	ticker := s.newTicker(time.Second)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				s.mu.Lock()
				if rt.stop == nil || rt.session.Status != model.StatusInProgress {
					s.mu.Unlock()
					return
				}
				rt.session.ElapsedSeconds++
				snap := rt.session.Clone()
				s.mu.Unlock()
				s.saveSnapshot(context.Background(), snap)
			}
		}
	}()
}

// stopTimerLocked is idempotent; the caller holds s.mu.
func (s *SessionService) stopTimerLocked(rt *sessionRuntime) {
	if rt.stop == nil {
		return
	}
	close(rt.stop)
	rt.stop = nil
}

// saveSnapshot mirrors state to the cache. Failures are logged and swallowed;
// the in-memory state stays authoritative.
func (s *SessionService) saveSnapshot(ctx context.Context, session *model.Session) {
	if err := s.cache.Save(ctx, session); err != nil {
		logger.Log.Warn("Session snapshot save failed", zap.String("session_id", session.ID), zap.Error(err))
	}
}

func questionIndex(questions []model.Question, text string) int {
	for i, q := range questions {
		if q.Text == text {
			return i
		}
	}
	return 0
}

func appendWarning(existing, extra string) string {
	if existing == "" {
		return extra
	}
	if extra == "" {
		return existing
	}
	return existing + "; " + extra
}

func generationFailureReason(err error) string {
	switch {
	case errors.Is(err, util.ErrGenerationNoCredentials):
		return "no_credentials"
	case errors.Is(err, util.ErrGenerationMalformed):
		return "malformed"
	default:
		return "upstream"
	}
}
