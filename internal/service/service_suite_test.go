package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/internal/service"
	"github.com/harshaislive/bespoke/pkg/logger"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

func TestService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Service Suite")
}

// stubGenerator returns a fixed question list or error for every call.
type stubGenerator struct {
	mu        sync.Mutex
	questions []model.Question
	err       error
	calls     int
}

func (g *stubGenerator) Generate(ctx context.Context, knowledgeContext, userQueries string) ([]model.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.questions, nil
}

type stubContexts struct{}

func (stubContexts) Context(context.Context) string     { return "business context" }
func (stubContexts) UserQueries(context.Context) string { return "user queries" }

// memoryStore implements service.SessionStore with injectable failures.
type memoryStore struct {
	mu          sync.Mutex
	createErr   error
	saveErr     error
	completeErr error

	nextID    int
	answers   map[string]model.AnswerMap
	completed map[string]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		answers:   make(map[string]model.AnswerMap),
		completed: make(map[string]int),
	}
}

func (s *memoryStore) CreateSession(profile model.UserProfile, questions []model.Question) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.nextID++
	id := fmt.Sprintf("sess-%d", s.nextID)
	s.answers[id] = model.AnswerMap{}
	return id, nil
}

func (s *memoryStore) SaveAnswers(id string, answers model.AnswerMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.answers[id] = answers
	return nil
}

func (s *memoryStore) CompleteSession(id string, elapsedSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completed[id] = elapsedSeconds
	return nil
}

func (s *memoryStore) created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

func (s *memoryStore) completedElapsed(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.completed[id]
	return v, ok
}

// memoryCache is an in-process stand-in for the redis snapshot slot. It
// honors the Load contract: completed snapshots are cleared, never returned.
type memoryCache struct {
	mu        sync.Mutex
	snapshots map[string]*model.Session
	saveErr   error
	loadErr   error
	clearErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{snapshots: make(map[string]*model.Session)}
}

func (c *memoryCache) Save(ctx context.Context, session *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	c.snapshots[session.ID] = session.Clone()
	return nil
}

func (c *memoryCache) Load(ctx context.Context, id string) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	snap, ok := c.snapshots[id]
	if !ok {
		return nil, nil
	}
	if snap.Status == model.StatusCompleted {
		delete(c.snapshots, id)
		return nil, nil
	}
	return snap.Clone(), nil
}

func (c *memoryCache) Clear(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearErr != nil {
		return c.clearErr
	}
	delete(c.snapshots, id)
	return nil
}

func (c *memoryCache) snapshot(id string) *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.snapshots[id]
	if !ok {
		return nil
	}
	return snap.Clone()
}

// manualTicker lets tests drive wall-clock seconds by hand. The channel is
// buffered so a tick sent after the consumer exited does not block the test.
type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time, 1)}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) Tick() {
	select {
	case t.ch <- time.Now():
	default:
	}
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// tickerSource hands out manualTickers and remembers them in order.
type tickerSource struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (f *tickerSource) New(time.Duration) service.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := newManualTicker()
	f.tickers = append(f.tickers, t)
	return t
}

func (f *tickerSource) last() *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}

// recordingArchiver captures completed transcripts.
type recordingArchiver struct {
	mu       sync.Mutex
	stored   []*model.Session
	storeErr error
}

func (a *recordingArchiver) StoreTranscript(ctx context.Context, session *model.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.storeErr != nil {
		return a.storeErr
	}
	a.stored = append(a.stored, session)
	return nil
}

func (a *recordingArchiver) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.stored)
}
