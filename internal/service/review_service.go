package service

import (
	"time"

	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/internal/repository"
)

// ReviewService backs the manager surface: browsing completed sessions and
// leaving feedback on them.
type ReviewService struct {
	Sessions *repository.SessionRepository
	Feedback *repository.FeedbackRepository
}

func NewReviewService(sessions *repository.SessionRepository, feedback *repository.FeedbackRepository) *ReviewService {
	return &ReviewService{Sessions: sessions, Feedback: feedback}
}

func (s *ReviewService) ListSessions(page, limit int, status, name string) ([]model.AssessmentSession, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.Sessions.List(page, limit, status, name)
}

func (s *ReviewService) GetSession(id string) (*model.AssessmentSession, error) {
	return s.Sessions.FindByID(id)
}

func (s *ReviewService) AddFeedback(sessionID, authorID, text string) (*model.Feedback, error) {
	if _, err := s.Sessions.FindByID(sessionID); err != nil {
		return nil, err
	}

	f := &model.Feedback{
		SessionID:  sessionID,
		Feedback:   text,
		FeedbackBy: authorID,
		FeedbackAt: time.Now(),
	}
	if err := s.Feedback.Create(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *ReviewService) ListFeedback(sessionID string) ([]model.Feedback, error) {
	return s.Feedback.ListBySession(sessionID)
}
