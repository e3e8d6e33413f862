package repository

import (
	"github.com/harshaislive/bespoke/internal/model"

	"gorm.io/gorm"
)

type FeedbackRepository struct {
	DB *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{DB: db}
}

func (r *FeedbackRepository) Create(f *model.Feedback) error {
	return r.DB.Create(f).Error
}

func (r *FeedbackRepository) ListBySession(sessionID string) ([]model.Feedback, error) {
	var rows []model.Feedback
	err := r.DB.Preload("Author").
		Where("session_id = ?", sessionID).
		Order("feedback_at asc").
		Find(&rows).Error
	return rows, err
}
