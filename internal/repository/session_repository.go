package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/internal/util"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// CreateSession inserts one durable record with the profile and the frozen
// question list. Empty profile fields or an empty question list never reach
// the database.
func (r *SessionRepository) CreateSession(profile model.UserProfile, questions []model.Question) (string, error) {
	if profile.Name == "" || profile.Email == "" {
		return "", fmt.Errorf("%w: name and email are required", util.ErrStoreValidation)
	}
	if len(questions) == 0 {
		return "", fmt.Errorf("%w: question list is empty", util.ErrStoreValidation)
	}

	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrStoreValidation, err)
	}

	row := &model.AssessmentSession{
		Name:      profile.Name,
		Email:     profile.Email,
		Team:      profile.Team,
		Questions: questionsJSON,
		Answers:   json.RawMessage(`{}`),
		Status:    string(model.StatusInProgress),
		StartTime: time.Now(),
	}
	if err := r.DB.Create(row).Error; err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	return row.ID, nil
}

// SaveAnswers overwrites the answers column wholesale. Callers always submit
// the complete current answer map, never a delta.
func (r *SessionRepository) SaveAnswers(id string, answers model.AnswerMap) error {
	payload, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrStoreValidation, err)
	}

	res := r.DB.Model(&model.AssessmentSession{}).
		Where("id = ?", id).
		Update("answers", json.RawMessage(payload))
	if res.Error != nil {
		return fmt.Errorf("%w: %v", util.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return util.ErrSessionNotFound
	}
	return nil
}

// CompleteSession marks the row completed with end time and total elapsed
// time. Not idempotent; the session manager guards re-entry.
func (r *SessionRepository) CompleteSession(id string, elapsedSeconds int) error {
	now := time.Now()
	res := r.DB.Model(&model.AssessmentSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(model.StatusCompleted),
			"end_time":   &now,
			"total_time": elapsedSeconds,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", util.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return util.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) FindByID(id string) (*model.AssessmentSession, error) {
	var s model.AssessmentSession
	err := r.DB.First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	return &s, err
}

// List returns sessions for the manager review surface, newest first.
func (r *SessionRepository) List(page, limit int, status, name string) ([]model.AssessmentSession, int64, error) {
	var rows []model.AssessmentSession
	var total int64

	query := r.DB.Model(&model.AssessmentSession{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if name != "" {
		query = query.Where("name ILIKE ?", "%"+name+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}
