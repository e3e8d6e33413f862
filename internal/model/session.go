package model

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// UserProfile is captured once via the intake form and is immutable for
// the lifetime of the session. Email may be pre-filled from the signed-in
// identity.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Team  string `json:"team"`
}

// Question display order equals slice order and is fixed once a session
// starts.
type Question struct {
	Text string `json:"text"`
}

// AnswerMap keys answers by question text. A missing or whitespace-only
// entry means unanswered.
type AnswerMap map[string]string

// Session is the authoritative in-memory assessment state, also the shape
// of the snapshot mirrored to the cache while in progress.
// swagger:model Session
type Session struct {
	ID             string        `json:"id"`
	Profile        UserProfile   `json:"profile"`
	Questions      []Question    `json:"questions"`
	Answers        AnswerMap     `json:"answers"`
	CurrentIndex   int           `json:"currentIndex"`
	StartedAt      time.Time     `json:"startedAt"`
	Status         SessionStatus `json:"status"`
	ElapsedSeconds int           `json:"elapsedSeconds"`
	DemoMode       bool          `json:"isDemoMode"`
	Warning        string        `json:"warning,omitempty"`
}

// Clone returns a deep copy safe to hand outside the manager's lock.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Questions = make([]Question, len(s.Questions))
	copy(cp.Questions, s.Questions)
	cp.Answers = make(AnswerMap, len(s.Answers))
	for k, v := range s.Answers {
		cp.Answers[k] = v
	}
	return &cp
}

// AssessmentSession is the durable counterpart of Session, one row per
// attempt. Created once, updated at most twice more (answers payload,
// completion metadata); last write wins.
// swagger:model AssessmentSession
type AssessmentSession struct {
	UUIDBase
	UserID    *string         `gorm:"type:uuid;index" json:"userId,omitempty"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Email     string          `gorm:"size:100;not null" json:"email"`
	Team      string          `gorm:"size:100" json:"team"`
	Questions json.RawMessage `gorm:"type:jsonb;not null" json:"questions"`
	Answers   json.RawMessage `gorm:"type:jsonb;default:'{}'" json:"answers"`
	Status    string          `gorm:"size:20;default:'in_progress'" json:"status"`
	StartTime time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"startTime"`
	EndTime   *time.Time      `json:"endTime,omitempty"`
	TotalTime int             `json:"totalTime"` // seconds
}

func (AssessmentSession) TableName() string {
	return "sessions"
}
