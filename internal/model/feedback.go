package model

import "time"

// Feedback is a manager's review note on a completed session.
// swagger:model Feedback
type Feedback struct {
	UUIDBase
	SessionID  string    `gorm:"type:uuid;index;not null" json:"sessionId"`
	Feedback   string    `gorm:"type:text;not null" json:"feedback"`
	FeedbackBy string    `gorm:"type:uuid" json:"feedbackBy"`
	FeedbackAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"feedbackAt"`
	Author     *User     `gorm:"foreignKey:FeedbackBy" json:"author,omitempty"`
}

func (Feedback) TableName() string {
	return "feedback"
}
