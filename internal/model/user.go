package model

import "time"

type UserRole string

const (
	Employee UserRole = "employee"
	Manager  UserRole = "manager"
)

// swagger:model User
type User struct {
	UUIDBase
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Role      UserRole  `gorm:"size:20;default:'employee'" json:"role"`
	Team      string    `gorm:"size:100" json:"team"`
	LastLogin time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
