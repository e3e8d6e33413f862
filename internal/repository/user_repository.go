package repository

import (
	"errors"
	"time"

	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/internal/util"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return &user, err
}

// FindOrCreateByEmail backs the passwordless flow: anyone requesting a magic
// link gets an employee row on first contact.
func (r *UserRepository) FindOrCreateByEmail(email string) (*model.User, error) {
	user, err := r.FindByEmail(email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, util.ErrUserNotFound) {
		return nil, err
	}

	user = &model.User{
		Email: email,
		Name:  email,
		Role:  model.Employee,
	}
	if err := r.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) TouchLastLogin(id string) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).
		Update("last_login", time.Now()).Error
}
