package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/kama-line/service-reservation/internal/domain/errs"
	"github.com/kama-line/service-reservation/internal/domain/user"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	ExternalID int64     `gorm:"uniqueIndex;not null"`
	FullName   string    `gorm:"size:200"`
	Phone      string    `gorm:"not null;size:30"`
	Role       string    `gorm:"not null;size:20;default:'customer'"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (UserModel) TableName() string {
	return "users"
}

// GormUserDirectory is the GORM-based implementation of user.Directory.
type GormUserDirectory struct {
	db *gorm.DB
}

// NewGormUserDirectory creates a new GormUserDirectory.
func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

// FindByID retrieves a user by internal identifier.
func (r *GormUserDirectory) FindByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFoundError("User", strconv.FormatInt(id, 10))
		}
		return nil, errs.NewPersistenceError(fmt.Errorf("failed to find user by ID: %w", err))
	}
	return toDomainUser(&model), nil
}

// FindByExternalID resolves a user by the chat transport's stable handle.
func (r *GormUserDirectory) FindByExternalID(ctx context.Context, externalID int64) (*user.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFoundError("User", strconv.FormatInt(externalID, 10))
		}
		return nil, errs.NewPersistenceError(fmt.Errorf("failed to find user by external ID: %w", err))
	}
	return toDomainUser(&model), nil
}

// Create persists a new user and backfills the assigned id.
func (r *GormUserDirectory) Create(ctx context.Context, u *user.User) error {
	model := &UserModel{
		ExternalID: u.ExternalID,
		FullName:   u.FullName,
		Phone:      u.Phone,
		Role:       string(u.Role),
		CreatedAt:  u.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictError("user already registered")
		}
		return errs.NewPersistenceError(fmt.Errorf("failed to create user: %w", err))
	}
	u.ID = model.ID
	return nil
}

func toDomainUser(m *UserModel) *user.User {
	return &user.User{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		FullName:   m.FullName,
		Phone:      m.Phone,
		Role:       user.Role(m.Role),
		CreatedAt:  m.CreatedAt,
	}
}
