package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Playshare/model"

	"gorm.io/gorm"
)

// ErrDuplicateUser is returned when the username is already taken.
var ErrDuplicateUser = errors.New("username already exists")

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	SetSuperuser(ctx context.Context, id int64, superuser bool) error
	// Delete removes the account and detaches its playlists and songs.
	Delete(ctx context.Context, id int64) error
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a GORM-backed UserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *model.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ?", user.Username).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check username %q: %w", user.Username, err)
	}
	if count > 0 {
		return ErrDuplicateUser
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user %q: %w", user.Username, err)
	}
	return nil
}

// GetByID returns (nil, nil) when the user does not exist.
func (r *gormUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

// GetByUsername returns (nil, nil) when the user does not exist.
func (r *gormUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return &user, nil
}

func (r *gormUserRepository) SetSuperuser(ctx context.Context, id int64, superuser bool) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_superuser", superuser)
	if res.Error != nil {
		return fmt.Errorf("failed to update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormUserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Playlist{}).
			Where("creator_id = ?", id).
			Update("creator_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach playlists of user %d: %w", id, err)
		}
		if err := tx.Model(&model.Song{}).
			Where("uploaded_by_id = ?", id).
			Update("uploaded_by_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach songs of user %d: %w", id, err)
		}
		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// isUniqueViolation recognises MySQL and SQLite duplicate-key errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint")
}
