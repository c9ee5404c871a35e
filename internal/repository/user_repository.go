package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"flowstate/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "create user")
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "find user")
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, "find user")
	}
	return &user, nil
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, translate(err, "find user")
	}
	return &user, nil
}

// LinkTelegram binds telegramID to userID, detaching it from any other account first.
func (r *UserRepository) LinkTelegram(ctx context.Context, userID string, telegramID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).
			Where("telegram_id = ? AND id <> ?", telegramID, userID).
			UpdateColumn("telegram_id", nil).Error; err != nil {
			return err
		}
		res := tx.Model(&model.User{}).Where("id = ?", userID).UpdateColumn("telegram_id", telegramID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "link telegram")
}

// ListLinked returns users with a bound Telegram chat.
func (r *UserRepository) ListLinked(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_id IS NOT NULL").Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list linked users: %w", err)
	}
	return users, nil
}
