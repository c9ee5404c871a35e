package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"flowstate/internal/model"
)

// SessionFilter narrows a session listing.
type SessionFilter struct {
	UserID     string
	CategoryID *uint
	Offset     int
	Limit      int
}

// SessionRepository handles focus session rows. Rows are never deleted here.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.FocusSession) error {
	return translate(r.db.WithContext(ctx).Create(session).Error, "create session")
}

// CreateBatch inserts sessions with their own start/end instants (used by seeding).
func (r *SessionRepository) CreateBatch(ctx context.Context, sessions []model.FocusSession) error {
	if len(sessions) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).CreateInBatches(sessions, 200).Error, "create sessions")
}

func (r *SessionRepository) FindByID(ctx context.Context, userID, id string) (*model.FocusSession, error) {
	var session model.FocusSession
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&session).Error; err != nil {
		return nil, translate(err, "find session")
	}
	return &session, nil
}

// SaveMutable writes the user-editable columns of session back, scoped by owner.
func (r *SessionRepository) SaveMutable(ctx context.Context, session *model.FocusSession) error {
	res := r.db.WithContext(ctx).Model(session).
		Where("user_id = ?", session.UserID).
		Select("category_id", "duration_minutes", "status", "note").
		Updates(session)
	if res.Error != nil {
		return translate(res.Error, "update session")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "update session")
	}
	return nil
}

// List returns the owner's sessions, most recent start first.
func (r *SessionRepository) List(ctx context.Context, filter SessionFilter) ([]model.FocusSession, error) {
	offset, limit := page(filter.Offset, filter.Limit)
	query := r.db.WithContext(ctx).Where("user_id = ?", filter.UserID)
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	var sessions []model.FocusSession
	if err := query.Order("start_time DESC").Order("id DESC").
		Offset(offset).Limit(limit).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Completed returns the owner's COMPLETED sessions starting at or after since.
// A zero since means no lower bound.
func (r *SessionRepository) Completed(ctx context.Context, userID string, categoryID *uint, since time.Time) ([]model.FocusSession, error) {
	query := r.db.WithContext(ctx).Where("user_id = ? AND status = ?", userID, model.StatusCompleted)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	if !since.IsZero() {
		query = query.Where("start_time >= ?", since.UTC())
	}
	var sessions []model.FocusSession
	if err := query.Order("start_time ASC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("load completed sessions: %w", err)
	}
	return sessions, nil
}
