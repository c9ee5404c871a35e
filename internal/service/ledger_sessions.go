package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowstate/internal/apperrors"
	"flowstate/internal/model"
	"flowstate/internal/repository"
)

const maxNoteLength = 2000

// MaxDurationMinutes caps one session at a full day.
const MaxDurationMinutes = 24 * 60

// SessionInput represents data required to record a finished session.
type SessionInput struct {
	DurationMinutes int
	Status          string
	Note            *string
	CategoryID      *uint
}

// SessionPatch carries only the fields a caller explicitly supplied.
type SessionPatch struct {
	DurationMinutes model.Optional[int]
	Status          model.Optional[string]
	Note            model.Optional[string]
	CategoryID      model.Optional[uint]
}

// CreateSession records a session that finished now: end is now and start is back-computed
// from the duration.
func (s *LedgerService) CreateSession(ctx context.Context, userID string, input SessionInput) (*model.FocusSession, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if err := checkDuration(input.DurationMinutes); err != nil {
		return nil, err
	}
	status, err := model.ParseSessionStatus(input.Status)
	if err != nil {
		return nil, invalid("%v", err)
	}
	note, err := normalizeNote(input.Note)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, input.CategoryID); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	end := now
	session := model.FocusSession{
		ID:              uuid.NewString(),
		UserID:          userID,
		CategoryID:      input.CategoryID,
		StartTime:       now.Add(-time.Duration(input.DurationMinutes) * time.Minute),
		EndTime:         &end,
		DurationMinutes: input.DurationMinutes,
		Status:          status,
		Note:            note,
	}
	if err := s.sessionRepo.Create(ctx, &session); err != nil {
		return nil, err
	}
	s.changed(ctx, userID)
	return &session, nil
}

// UpdateSession applies patch to the caller's session. Start and end instants stay as
// recorded.
func (s *LedgerService) UpdateSession(ctx context.Context, userID, sessionID string, patch SessionPatch) (*model.FocusSession, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if patch.DurationMinutes.Set {
		if patch.DurationMinutes.Value == nil {
			return nil, invalid("duration_minutes cannot be null")
		}
		if err := checkDuration(*patch.DurationMinutes.Value); err != nil {
			return nil, err
		}
	}
	var status model.SessionStatus
	if patch.Status.Set {
		if patch.Status.Value == nil {
			return nil, invalid("status cannot be null")
		}
		parsed, err := model.ParseSessionStatus(*patch.Status.Value)
		if err != nil {
			return nil, invalid("%v", err)
		}
		status = parsed
	}
	var note *string
	if patch.Note.Set {
		normalized, err := normalizeNote(patch.Note.Value)
		if err != nil {
			return nil, err
		}
		note = normalized
	}
	if patch.CategoryID.Set {
		if err := s.checkCategory(ctx, userID, patch.CategoryID.Value); err != nil {
			return nil, err
		}
	}

	session, err := s.sessionRepo.FindByID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if patch.DurationMinutes.Set {
		session.DurationMinutes = *patch.DurationMinutes.Value
	}
	if patch.Status.Set {
		session.Status = status
	}
	if patch.Note.Set {
		session.Note = note
	}
	if patch.CategoryID.Set {
		session.CategoryID = patch.CategoryID.Value
	}
	if err := s.sessionRepo.SaveMutable(ctx, session); err != nil {
		return nil, err
	}
	s.changed(ctx, userID)
	return session, nil
}

// ImportSessions stores sessions that carry their own start and end instants, such as
// history brought in from elsewhere. Ids are assigned here; every record is validated first.
func (s *LedgerService) ImportSessions(ctx context.Context, userID string, sessions []model.FocusSession) error {
	if err := requireOwner(userID); err != nil {
		return err
	}
	checked := make(map[uint]bool)
	for i := range sessions {
		rec := &sessions[i]
		if err := checkDuration(rec.DurationMinutes); err != nil {
			return fmt.Errorf("session %d: %w", i, err)
		}
		if !rec.Status.Valid() {
			return invalid("session %d: unsupported status %q", i, rec.Status)
		}
		if rec.StartTime.IsZero() {
			return invalid("session %d: start_time is required", i)
		}
		if rec.CategoryID != nil && !checked[*rec.CategoryID] {
			if err := s.checkCategory(ctx, userID, rec.CategoryID); err != nil {
				return err
			}
			checked[*rec.CategoryID] = true
		}
		rec.ID = uuid.NewString()
		rec.UserID = userID
		rec.StartTime = rec.StartTime.UTC()
		if rec.EndTime == nil {
			end := rec.StartTime.Add(time.Duration(rec.DurationMinutes) * time.Minute)
			rec.EndTime = &end
		}
	}
	if err := s.sessionRepo.CreateBatch(ctx, sessions); err != nil {
		return err
	}
	if len(sessions) > 0 {
		s.changed(ctx, userID)
	}
	return nil
}

// ListSessions returns the caller's sessions, most recent start first.
func (s *LedgerService) ListSessions(ctx context.Context, userID string, categoryID *uint, offset, limit int) ([]model.FocusSession, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	return s.sessionRepo.List(ctx, repository.SessionFilter{
		UserID:     userID,
		CategoryID: categoryID,
		Offset:     offset,
		Limit:      limit,
	})
}

func checkDuration(minutes int) error {
	if minutes <= 0 {
		return invalid("duration_minutes must be positive")
	}
	if minutes > MaxDurationMinutes {
		return invalid("duration_minutes must not exceed %d", MaxDurationMinutes)
	}
	return nil
}

func (s *LedgerService) checkCategory(ctx context.Context, userID string, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categoryRepo.GetByID(ctx, userID, *categoryID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return invalid("unknown category %d", *categoryID)
		}
		return err
	}
	return nil
}

func normalizeNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, nil
	}
	if len([]rune(trimmed)) > maxNoteLength {
		return nil, invalid("note is longer than %d characters", maxNoteLength)
	}
	return &trimmed, nil
}
