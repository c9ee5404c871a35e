package model

import (
	"fmt"
	"strings"
	"time"
)

// SessionStatus is the closed set of outcomes a focus session can have.
type SessionStatus string

const (
	StatusCompleted SessionStatus = "COMPLETED"
	StatusAborted   SessionStatus = "ABORTED"
)

// ParseSessionStatus accepts the two known statuses in any letter case.
func ParseSessionStatus(raw string) (SessionStatus, error) {
	switch SessionStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusAborted:
		return StatusAborted, nil
	default:
		return "", fmt.Errorf("unsupported session status %q", raw)
	}
}

func (s SessionStatus) Valid() bool {
	return s == StatusCompleted || s == StatusAborted
}

// FocusSession is one finished timer run. DurationMinutes is what every statistic reads;
// StartTime and EndTime are kept for listing and day bucketing.
type FocusSession struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	UserID          string        `gorm:"size:36;index:idx_session_owner_start,priority:1;not null" json:"user_id"`
	CategoryID      *uint         `gorm:"index" json:"category_id"`
	StartTime       time.Time     `gorm:"index:idx_session_owner_start,priority:2;not null" json:"start_time"`
	EndTime         *time.Time    `json:"end_time"`
	DurationMinutes int           `gorm:"not null" json:"duration_minutes"`
	Status          SessionStatus `gorm:"size:16;index;not null" json:"status"`
	Note            *string       `json:"note"`
	CreatedAt       time.Time     `json:"-"`
	UpdatedAt       time.Time     `json:"-"`
}
