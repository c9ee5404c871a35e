package model

import "time"

// DefaultColor is used when a category is created without a color token.
const DefaultColor = "#000000"

// Category labels sessions. It is visible only to its owning user.
type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    string         `gorm:"size:36;index;not null" json:"user_id"`
	Name      string         `gorm:"index;not null" json:"name"`
	Color     string         `gorm:"column:color_code;not null;default:'#000000'" json:"color_code"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	Sessions  []FocusSession `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
}
