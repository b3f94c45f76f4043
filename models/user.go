package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a villager profile. Passwords are stored as bcrypt hashes only.
// CulturalCapital is the point currency earned per visit; it only grows through
// the visit flow (spending/transfers live outside this service).
type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Username        string         `gorm:"size:64;not null" json:"username"`
	Email           string         `gorm:"size:255" json:"email"`
	PasswordHash    string         `gorm:"size:255" json:"-"`
	Provider        string         `gorm:"size:32" json:"provider"`
	ProviderID      string         `gorm:"size:255" json:"provider_id"`
	AvatarURL       string         `gorm:"size:512" json:"avatar_url"`
	Signature       string         `gorm:"size:255" json:"signature"`
	CulturalCapital int            `gorm:"default:0" json:"cultural_capital"`
	CurrentStreak   int            `gorm:"default:0" json:"current_streak"`
	LongestStreak   int            `gorm:"default:0" json:"longest_streak"`
	LastVisitAt     *time.Time     `json:"last_visit_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	Visits          []VisitRecord  `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// VisitedToday reports whether the user already has a recorded visit on the
// calendar day of now (local time). This is the daily gate.
func (u *User) VisitedToday(now time.Time) bool {
	if u.LastVisitAt == nil {
		return false
	}
	last := u.LastVisitAt.In(now.Location())
	return last.Year() == now.Year() && last.YearDay() == now.YearDay()
}
