package models

import "time"

// Verification methods for a visit attempt.
const (
	MethodLocation = "location"
	MethodQR       = "qr"
	MethodManual   = "manual"
)

// VisitRecord stores one successful shrine visit. Records are append-only:
// they are created exactly once on the terminal Complete transition and never
// mutated afterwards.
type VisitRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PublicID       string    `gorm:"size:36;uniqueIndex;not null" json:"public_id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	ShrineID       uint      `gorm:"index;not null" json:"shrine_id"`
	VisitedAt      time.Time `gorm:"index;not null" json:"visited_at"`
	Method         string    `gorm:"size:16;not null" json:"method"`
	StreakAchieved int       `json:"streak_achieved"`
	PointsAwarded  int       `json:"points_awarded"`
	CreatedAt      time.Time `json:"created_at"`
	Shrine         Shrine    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"shrine"`
	Rewards        []Reward  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"rewards"`
}
