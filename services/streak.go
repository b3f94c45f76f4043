package services

import (
	"time"

	"github.com/yaoyorozu/sanpai/models"
)

// StreakTracker applies the consecutive-day rules and knows which streak
// values are milestones worth a notification.
type StreakTracker struct {
	milestones []int
}

// NewStreakTracker builds a tracker; nil milestones fall back to the classic set.
func NewStreakTracker(milestones []int) *StreakTracker {
	if len(milestones) == 0 {
		milestones = []int{3, 7, 14, 30, 100}
	}
	return &StreakTracker{milestones: milestones}
}

// Next computes the streak for a visit happening at now, given the previous
// visit. Delta of exactly one calendar day increments; same day keeps the
// current value (the daily gate should prevent this); anything else resets to 1.
func (t *StreakTracker) Next(prev *models.VisitRecord, currentStreak int, now time.Time) int {
	if prev == nil {
		return 1
	}
	switch CalendarDayDelta(prev.VisitedAt, now) {
	case 0:
		if currentStreak < 1 {
			return 1
		}
		return currentStreak
	case 1:
		if currentStreak < 1 {
			currentStreak = prev.StreakAchieved
		}
		return currentStreak + 1
	default:
		return 1
	}
}

// IsMilestone reports whether the streak value triggers a notification.
func (t *StreakTracker) IsMilestone(streak int) bool {
	for _, m := range t.milestones {
		if streak == m {
			return true
		}
	}
	return false
}

// NextMilestone returns the smallest milestone above the given streak, or 0
// when the streak is past the table.
func (t *StreakTracker) NextMilestone(streak int) int {
	next := 0
	for _, m := range t.milestones {
		if m > streak && (next == 0 || m < next) {
			next = m
		}
	}
	return next
}

// Milestones exposes the configured milestone table (for the client config endpoint).
func (t *StreakTracker) Milestones() []int {
	out := make([]int, len(t.milestones))
	copy(out, t.milestones)
	return out
}

// CalendarDayDelta returns the whole calendar days between a and b in b's
// location. Midnight boundaries count, wall-clock distance does not.
func CalendarDayDelta(a, b time.Time) int {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, b.Location())
	end := time.Date(by, bm, bd, 0, 0, 0, 0, b.Location())
	// Round so DST-shortened or lengthened days still count as one day
	return int((end.Sub(start) + 12*time.Hour) / (24 * time.Hour))
}
