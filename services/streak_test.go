package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yaoyorozu/sanpai/models"
)

func visitAt(t time.Time, streak int) *models.VisitRecord {
	return &models.VisitRecord{VisitedAt: t, StreakAchieved: streak}
}

func TestStreakFirstVisitStartsAtOne(t *testing.T) {
	tracker := NewStreakTracker(nil)
	assert.Equal(t, 1, tracker.Next(nil, 0, time.Now()))
}

func TestStreakConsecutiveDayIncrements(t *testing.T) {
	tracker := NewStreakTracker(nil)
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	prev := visitAt(now.AddDate(0, 0, -1), 6)
	assert.Equal(t, 7, tracker.Next(prev, 6, now))
}

func TestStreakMidnightBoundaryCounts(t *testing.T) {
	tracker := NewStreakTracker(nil)
	// 23:50 yesterday -> 00:10 today is 20 minutes apart but one calendar day
	prev := visitAt(time.Date(2026, 3, 9, 23, 50, 0, 0, time.Local), 2)
	now := time.Date(2026, 3, 10, 0, 10, 0, 0, time.Local)
	assert.Equal(t, 3, tracker.Next(prev, 2, now))
}

func TestStreakGapResetsToOne(t *testing.T) {
	tracker := NewStreakTracker(nil)
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	prev := visitAt(now.AddDate(0, 0, -2), 14)
	assert.Equal(t, 1, tracker.Next(prev, 14, now))

	prev = visitAt(now.AddDate(0, -1, 0), 30)
	assert.Equal(t, 1, tracker.Next(prev, 30, now))
}

func TestStreakSameDayKeepsCurrent(t *testing.T) {
	tracker := NewStreakTracker(nil)
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.Local)
	prev := visitAt(now.Add(-4*time.Hour), 5)
	assert.Equal(t, 5, tracker.Next(prev, 5, now))
}

func TestStreakMilestones(t *testing.T) {
	tracker := NewStreakTracker(nil)
	for _, m := range []int{3, 7, 14, 30, 100} {
		assert.True(t, tracker.IsMilestone(m), "%d should be a milestone", m)
	}
	for _, m := range []int{1, 2, 4, 15, 99, 101} {
		assert.False(t, tracker.IsMilestone(m), "%d should not be a milestone", m)
	}
}

func TestStreakCustomMilestones(t *testing.T) {
	tracker := NewStreakTracker([]int{5, 10})
	assert.True(t, tracker.IsMilestone(5))
	assert.False(t, tracker.IsMilestone(7))
	assert.Equal(t, []int{5, 10}, tracker.Milestones())
}

func TestStreakNextMilestone(t *testing.T) {
	tracker := NewStreakTracker(nil)
	assert.Equal(t, 3, tracker.NextMilestone(0))
	assert.Equal(t, 7, tracker.NextMilestone(3))
	assert.Equal(t, 100, tracker.NextMilestone(30))
	assert.Equal(t, 0, tracker.NextMilestone(100))
}

func TestCalendarDayDelta(t *testing.T) {
	loc := time.Local
	a := time.Date(2026, 3, 9, 23, 59, 0, 0, loc)
	b := time.Date(2026, 3, 10, 0, 1, 0, 0, loc)
	assert.Equal(t, 1, CalendarDayDelta(a, b))

	a = time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	b = time.Date(2026, 3, 10, 23, 59, 59, 0, loc)
	assert.Equal(t, 0, CalendarDayDelta(a, b))

	a = time.Date(2026, 2, 28, 12, 0, 0, 0, loc)
	b = time.Date(2026, 3, 1, 12, 0, 0, 0, loc)
	assert.Equal(t, 1, CalendarDayDelta(a, b))
}
