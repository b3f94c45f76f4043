package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVisitedToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)

	u := &User{}
	assert.False(t, u.VisitedToday(now), "no visit yet")

	morning := time.Date(2026, 3, 10, 0, 5, 0, 0, time.Local)
	u.LastVisitAt = &morning
	assert.True(t, u.VisitedToday(now), "visit earlier the same day gates")

	yesterday := time.Date(2026, 3, 9, 23, 55, 0, 0, time.Local)
	u.LastVisitAt = &yesterday
	assert.False(t, u.VisitedToday(now), "late visit yesterday does not gate")
}

func TestVisitedTodayAcrossTimezones(t *testing.T) {
	// Last visit stored in UTC, gate evaluated in JST: the calendar day of
	// the evaluation clock decides.
	jst := time.FixedZone("JST", 9*3600)
	lastUTC := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC) // 2026-03-10 08:00 JST
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, jst)

	u := &User{LastVisitAt: &lastUTC}
	assert.True(t, u.VisitedToday(now))
}
