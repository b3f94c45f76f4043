package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yaoyorozu/sanpai/models"
)

func TestEligibilityDailyGateWinsOverInputs(t *testing.T) {
	now := time.Now()
	user := &models.User{ID: 1, LastVisitAt: &now}
	result := CheckEligibility(EligibilityInput{
		Profile:      user,
		Now:          now,
		NearbyShrine: &models.Shrine{Slug: "meiji-jingu"},
		QRPayload:    "some-token",
	})
	assert.False(t, result.CanVisit)
	assert.Equal(t, "already visited today", result.Reason)
}

func TestEligibilityLocationPreferredOverQR(t *testing.T) {
	user := &models.User{ID: 1}
	result := CheckEligibility(EligibilityInput{
		Profile:      user,
		Now:          time.Now(),
		NearbyShrine: &models.Shrine{Slug: "meiji-jingu"},
		QRPayload:    "some-token",
	})
	assert.True(t, result.CanVisit)
	assert.Equal(t, models.MethodLocation, result.Method)
}

func TestEligibilityQRWithoutLocation(t *testing.T) {
	result := CheckEligibility(EligibilityInput{
		Profile:   &models.User{ID: 1},
		Now:       time.Now(),
		QRPayload: "some-token",
	})
	assert.True(t, result.CanVisit)
	assert.Equal(t, models.MethodQR, result.Method)
}

func TestEligibilityNoInputs(t *testing.T) {
	result := CheckEligibility(EligibilityInput{Profile: &models.User{ID: 1}, Now: time.Now()})
	assert.False(t, result.CanVisit)
	assert.NotEmpty(t, result.Reason)
}

func TestEligibilityNilProfile(t *testing.T) {
	result := CheckEligibility(EligibilityInput{Now: time.Now()})
	assert.False(t, result.CanVisit)
}

func TestEligibilityYesterdayVisitDoesNotGate(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1)
	result := CheckEligibility(EligibilityInput{
		Profile:      &models.User{ID: 1, LastVisitAt: &yesterday},
		Now:          time.Now(),
		NearbyShrine: &models.Shrine{Slug: "meiji-jingu"},
	})
	assert.True(t, result.CanVisit)
}
