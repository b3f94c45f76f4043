package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yaoyorozu/sanpai/models"
)

func presenterFixture() (*models.Shrine, *models.VisitRecord, models.RewardBundle) {
	shrine := &models.Shrine{Slug: "meiji-jingu", Name: "Meiji Jingu"}
	record := &models.VisitRecord{VisitedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), StreakAchieved: 7}
	bundle := models.RewardBundle{
		Rewards: []models.Reward{
			{Kind: models.RewardPoints, Rarity: models.RarityCommon, Value: 50},
			{Kind: models.RewardGoshuin, Rarity: models.RarityRare, Value: 25},
		},
		CulturalCapitalDelta: 75,
	}
	return shrine, record, bundle
}

func TestPresentCompleteIsDeterministic(t *testing.T) {
	shrine, record, bundle := presenterFixture()
	first := PresentComplete(shrine, record, bundle, true)
	second := PresentComplete(shrine, record, bundle, true)
	assert.Equal(t, first, second)
}

func TestPresentCompleteContent(t *testing.T) {
	shrine, record, bundle := presenterFixture()

	s := PresentComplete(shrine, record, bundle, false)
	assert.Equal(t, "Visit complete", s.Title)
	assert.Contains(t, s.Message, "75")
	assert.Contains(t, s.Message, "Meiji Jingu")
	assert.NotContains(t, s.Message, "milestone")

	s = PresentComplete(shrine, record, bundle, true)
	assert.Contains(t, s.Message, "7-day streak")
}

func TestPresentCompleteIconFollowsBestRarity(t *testing.T) {
	shrine, record, bundle := presenterFixture()
	rare := PresentComplete(shrine, record, bundle, false)

	bundle.Rewards[1].Rarity = models.RarityLegendary
	legendary := PresentComplete(shrine, record, bundle, false)
	assert.NotEqual(t, rare.Icon, legendary.Icon)
}

func TestPresentFailureKinds(t *testing.T) {
	cases := []struct {
		err       error
		title     string
		retryable bool
	}{
		{ErrAlreadyVisitedToday, "Already visited", false},
		{ErrVerificationFailed, "Verification failed", true},
		{ErrVisitInProgress, "Visit in progress", false},
		{ErrIneligibleVisit, "Not available", false},
		{ErrPersistence, "Visit failed", true},
		{errors.New("unknown"), "Visit failed", true},
	}
	for _, tc := range cases {
		s := PresentFailure(tc.err)
		assert.Equal(t, tc.title, s.Title)
		assert.Equal(t, tc.retryable, s.Retryable)
		assert.NotEmpty(t, s.Message)
		assert.NotEmpty(t, s.Icon)
	}
}

func TestPresentFailureIsDeterministic(t *testing.T) {
	first := PresentFailure(ErrVerificationFailed)
	second := PresentFailure(ErrVerificationFailed)
	assert.Equal(t, first, second)
}
