package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
)

func fixedRollGenerator(roll float64) *RewardGenerator {
	return NewRewardGenerator(config.Get(), func() float64 { return roll })
}

func shrineWithRarity(rarity string) *models.Shrine {
	return &models.Shrine{ID: 1, Slug: "test", Name: "Test Shrine", Category: models.CategoryShrine, Rarity: rarity}
}

func TestGenerateDeltaAlwaysEqualsSum(t *testing.T) {
	rolls := []float64{0, 0.1, 0.5, 0.8, 0.801, 0.95, 0.951, 0.99, 0.991, 1.0}
	for _, roll := range rolls {
		g := fixedRollGenerator(roll)
		for _, rarity := range []string{models.RarityCommon, models.RarityRare, models.RarityLegendary, models.RarityMythical} {
			bundle := g.Generate(shrineWithRarity(rarity))
			assert.Equal(t, bundle.Sum(), bundle.CulturalCapitalDelta, "roll %v shrine %s", roll, rarity)
			assert.NotEmpty(t, bundle.Rewards)
			assert.Positive(t, bundle.CulturalCapitalDelta)
		}
	}
}

func TestGenerateRarityThresholds(t *testing.T) {
	cases := []struct {
		roll   float64
		rarity string
	}{
		{0.5, models.RarityCommon},
		{0.80, models.RarityCommon}, // boundary: strictly greater upgrades
		{0.81, models.RarityRare},
		{0.95, models.RarityRare},
		{0.96, models.RarityEpic},
		{0.99, models.RarityEpic},
		{0.995, models.RarityLegendary},
	}
	for _, tc := range cases {
		g := fixedRollGenerator(tc.roll)
		bundle := g.Generate(shrineWithRarity(models.RarityCommon))
		goshuin := findReward(t, bundle, models.RewardGoshuin)
		assert.Equal(t, tc.rarity, goshuin.Rarity, "roll %v", tc.roll)
	}
}

func TestGenerateHighRarityShrineForcesFloor(t *testing.T) {
	// A bottomed-out roll at a legendary or mythical shrine still yields at
	// least rare for every reward in the bundle, not just the goshuin. The
	// floor is deterministic, not probabilistic.
	for _, rarity := range []string{models.RarityLegendary, models.RarityMythical} {
		g := fixedRollGenerator(0.0)
		bundle := g.Generate(shrineWithRarity(rarity))
		for _, reward := range bundle.Rewards {
			assert.True(t, models.RarityAtLeast(reward.Rarity, models.RarityRare),
				"shrine %s produced %s %s", rarity, reward.Rarity, reward.Kind)
		}
	}

	// The floor never downgrades a better roll.
	g := fixedRollGenerator(0.999)
	bundle := g.Generate(shrineWithRarity(models.RarityMythical))
	goshuin := findReward(t, bundle, models.RewardGoshuin)
	assert.Equal(t, models.RarityLegendary, goshuin.Rarity)
}

func TestGenerateLowRarityShrineHasNoFloor(t *testing.T) {
	g := fixedRollGenerator(0.0)
	bundle := g.Generate(shrineWithRarity(models.RarityRare))
	goshuin := findReward(t, bundle, models.RewardGoshuin)
	assert.Equal(t, models.RarityCommon, goshuin.Rarity)
}

func TestGenerateBlessingOnlyAtEpicOrAbove(t *testing.T) {
	g := fixedRollGenerator(0.5)
	bundle := g.Generate(shrineWithRarity(models.RarityCommon))
	assert.False(t, hasReward(bundle, models.RewardBlessing))

	g = fixedRollGenerator(0.96)
	bundle = g.Generate(shrineWithRarity(models.RarityCommon))
	blessing := findReward(t, bundle, models.RewardBlessing)
	assert.Equal(t, models.RarityEpic, blessing.Rarity)
}

func TestGenerateBaseAwardFollowsCategory(t *testing.T) {
	g := fixedRollGenerator(0.5)
	festival := &models.Shrine{Slug: "gion", Name: "Gion Matsuri", Category: models.CategoryFestival, Rarity: models.RarityEpic}
	bundle := g.Generate(festival)
	points := findReward(t, bundle, models.RewardPoints)
	assert.Equal(t, models.BaseAwardFor(models.CategoryFestival), points.Value)
}

func findReward(t *testing.T, bundle models.RewardBundle, kind string) models.Reward {
	t.Helper()
	for _, r := range bundle.Rewards {
		if r.Kind == kind {
			return r
		}
	}
	require.Failf(t, "missing reward", "bundle has no %s reward", kind)
	return models.Reward{}
}

func hasReward(bundle models.RewardBundle, kind string) bool {
	for _, r := range bundle.Rewards {
		if r.Kind == kind {
			return true
		}
	}
	return false
}
