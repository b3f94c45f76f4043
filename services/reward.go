package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
)

// goshuin bonus values per rarity tier.
var goshuinBonus = map[string]int{
	models.RarityCommon:    10,
	models.RarityRare:      25,
	models.RarityEpic:      60,
	models.RarityLegendary: 150,
}

const blessingValue = 30

// RewardGenerator computes the reward bundle for a successful visit.
// The roll source is injectable so tests can pin outcomes.
type RewardGenerator struct {
	rareThreshold      float64
	epicThreshold      float64
	legendaryThreshold float64
	roll               func() float64
}

// NewRewardGenerator builds a generator from config thresholds. A nil roll
// uses a time-seeded source.
func NewRewardGenerator(cfg config.AppConfig, roll func() float64) *RewardGenerator {
	if roll == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		roll = rng.Float64
	}
	return &RewardGenerator{
		rareThreshold:      cfg.RareThreshold,
		epicThreshold:      cfg.EpicThreshold,
		legendaryThreshold: cfg.LegendaryThreshold,
		roll:               roll,
	}
}

// Generate always produces a bundle for a valid visit. The base award comes
// from the activity catalog for the shrine's category; one uniform roll may
// upgrade the bundle rarity, which every constituent reward carries.
// Legendary and mythical shrines force a rarity floor of rare regardless of
// the roll (a deterministic floor, not a probability adjustment).
func (g *RewardGenerator) Generate(shrine *models.Shrine) models.RewardBundle {
	base := models.BaseAwardFor(shrine.Category)

	rarity := g.rollRarity()
	if shrine.HighRarity() {
		rarity = models.MaxRarity(rarity, models.RarityRare)
	}

	rewards := []models.Reward{
		{
			Kind:   models.RewardPoints,
			Rarity: rarity,
			Value:  base,
			Label:  fmt.Sprintf("Cultural capital: %s", shrine.Name),
		},
		{
			Kind:   models.RewardGoshuin,
			Rarity: rarity,
			Value:  goshuinBonus[rarity],
			Label:  fmt.Sprintf("Goshuin of %s", shrine.Name),
		},
	}
	if models.RarityAtLeast(rarity, models.RarityEpic) {
		rewards = append(rewards, models.Reward{
			Kind:   models.RewardBlessing,
			Rarity: rarity,
			Value:  blessingValue,
			Label:  fmt.Sprintf("Blessing of %s", shrine.Name),
		})
	}

	bundle := models.RewardBundle{Rewards: rewards}
	bundle.CulturalCapitalDelta = bundle.Sum()
	return bundle
}

func (g *RewardGenerator) rollRarity() string {
	v := g.roll()
	switch {
	case v > g.legendaryThreshold:
		return models.RarityLegendary
	case v > g.epicThreshold:
		return models.RarityEpic
	case v > g.rareThreshold:
		return models.RarityRare
	default:
		return models.RarityCommon
	}
}
