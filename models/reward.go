package models

// Reward kinds. A goshuin is the collectible visit stamp; blessings are
// one-off bonus drops; points carry the base cultural-capital award.
const (
	RewardGoshuin  = "goshuin"
	RewardBlessing = "blessing"
	RewardPoints   = "points"
)

// Reward is one item of a RewardBundle, persisted against its visit.
type Reward struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	VisitID uint   `gorm:"index;not null" json:"visit_id"`
	Kind    string `gorm:"size:16;not null" json:"kind"`
	Rarity  string `gorm:"size:16;not null;default:'common'" json:"rarity"`
	Value   int    `gorm:"not null;default:0" json:"value"`
	Label   string `gorm:"size:255" json:"label"`
}

// RewardBundle aggregates the rewards produced for exactly one visit.
// CulturalCapitalDelta always equals the sum of the item values.
type RewardBundle struct {
	Rewards              []Reward `json:"rewards"`
	CulturalCapitalDelta int      `json:"cultural_capital_delta"`
}

// Sum recomputes the delta from the constituent items.
func (b *RewardBundle) Sum() int {
	total := 0
	for _, r := range b.Rewards {
		total += r.Value
	}
	return total
}

// rarityOrder ranks reward rarities for floor comparisons.
var rarityOrder = map[string]int{
	RarityCommon:    0,
	RarityUncommon:  1,
	RarityRare:      2,
	RarityEpic:      3,
	RarityLegendary: 4,
	RarityMythical:  5,
}

// RarityAtLeast reports whether rarity a ranks at or above rarity b.
func RarityAtLeast(a, b string) bool {
	return rarityOrder[a] >= rarityOrder[b]
}

// MaxRarity returns the higher ranked of the two rarities.
func MaxRarity(a, b string) string {
	if rarityOrder[a] >= rarityOrder[b] {
		return a
	}
	return b
}
