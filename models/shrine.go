package models

import "time"

// Shrine rarity tiers, ordered from most common to rarest.
const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
	RarityMythical  = "mythical"
)

// Shrine categories map to cultural activity kinds with distinct base awards.
const (
	CategoryShrine   = "shrine"
	CategoryTemple   = "temple"
	CategoryFestival = "festival"
	CategoryGarden   = "garden"
	CategoryMuseum   = "museum"
)

// Shrine is an immutable catalog entry seeded from config/shrines.json.
// Rows are upserted at boot and never mutated at runtime.
type Shrine struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Slug          string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	NameJA        string    `gorm:"size:255" json:"name_ja"`
	Category      string    `gorm:"size:32;not null;default:'shrine'" json:"category"`
	Rarity        string    `gorm:"size:16;not null;default:'common'" json:"rarity"`
	CulturalValue int       `gorm:"not null;default:0" json:"cultural_value"`
	Latitude      float64   `gorm:"not null" json:"latitude"`
	Longitude     float64   `gorm:"not null" json:"longitude"`
	Description   string    `gorm:"type:text" json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HighRarity reports whether the shrine sits in the tiers that force a
// reward rarity floor (legendary and mythical catalog entries).
func (s *Shrine) HighRarity() bool {
	return s.Rarity == RarityLegendary || s.Rarity == RarityMythical
}
