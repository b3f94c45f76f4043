package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yaoyorozu/sanpai/models"
)

// catalogEntry mirrors one record of the shrine catalog JSON file.
type catalogEntry struct {
	Slug          string  `json:"slug"`
	Name          string  `json:"name"`
	NameJA        string  `json:"name_ja"`
	Category      string  `json:"category"`
	Rarity        string  `json:"rarity"`
	CulturalValue int     `json:"cultural_value"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Description   string  `json:"description"`
}

// SeedShrineCatalog loads the static shrine catalog and upserts it by slug.
// Catalog rows are reference data: existing rows are refreshed, user data is untouched.
func SeedShrineCatalog(db *gorm.DB) (int, error) {
	cfg := Get()
	f, err := os.Open(cfg.CatalogPath)
	if err != nil {
		return 0, fmt.Errorf("open shrine catalog: %w", err)
	}
	defer f.Close()

	var entries []catalogEntry
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		return 0, fmt.Errorf("decode shrine catalog: %w", err)
	}

	count := 0
	for _, e := range entries {
		if e.Slug == "" || e.Name == "" {
			continue
		}
		shrine := models.Shrine{
			Slug:          e.Slug,
			Name:          e.Name,
			NameJA:        e.NameJA,
			Category:      orDefault(e.Category, models.CategoryShrine),
			Rarity:        orDefault(e.Rarity, models.RarityCommon),
			CulturalValue: e.CulturalValue,
			Latitude:      e.Latitude,
			Longitude:     e.Longitude,
			Description:   e.Description,
		}
		err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "name_ja", "category", "rarity", "cultural_value",
				"latitude", "longitude", "description", "updated_at",
			}),
		}).Create(&shrine).Error
		if err != nil {
			return count, fmt.Errorf("upsert shrine %s: %w", e.Slug, err)
		}
		count++
	}
	return count, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
