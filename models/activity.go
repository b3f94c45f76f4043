package models

import "time"

// DailyActivity stores aggregated request counts per day and endpoint group.
// It backs the public stats endpoint (daily active estimation).
type DailyActivity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"index:idx_activity_date_group,unique;type:date;not null" json:"date"`
	Group     string    `gorm:"column:endpoint_group;index:idx_activity_date_group,unique;size:64;not null" json:"group"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityCategory describes one entry of the cultural-activity catalog: the
// base cultural-capital award per visit category.
type ActivityCategory struct {
	Category   string `json:"category"`
	Label      string `json:"label"`
	BaseAward  int    `json:"base_award"`
}

// ActivityCatalog is the static award table. Shrine/temple visits and the
// other activity kinds carry fixed base awards; config may scale them.
var ActivityCatalog = []ActivityCategory{
	{Category: CategoryShrine, Label: "Shrine visit", BaseAward: 50},
	{Category: CategoryTemple, Label: "Temple visit", BaseAward: 50},
	{Category: CategoryFestival, Label: "Festival attendance", BaseAward: 70},
	{Category: CategoryGarden, Label: "Garden walk", BaseAward: 40},
	{Category: CategoryMuseum, Label: "Museum tour", BaseAward: 45},
}

// BaseAwardFor returns the catalog base award for a category, defaulting to
// the shrine award for unknown categories.
func BaseAwardFor(category string) int {
	for _, a := range ActivityCatalog {
		if a.Category == category {
			return a.BaseAward
		}
	}
	return 50
}
