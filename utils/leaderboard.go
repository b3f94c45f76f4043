package utils

import (
	"time"

	"gorm.io/gorm"

	"github.com/yaoyorozu/sanpai/models"
)

// LeaderboardCacheKey is where the refresher publishes the current top ranks.
const LeaderboardCacheKey = "cache:leaderboard:top"

// LeaderboardEntry is one row of the cultural-capital ranking.
type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	Username        string `json:"username"`
	AvatarURL       string `json:"avatar_url"`
	CulturalCapital int    `json:"cultural_capital"`
	CurrentStreak   int    `json:"current_streak"`
	Belt            string `json:"belt"`
}

// StartLeaderboardRefresher launches a background goroutine that periodically
// recomputes the top cultural-capital ranking into the cache. Best-effort.
func StartLeaderboardRefresher(db *gorm.DB, interval time.Duration, limit int) {
	if db == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if limit <= 0 {
		limit = 50
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			var users []models.User
			if err := db.Order("cultural_capital DESC").Limit(limit).Find(&users).Error; err != nil {
				if Sugar != nil {
					Sugar.Warnf("leaderboard refresh query failed: %v", err)
				}
				continue
			}
			entries := make([]LeaderboardEntry, 0, len(users))
			for i, u := range users {
				entries = append(entries, LeaderboardEntry{
					Rank:            i + 1,
					Username:        u.Username,
					AvatarURL:       u.AvatarURL,
					CulturalCapital: u.CulturalCapital,
					CurrentStreak:   u.CurrentStreak,
					Belt:            models.BeltFor(u.CulturalCapital).Name,
				})
			}
			wrapper := JSONResponse{Code: 0, Message: "success", Data: entries}
			CacheSetJSON(LeaderboardCacheKey, wrapper, interval+time.Minute)
		}
	}()
}
