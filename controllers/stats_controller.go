package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yaoyorozu/sanpai/models"
	"github.com/yaoyorozu/sanpai/utils"
)

// StatsController provides village-wide statistics and the leaderboard.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the village.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount int64
	var visitCount int64
	var visitsToday int64
	var dailyActive int64

	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		userCount = 0
	}
	if err := s.db.Model(&models.VisitRecord{}).Count(&visitCount).Error; err != nil {
		visitCount = 0
	}

	now := time.Now().In(time.Local)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.db.Model(&models.VisitRecord{}).
		Where("visited_at >= ?", midnight).
		Count(&visitsToday).Error; err != nil {
		visitsToday = 0
	}

	// Use string date equality to avoid timezone/type mismatches with DATE column
	today := now.Format("2006-01-02")
	if err := s.db.Model(&models.DailyActivity{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&dailyActive).Error; err != nil {
		dailyActive = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":         userCount,
		"visit_count":        visitCount,
		"visits_today":       visitsToday,
		"daily_active_count": dailyActive,
	})
}

// GetLeaderboard returns the top cultural-capital ranking. The refresher
// keeps a cached copy; fall back to a direct query when the cache is cold.
func (s *StatsController) GetLeaderboard(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(utils.LeaderboardCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var users []models.User
	if err := s.db.Order("cultural_capital DESC").Limit(50).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load leaderboard")
		return
	}
	entries := make([]utils.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, utils.LeaderboardEntry{
			Rank:            i + 1,
			Username:        u.Username,
			AvatarURL:       u.AvatarURL,
			CulturalCapital: u.CulturalCapital,
			CurrentStreak:   u.CurrentStreak,
			Belt:            models.BeltFor(u.CulturalCapital).Name,
		})
	}
	utils.Success(ctx, entries)
}
