package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yaoyorozu/sanpai/models"
)

// ActivityRecorder aggregates successful API requests per day and endpoint
// group. It backs the daily-active figure on the stats endpoint.
func ActivityRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		group := endpointGroup(c.Request.URL.Path)
		if group == "" {
			return
		}

		// Use local midnight to align with DATE column
		now := time.Now().In(time.Local)
		localMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		// Atomic upsert to avoid duplicate key errors under concurrency
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "endpoint_group"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.DailyActivity{Date: localMidnight, Group: group, Count: 1}).Error
	}
}

// endpointGroup buckets request paths into coarse groups so the activity
// table stays small. Health checks and stats itself are excluded.
func endpointGroup(path string) string {
	if !strings.HasPrefix(path, "/api/") {
		return ""
	}
	switch {
	case strings.Contains(path, "/stats") || strings.Contains(path, "/health"):
		return ""
	case strings.HasPrefix(path, "/api/v1/visits"):
		return "visits"
	case strings.HasPrefix(path, "/api/v1/shrines"):
		return "shrines"
	case strings.HasPrefix(path, "/api/v1/auth"):
		return "auth"
	default:
		return "other"
	}
}
