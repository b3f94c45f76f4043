package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
	"github.com/yaoyorozu/sanpai/utils"
)

// ConfigController serves the client-facing game configuration so apps can
// render rules without hardcoding them.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetClientConfig returns the reward, streak and verification parameters.
func (c *ConfigController) GetClientConfig(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"visit": gin.H{
			"radius_meters":    cfg.VisitRadiusMeters,
			"qr_valid_minutes": cfg.QRValidMinutes,
		},
		"reward": gin.H{
			"rare_threshold":      cfg.RareThreshold,
			"epic_threshold":      cfg.EpicThreshold,
			"legendary_threshold": cfg.LegendaryThreshold,
		},
		"streak_milestones": cfg.StreakMilestones,
		"belts":             models.Belts,
		"activities":        models.ActivityCatalog,
		"chain_enabled":     cfg.ChainEnabled,
	})
}
