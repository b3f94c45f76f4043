package main

import (
	"time"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
	"github.com/yaoyorozu/sanpai/routes"
	"github.com/yaoyorozu/sanpai/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Shrine{}, &models.VisitRecord{}, &models.Reward{}, &models.DailyActivity{})

	// Seed the shrine catalog (idempotent upsert by slug)
	if n, err := config.SeedShrineCatalog(db); err != nil {
		utils.Sugar.Warnf("shrine catalog seeding failed: %v", err)
	} else {
		utils.Sugar.Infof("shrine catalog ready: %d entries", n)
	}

	r := routes.SetupRouter(db)

	// Background leaderboard refresh (best-effort)
	utils.StartLeaderboardRefresher(db, 5*time.Minute, 50)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
