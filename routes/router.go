package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/controllers"
	"github.com/yaoyorozu/sanpai/middleware"
	"github.com/yaoyorozu/sanpai/services"
	"github.com/yaoyorozu/sanpai/utils"
)

// SetupRouter wires routes, middlewares, controllers and the visit flow.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Record daily activity after each request
	r.Use(middleware.ActivityRecorder(db))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	chain := services.NewChainSubmitter(cfg)
	flow := services.NewVisitFlow(cfg, services.FlowDeps{
		Store: services.NewGormStore(db),
		Chain: chain,
	})

	authController := controllers.NewAuthController(db)
	shrineController := controllers.NewShrineController(db)
	visitController := controllers.NewVisitController(db, flow, chain)
	statsController := controllers.NewStatsController(db)
	configController := controllers.NewConfigController()

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public catalog and stats
	api.GET("/shrines", shrineController.ListShrines)
	api.GET("/shrines/nearby", shrineController.NearbyShrines)
	api.GET("/shrines/:slug", shrineController.GetShrine)
	api.GET("/stats", statsController.GetStats)
	api.GET("/leaderboard", statsController.GetLeaderboard)
	api.GET("/config/client", configController.GetClientConfig)
	api.GET("/user/by-username/:username", authController.GetUserPublicByUsername)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/visits", visitController.StartVisit)
	protected.GET("/visits", visitController.ListVisits)
	protected.GET("/visits/status", visitController.VisitStatus)
	protected.POST("/visits/:id/mint", visitController.MintVisitToken)
	protected.GET("/users/me/collection", visitController.Collection)
	protected.POST("/shrines/:slug/qr", shrineController.MintQR)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
