package controllers

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
	"github.com/yaoyorozu/sanpai/utils"
)

// ShrineController serves the shrine catalog: listing, detail, proximity
// search and shrine-side QR token minting.
type ShrineController struct {
	db *gorm.DB
}

// NewShrineController creates a ShrineController.
func NewShrineController(db *gorm.DB) *ShrineController {
	return &ShrineController{db: db}
}

// ListShrines returns the whole catalog, optionally filtered by category.
// The unfiltered listing is cached; the catalog only changes at boot.
func (s *ShrineController) ListShrines(ctx *gin.Context) {
	category := strings.TrimSpace(ctx.Query("category"))

	if category == "" {
		if b, ok := utils.CacheGetBytes("cache:shrines:all"); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	q := s.db.Order("cultural_value DESC, name ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var shrines []models.Shrine
	if err := q.Find(&shrines).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to list shrines")
		return
	}

	if category == "" {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: shrines}
		utils.CacheSetJSON("cache:shrines:all", wrapper, time.Hour)
	}
	utils.Success(ctx, shrines)
}

// GetShrine returns one catalog entry by slug.
func (s *ShrineController) GetShrine(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))
	if slug == "" {
		utils.Error(ctx, http.StatusBadRequest, 40010, "missing shrine slug")
		return
	}
	var shrine models.Shrine
	if err := s.db.Where("slug = ?", slug).First(&shrine).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40412, "shrine not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to get shrine")
		return
	}
	utils.Success(ctx, shrine)
}

type nearbyShrine struct {
	models.Shrine
	DistanceMeters float64 `json:"distance_meters"`
	WithinRadius   bool    `json:"within_radius"`
}

// NearbyShrines returns catalog entries sorted by distance from the given
// coordinates, flagging which ones are close enough to visit.
func (s *ShrineController) NearbyShrines(ctx *gin.Context) {
	lat, okLat := parseFloatQuery(ctx, "lat")
	lng, okLng := parseFloatQuery(ctx, "lng")
	if !okLat || !okLng {
		utils.Error(ctx, http.StatusBadRequest, 40011, "lat and lng query params are required")
		return
	}

	var shrines []models.Shrine
	if err := s.db.Find(&shrines).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to list shrines")
		return
	}

	radius := config.Get().VisitRadiusMeters
	out := make([]nearbyShrine, 0, len(shrines))
	for _, sh := range shrines {
		d := utils.HaversineMeters(lat, lng, sh.Latitude, sh.Longitude)
		out = append(out, nearbyShrine{
			Shrine:         sh,
			DistanceMeters: d,
			WithinRadius:   d <= radius,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })

	limit := 20
	if len(out) > limit {
		out = out[:limit]
	}
	utils.Success(ctx, out)
}

// MintQR issues a fresh single-use QR token for a shrine. This endpoint is
// for shrine-side display devices, which authenticate like any account.
func (s *ShrineController) MintQR(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))
	var shrine models.Shrine
	if err := s.db.Where("slug = ?", slug).First(&shrine).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40412, "shrine not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to get shrine")
		return
	}

	now := time.Now()
	token := utils.MintQRToken(shrine.Slug, uuid.NewString(), now)
	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": now.Add(time.Duration(config.Get().QRValidMinutes) * time.Minute),
	})
}
