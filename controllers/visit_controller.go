package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
	"github.com/yaoyorozu/sanpai/services"
	"github.com/yaoyorozu/sanpai/utils"
)

// VisitController exposes the visit flow: triggering a visit, checking
// eligibility, browsing history and the goshuin collection.
type VisitController struct {
	db    *gorm.DB
	flow  *services.VisitFlow
	chain services.ChainSubmitter
}

// NewVisitController creates a VisitController.
func NewVisitController(db *gorm.DB, flow *services.VisitFlow, chain services.ChainSubmitter) *VisitController {
	return &VisitController{db: db, flow: flow, chain: chain}
}

type startVisitRequest struct {
	ShrineSlug string   `json:"shrine_slug"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	QRToken    string   `json:"qr_token"`
	Manual     bool     `json:"manual"`
}

// StartVisit runs the visit flow for the authenticated user.
func (v *VisitController) StartVisit(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req startVisitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	result, err := v.flow.Execute(ctx.Request.Context(), services.VisitRequest{
		UserID:     userID,
		ShrineSlug: strings.TrimSpace(req.ShrineSlug),
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		QRToken:    strings.TrimSpace(req.QRToken),
		Manual:     req.Manual,
	})
	if err != nil {
		respondFlowError(ctx, err)
		return
	}

	utils.Success(ctx, result)
}

// respondFlowError maps flow error kinds onto HTTP statuses and attaches the
// presentable summary so clients can render the failure directly.
func respondFlowError(ctx *gin.Context, err error) {
	summary := services.PresentFailure(err)
	status := http.StatusInternalServerError
	code := 50020
	switch services.KindOf(err) {
	case services.KindVerificationFailed:
		status, code = http.StatusUnprocessableEntity, 42201
	case services.KindAlreadyVisited:
		status, code = http.StatusConflict, 40930
	case services.KindVisitInProgress:
		status, code = http.StatusConflict, 40931
	case services.KindIneligible:
		status, code = http.StatusBadRequest, 40021
	case services.KindPersistence:
		status, code = http.StatusInternalServerError, 50020
	}
	utils.Respond(ctx, status, code, err.Error(), gin.H{
		"state":   services.StateFailed,
		"summary": summary,
	})
}

// VisitStatus reports whether the user can visit right now, and with which
// method, given optional device coordinates.
func (v *VisitController) VisitStatus(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := v.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	input := services.EligibilityInput{Profile: &user, Now: time.Now()}
	if lat, okLat := parseFloatQuery(ctx, "lat"); okLat {
		if lng, okLng := parseFloatQuery(ctx, "lng"); okLng {
			input.NearbyShrine = v.nearestWithinRadius(lat, lng)
		}
	}

	result := services.CheckEligibility(input)
	payload := gin.H{
		"can_visit":      result.CanVisit,
		"method":         result.Method,
		"reason":         result.Reason,
		"visited_today":  user.VisitedToday(input.Now),
		"current_streak": user.CurrentStreak,
		"next_milestone": v.flow.Streaks().NextMilestone(user.CurrentStreak),
	}
	if input.NearbyShrine != nil {
		payload["nearby_shrine"] = input.NearbyShrine
	}
	utils.Success(ctx, payload)
}

func (v *VisitController) nearestWithinRadius(lat, lng float64) *models.Shrine {
	var shrines []models.Shrine
	if err := v.db.Find(&shrines).Error; err != nil {
		return nil
	}
	radius := config.Get().VisitRadiusMeters
	var best *models.Shrine
	bestDist := radius
	for i := range shrines {
		d := utils.HaversineMeters(lat, lng, shrines[i].Latitude, shrines[i].Longitude)
		if d <= bestDist {
			best = &shrines[i]
			bestDist = d
		}
	}
	return best
}

// ListVisits returns the user's visit history, newest first.
func (v *VisitController) ListVisits(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	page, pageSize := parsePagination(ctx)

	var total int64
	if err := v.db.Model(&models.VisitRecord{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count visits")
		return
	}

	var visits []models.VisitRecord
	if err := v.db.Preload("Shrine").Preload("Rewards").
		Where("user_id = ?", userID).
		Order("visited_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&visits).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list visits")
		return
	}

	utils.Success(ctx, gin.H{
		"items": visits,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// Collection returns the user's goshuin stamps grouped by shrine.
func (v *VisitController) Collection(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	type stamp struct {
		ShrineSlug string    `json:"shrine_slug"`
		ShrineName string    `json:"shrine_name"`
		Rarity     string    `json:"rarity"`
		Label      string    `json:"label"`
		VisitedAt  time.Time `json:"visited_at"`
	}

	var stamps []stamp
	err := v.db.Model(&models.Reward{}).
		Select("shrines.slug AS shrine_slug, shrines.name AS shrine_name, rewards.rarity, rewards.label, visit_records.visited_at").
		Joins("JOIN visit_records ON visit_records.id = rewards.visit_id").
		Joins("JOIN shrines ON shrines.id = visit_records.shrine_id").
		Where("visit_records.user_id = ? AND rewards.kind = ?", userID, models.RewardGoshuin).
		Order("visit_records.visited_at DESC").
		Scan(&stamps).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load collection")
		return
	}

	utils.Success(ctx, gin.H{"stamps": stamps, "count": len(stamps)})
}

// MintVisitToken submits a past visit for on-chain token minting.
func (v *VisitController) MintVisitToken(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	publicID := strings.TrimSpace(ctx.Param("id"))
	var record models.VisitRecord
	if err := v.db.Where("public_id = ? AND user_id = ?", publicID, userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40413, "visit not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load visit")
		return
	}

	txHash, err := v.chain.MintVisitToken(ctx.Request.Context(), &record)
	if err != nil {
		if errors.Is(err, services.ErrChainDisabled) {
			utils.Error(ctx, http.StatusBadRequest, 40022, "on-chain minting is not enabled")
			return
		}
		utils.Error(ctx, http.StatusBadGateway, 50225, "minting failed, your visit record is unaffected")
		return
	}

	utils.Success(ctx, gin.H{"tx_hash": txHash})
}
