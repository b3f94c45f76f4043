package services

import (
	"errors"
	"fmt"

	"github.com/yaoyorozu/sanpai/models"
)

// Summary is the UI-displayable outcome of a visit attempt. Presenting is a
// pure function of its inputs; the same terminal state always yields the
// same summary.
type Summary struct {
	Title     string `json:"title"`
	Icon      string `json:"icon"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

var rarityIcons = map[string]string{
	models.RarityCommon:    "⛩️",
	models.RarityRare:      "🌸",
	models.RarityEpic:      "🎋",
	models.RarityLegendary: "🌟",
	models.RarityMythical:  "🐉",
}

// PresentComplete maps a successful visit to its summary.
func PresentComplete(shrine *models.Shrine, record *models.VisitRecord, bundle models.RewardBundle, milestone bool) Summary {
	best := models.RarityCommon
	for _, r := range bundle.Rewards {
		best = models.MaxRarity(best, r.Rarity)
	}
	icon := rarityIcons[best]
	if icon == "" {
		icon = rarityIcons[models.RarityCommon]
	}

	msg := fmt.Sprintf("You earned %d cultural capital at %s.", bundle.CulturalCapitalDelta, shrine.Name)
	if milestone {
		msg = fmt.Sprintf("%s %d-day streak milestone reached!", msg, record.StreakAchieved)
	}
	return Summary{
		Title:   "Visit complete",
		Icon:    icon,
		Message: msg,
	}
}

// PresentFailure maps a terminal failure to its summary. Unknown errors are
// treated as retryable persistence-level failures.
func PresentFailure(err error) Summary {
	var fe *FlowError
	if !errors.As(err, &fe) {
		return Summary{Title: "Visit failed", Icon: "⚠️", Message: "something went wrong, please try again", Retryable: true}
	}
	switch fe.Kind {
	case KindAlreadyVisited:
		return Summary{Title: "Already visited", Icon: "🌅", Message: "come back tomorrow for your next visit", Retryable: false}
	case KindVerificationFailed:
		return Summary{Title: "Verification failed", Icon: "📍", Message: "we could not confirm you are at the shrine", Retryable: true}
	case KindVisitInProgress:
		return Summary{Title: "Visit in progress", Icon: "⏳", Message: "your previous visit is still being recorded", Retryable: false}
	case KindIneligible:
		return Summary{Title: "Not available", Icon: "🚫", Message: "visiting is not possible right now", Retryable: false}
	default:
		return Summary{Title: "Visit failed", Icon: "⚠️", Message: "we could not record your visit, please try again", Retryable: true}
	}
}
