package services

import (
	"time"

	"github.com/yaoyorozu/sanpai/models"
)

// EligibilityInput carries everything the gate decision needs. NearbyShrine
// is derived externally from device geolocation; QRPayload from a scan.
type EligibilityInput struct {
	Profile      *models.User
	Now          time.Time
	NearbyShrine *models.Shrine
	QRPayload    string
}

// EligibilityResult is a pure decision: whether a visit attempt may proceed
// and with which verification method.
type EligibilityResult struct {
	CanVisit bool   `json:"can_visit"`
	Method   string `json:"method,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// CheckEligibility decides whether a visit attempt may proceed. It never
// errors: an ineligible profile just yields CanVisit=false so the caller can
// disable the action. The daily gate wins over any location/QR input.
func CheckEligibility(in EligibilityInput) EligibilityResult {
	if in.Profile == nil {
		return EligibilityResult{CanVisit: false, Reason: "no profile"}
	}
	if in.Profile.VisitedToday(in.Now) {
		return EligibilityResult{CanVisit: false, Reason: "already visited today"}
	}
	if in.NearbyShrine != nil {
		return EligibilityResult{CanVisit: true, Method: models.MethodLocation}
	}
	if in.QRPayload != "" {
		return EligibilityResult{CanVisit: true, Method: models.MethodQR}
	}
	return EligibilityResult{CanVisit: false, Reason: "no shrine nearby and no qr code"}
}
