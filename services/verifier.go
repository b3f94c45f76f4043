package services

import (
	"fmt"
	"time"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
	"github.com/yaoyorozu/sanpai/utils"
)

// Verifier confirms that a visit attempt really happened at the shrine,
// either by GPS proximity or by a scanned QR token.
type Verifier interface {
	VerifyLocation(shrine *models.Shrine, lat, lng float64) error
	VerifyQR(token string, now time.Time) (slug, nonce string, err error)
	ConsumeNonce(nonce string) bool
	ReleaseNonce(nonce string)
}

// StandardVerifier checks proximity with the configured radius and QR tokens
// with the HMAC scheme; nonces are single-use.
type StandardVerifier struct {
	radiusMeters float64
	nonceTTL     time.Duration
}

// NewStandardVerifier builds the production verifier from config.
func NewStandardVerifier(cfg config.AppConfig) *StandardVerifier {
	return &StandardVerifier{
		radiusMeters: cfg.VisitRadiusMeters,
		nonceTTL:     time.Duration(cfg.QRValidMinutes) * time.Minute,
	}
}

func (v *StandardVerifier) VerifyLocation(shrine *models.Shrine, lat, lng float64) error {
	dist := utils.HaversineMeters(lat, lng, shrine.Latitude, shrine.Longitude)
	if dist > v.radiusMeters {
		return fmt.Errorf("position is %.0fm from %s (limit %.0fm)", dist, shrine.Name, v.radiusMeters)
	}
	return nil
}

func (v *StandardVerifier) VerifyQR(token string, now time.Time) (string, string, error) {
	return utils.VerifyQRToken(token, now)
}

func (v *StandardVerifier) ConsumeNonce(nonce string) bool {
	return utils.ConsumeQRNonce(nonce, v.nonceTTL)
}

func (v *StandardVerifier) ReleaseNonce(nonce string) {
	utils.ReleaseQRNonce(nonce)
}

// Locker is the per-user single-flight guard around the visit flow.
type Locker interface {
	Acquire(userID uint, ttl time.Duration) bool
	Release(userID uint)
}

// RedisLocker backs the guard with the shared lock store (Redis with a
// process-memory fallback).
type RedisLocker struct{}

func (RedisLocker) Acquire(userID uint, ttl time.Duration) bool {
	return utils.AcquireVisitLock(userID, ttl)
}

func (RedisLocker) Release(userID uint) {
	utils.ReleaseVisitLock(userID)
}
