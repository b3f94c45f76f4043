package utils

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yaoyorozu/sanpai/config"
)

// QR payloads are minted by shrine-side displays and scanned by the app.
// Format: base64url(slug|nonce|expiresUnix) + "." + hex(HMAC-SHA256).
// A nonce is single-use; replays are rejected for the token lifetime.

var (
	ErrQRMalformed = errors.New("qr payload malformed")
	ErrQRExpired   = errors.New("qr payload expired")
	ErrQRBadSig    = errors.New("qr signature mismatch")
	ErrQRReplayed  = errors.New("qr nonce already used")
)

type nonceEntry struct {
	expiresAt time.Time
}

var (
	usedNonces   = map[string]nonceEntry{}
	usedNoncesMu sync.Mutex
)

func qrSecret() []byte {
	cfg := config.Get()
	if cfg.QRSecret != "" {
		return []byte(cfg.QRSecret)
	}
	return []byte(cfg.JWTSecret)
}

func qrSign(payload string) string {
	mac := hmac.New(sha256.New, qrSecret())
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// MintQRToken creates a signed single-use token for a shrine slug.
func MintQRToken(slug, nonce string, now time.Time) string {
	cfg := config.Get()
	exp := now.Add(time.Duration(cfg.QRValidMinutes) * time.Minute).Unix()
	payload := fmt.Sprintf("%s|%s|%d", slug, nonce, exp)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + qrSign(payload)
}

// VerifyQRToken validates signature and expiry and returns (slug, nonce).
// It does not consume the nonce; callers do that once the flow commits to Processing.
func VerifyQRToken(token string, now time.Time) (string, string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", "", ErrQRMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", ErrQRMalformed
	}
	payload := string(raw)
	if !hmac.Equal([]byte(qrSign(payload)), []byte(parts[1])) {
		return "", "", ErrQRBadSig
	}
	fields := strings.Split(payload, "|")
	if len(fields) != 3 {
		return "", "", ErrQRMalformed
	}
	exp, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "", "", ErrQRMalformed
	}
	if now.Unix() > exp {
		return "", "", ErrQRExpired
	}
	return fields[0], fields[1], nil
}

// ConsumeQRNonce marks a nonce as used. Returns false when already consumed.
// Prefers Redis SETNX; falls back to process memory on a single instance.
func ConsumeQRNonce(nonce string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = time.Duration(config.Get().QRValidMinutes) * time.Minute
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		ok, err := rc.SetNX(ctx, "qr:nonce:"+nonce, "1", ttl).Result()
		if err == nil {
			return ok
		}
	}
	usedNoncesMu.Lock()
	defer usedNoncesMu.Unlock()
	now := time.Now()
	for k, e := range usedNonces {
		if now.After(e.expiresAt) {
			delete(usedNonces, k)
		}
	}
	if entry, ok := usedNonces[nonce]; ok && now.Before(entry.expiresAt) {
		return false
	}
	usedNonces[nonce] = nonceEntry{expiresAt: now.Add(ttl)}
	return true
}

// ReleaseQRNonce returns a consumed nonce so the holder can retry after a
// failed write. Best-effort.
func ReleaseQRNonce(nonce string) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		rc.Del(ctx, "qr:nonce:"+nonce)
		cancel()
	}
	usedNoncesMu.Lock()
	delete(usedNonces, nonce)
	usedNoncesMu.Unlock()
}
