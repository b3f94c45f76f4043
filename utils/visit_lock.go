package utils

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type lockEntry struct {
	expiresAt time.Time
}

var (
	visitLocks   = map[uint]lockEntry{}
	visitLocksMu sync.Mutex
)

func visitLockKey(userID uint) string {
	return fmt.Sprintf("visit:lock:%d", userID)
}

// AcquireVisitLock takes the per-user single-flight lock for a visit attempt.
// Only one visit flow per user may be in Processing at a time; a second
// trigger while the lock is held must be rejected, not queued.
// Prefers Redis SETNX; falls back to process memory on a single instance.
func AcquireVisitLock(userID uint, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		ok, err := rc.SetNX(ctx, visitLockKey(userID), "1", ttl).Result()
		if err == nil {
			return ok
		}
		// On Redis error fall through to the memory fallback
	}
	visitLocksMu.Lock()
	defer visitLocksMu.Unlock()
	if entry, ok := visitLocks[userID]; ok && time.Now().Before(entry.expiresAt) {
		return false
	}
	visitLocks[userID] = lockEntry{expiresAt: time.Now().Add(ttl)}
	return true
}

// ReleaseVisitLock frees the per-user lock once the flow reaches a terminal state.
func ReleaseVisitLock(userID uint) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Del(ctx, visitLockKey(userID)).Err(); err == nil {
			return
		}
	}
	visitLocksMu.Lock()
	delete(visitLocks, userID)
	visitLocksMu.Unlock()
}
