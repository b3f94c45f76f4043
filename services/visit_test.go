package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
	"github.com/yaoyorozu/sanpai/utils"
)

func TestMain(m *testing.M) {
	config.SetForTest(config.AppConfig{JWTSecret: "test-secret"})
	utils.Logger = zap.NewNop()
	utils.Sugar = utils.Logger.Sugar()
	os.Exit(m.Run())
}

// --- fakes ---

type fakeStore struct {
	mu        sync.Mutex
	user      *models.User
	shrines   map[string]*models.Shrine
	lastVisit *models.VisitRecord
	recordErr error
	recorded  *models.VisitRecord

	entered chan struct{} // closed when RecordVisit is entered, when set
	release chan struct{} // RecordVisit blocks until closed, when set
}

func (s *fakeStore) LoadProfile(ctx context.Context, userID uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *s.user
	return &u, nil
}

func (s *fakeStore) ShrineBySlug(ctx context.Context, slug string) (*models.Shrine, error) {
	if sh, ok := s.shrines[slug]; ok {
		return sh, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) RecordVisit(ctx context.Context, userID uint, build BuildVisit) (*models.VisitRecord, error) {
	if s.entered != nil {
		close(s.entered)
		s.entered = nil
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.recordErr != nil {
		return nil, s.recordErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	txn := VisitTxn{User: s.user, LastVisit: s.lastVisit}
	record, rewards, err := build(&txn)
	if err != nil {
		return nil, err
	}
	record.ID = 1
	record.Rewards = rewards
	s.recorded = record
	return record, nil
}

type fakeVerifier struct {
	locationCalls int
	locationErr   error
	qrSlug        string
	qrNonce       string
	qrErr         error
	consumed      map[string]bool
}

func (v *fakeVerifier) VerifyLocation(shrine *models.Shrine, lat, lng float64) error {
	v.locationCalls++
	return v.locationErr
}

func (v *fakeVerifier) VerifyQR(token string, now time.Time) (string, string, error) {
	if v.qrErr != nil {
		return "", "", v.qrErr
	}
	return v.qrSlug, v.qrNonce, nil
}

func (v *fakeVerifier) ConsumeNonce(nonce string) bool {
	if v.consumed == nil {
		v.consumed = map[string]bool{}
	}
	if v.consumed[nonce] {
		return false
	}
	v.consumed[nonce] = true
	return true
}

func (v *fakeVerifier) ReleaseNonce(nonce string) {
	delete(v.consumed, nonce)
}

type fakeNotifier struct {
	mu            sync.Mutex
	rewardCalls   int
	streakCalls   int
	lastStreakVal int
}

func (n *fakeNotifier) SendRewardNotification(user *models.User, bundle models.RewardBundle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rewardCalls++
}

func (n *fakeNotifier) SendStreakNotification(user *models.User, streak int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.streakCalls++
	n.lastStreakVal = streak
}

type fakeChain struct {
	txHash string
	err    error
}

func (c *fakeChain) RecordVisitOnChain(ctx context.Context, record *models.VisitRecord) (string, error) {
	return c.txHash, c.err
}

func (c *fakeChain) MintVisitToken(ctx context.Context, record *models.VisitRecord) (string, error) {
	return c.txHash, c.err
}

type memoryLocker struct {
	mu    sync.Mutex
	locks map[uint]bool
}

func (l *memoryLocker) Acquire(userID uint, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = map[uint]bool{}
	}
	if l.locks[userID] {
		return false
	}
	l.locks[userID] = true
	return true
}

func (l *memoryLocker) Release(userID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, userID)
}

// --- helpers ---

func testShrine() *models.Shrine {
	return &models.Shrine{
		ID:       1,
		Slug:     "hanazono-jinja",
		Name:     "Hanazono Shrine",
		Category: models.CategoryShrine,
		Rarity:   models.RarityCommon,
	}
}

func newTestFlow(t *testing.T, store *fakeStore, verifier *fakeVerifier, notifier *fakeNotifier, chain *fakeChain, chainEnabled bool) *VisitFlow {
	t.Helper()
	cfg := config.AppConfig{JWTSecret: "test-secret", ChainEnabled: chainEnabled, VisitTimeoutSec: 5}
	if verifier == nil {
		verifier = &fakeVerifier{}
	}
	if notifier == nil {
		notifier = &fakeNotifier{}
	}
	if chain == nil {
		chain = &fakeChain{}
	}
	return NewVisitFlow(cfg, FlowDeps{
		Store:    store,
		Verifier: verifier,
		Notifier: notifier,
		Chain:    chain,
		Locker:   &memoryLocker{},
		Rewards:  NewRewardGenerator(config.Get(), func() float64 { return 0.5 }),
		Streaks:  NewStreakTracker(nil),
	})
}

func locReq() VisitRequest {
	lat, lng := 35.7, 139.7
	return VisitRequest{UserID: 1, ShrineSlug: "hanazono-jinja", Latitude: &lat, Longitude: &lng}
}

// --- tests ---

func TestExecuteLocationVisitComplete(t *testing.T) {
	store := &fakeStore{
		user:    &models.User{ID: 1, Username: "aoi"},
		shrines: map[string]*models.Shrine{"hanazono-jinja": testShrine()},
	}
	notifier := &fakeNotifier{}
	flow := newTestFlow(t, store, nil, notifier, nil, false)

	result, err := flow.Execute(context.Background(), locReq())
	require.NoError(t, err)

	assert.Equal(t, StateComplete, result.State)
	assert.Equal(t, models.MethodLocation, result.Record.Method)
	assert.NotEmpty(t, result.Record.PublicID)
	assert.Equal(t, 1, result.Record.StreakAchieved)
	assert.Equal(t, result.Bundle.Sum(), result.Bundle.CulturalCapitalDelta)
	assert.Equal(t, result.Bundle.CulturalCapitalDelta, result.Record.PointsAwarded)

	// Profile mutated inside the transaction
	assert.Equal(t, result.Bundle.CulturalCapitalDelta, store.user.CulturalCapital)
	assert.Equal(t, 1, store.user.CurrentStreak)
	require.NotNil(t, store.user.LastVisitAt)

	assert.Equal(t, 1, notifier.rewardCalls)
	assert.Equal(t, 0, notifier.streakCalls)
	assert.False(t, result.MilestoneHit)
}

func TestExecuteDailyGateBeforeVerification(t *testing.T) {
	now := time.Now()
	store := &fakeStore{
		user:    &models.User{ID: 1, Username: "aoi", LastVisitAt: &now, CurrentStreak: 4},
		shrines: map[string]*models.Shrine{"hanazono-jinja": testShrine()},
	}
	verifier := &fakeVerifier{}
	flow := newTestFlow(t, store, verifier, nil, nil, false)

	_, err := flow.Execute(context.Background(), locReq())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyVisitedToday))
	// Gate decided before any verification work
	assert.Equal(t, 0, verifier.locationCalls)
	assert.Equal(t, 0, store.user.CulturalCapital)
}

func TestExecuteTimeoutBecomesPersistenceError(t *testing.T) {
	store := &fakeStore{
		user:      &models.User{ID: 1, Username: "aoi"},
		shrines:   map[string]*models.Shrine{"hanazono-jinja": testShrine()},
		recordErr: context.DeadlineExceeded,
	}
	notifier := &fakeNotifier{}
	flow := newTestFlow(t, store, nil, notifier, nil, false)

	_, err := flow.Execute(context.Background(), locReq())
	require.Error(t, err)
	assert.Equal(t, KindPersistence, KindOf(err))

	var fe *FlowError
	require.True(t, errors.As(err, &fe))
	assert.True(t, fe.Retryable)

	// No partial effects
	assert.Equal(t, 0, store.user.CulturalCapital)
	assert.Equal(t, 0, store.user.CurrentStreak)
	assert.Nil(t, store.user.LastVisitAt)
	assert.Equal(t, 0, notifier.rewardCalls)
}

func TestExecuteSecondTriggerRejectedWhileProcessing(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	store := &fakeStore{
		user:    &models.User{ID: 1, Username: "aoi"},
		shrines: map[string]*models.Shrine{"hanazono-jinja": testShrine()},
		entered: entered,
		release: release,
	}
	flow := newTestFlow(t, store, nil, nil, nil, false)

	firstDone := make(chan error, 1)
	go func() {
		_, err := flow.Execute(context.Background(), locReq())
		firstDone <- err
	}()

	<-entered
	_, err := flow.Execute(context.Background(), locReq())
	require.Error(t, err)
	assert.Equal(t, KindVisitInProgress, KindOf(err))

	close(release)
	require.NoError(t, <-firstDone)

	// Lock released on completion: a later attempt passes the single-flight
	// gate and fails only on the daily gate.
	_, err = flow.Execute(context.Background(), locReq())
	assert.Equal(t, KindAlreadyVisited, KindOf(err))
}

func TestExecuteChainFailureDoesNotFailVisit(t *testing.T) {
	store := &fakeStore{
		user:    &models.User{ID: 1, Username: "aoi"},
		shrines: map[string]*models.Shrine{"hanazono-jinja": testShrine()},
	}
	chain := &fakeChain{err: errors.New("gateway unreachable")}
	flow := newTestFlow(t, store, nil, nil, chain, true)

	result, err := flow.Execute(context.Background(), locReq())
	require.NoError(t, err)
	assert.Equal(t, StateComplete, result.State)
	assert.NotEmpty(t, result.ChainNotice)
	assert.Empty(t, result.ChainTxHash)
}

func TestExecuteChainSuccessAttachesTxHash(t *testing.T) {
	store := &fakeStore{
		user:    &models.User{ID: 1, Username: "aoi"},
		shrines: map[string]*models.Shrine{"hanazono-jinja": testShrine()},
	}
	chain := &fakeChain{txHash: "0xabc123"}
	flow := newTestFlow(t, store, nil, nil, chain, true)

	result, err := flow.Execute(context.Background(), locReq())
	require.NoError(t, err)
	assert.Equal(t, "0xabc123", result.ChainTxHash)
	assert.Empty(t, result.ChainNotice)
}

func TestExecuteQRVisit(t *testing.T) {
	store := &fakeStore{
		user:    &models.User{ID: 1, Username: "aoi"},
		shrines: map[string]*models.Shrine{"hanazono-jinja": testShrine()},
	}
	verifier := &fakeVerifier{qrSlug: "hanazono-jinja", qrNonce: "nonce-1"}
	flow := newTestFlow(t, store, verifier, nil, nil, false)

	result, err := flow.Execute(context.Background(), VisitRequest{UserID: 1, QRToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, models.MethodQR, result.Record.Method)
	assert.True(t, verifier.consumed["nonce-1"])
}

func TestExecuteQRRetryAfterPersistenceFailure(t *testing.T) {
	store := &fakeStore{
		user:      &models.User{ID: 1, Username: "aoi"},
		shrines:   map[string]*models.Shrine{"hanazono-jinja": testShrine()},
		recordErr: context.DeadlineExceeded,
	}
	verifier := &fakeVerifier{qrSlug: "hanazono-jinja", qrNonce: "nonce-1"}
	flow := newTestFlow(t, store, verifier, nil, nil, false)

	_, err := flow.Execute(context.Background(), VisitRequest{UserID: 1, QRToken: "tok"})
	require.Error(t, err)
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.False(t, verifier.consumed["nonce-1"], "failed write must return the nonce")

	// The store recovers; the same still-valid token succeeds on retry.
	store.recordErr = nil
	result, err := flow.Execute(context.Background(), VisitRequest{UserID: 1, QRToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, models.MethodQR, result.Record.Method)
	assert.True(t, verifier.consumed["nonce-1"])
}

func TestExecuteQRNonceReplayRejected(t *testing.T) {
	store := &fakeStore{
		user:    &models.User{ID: 1, Username: "aoi"},
		shrines: map[string]*models.Shrine{"hanazono-jinja": testShrine()},
	}
	verifier := &fakeVerifier{qrSlug: "hanazono-jinja", qrNonce: "nonce-1", consumed: map[string]bool{"nonce-1": true}}
	flow := newTestFlow(t, store, verifier, nil, nil, false)

	_, err := flow.Execute(context.Background(), VisitRequest{UserID: 1, QRToken: "tok"})
	require.Error(t, err)
	assert.Equal(t, KindVerificationFailed, KindOf(err))
	assert.Nil(t, store.recorded)
}

func TestExecuteLocationTooFar(t *testing.T) {
	store := &fakeStore{
		user:    &models.User{ID: 1, Username: "aoi"},
		shrines: map[string]*models.Shrine{"hanazono-jinja": testShrine()},
	}
	verifier := &fakeVerifier{locationErr: errors.New("too far")}
	flow := newTestFlow(t, store, verifier, nil, nil, false)

	_, err := flow.Execute(context.Background(), locReq())
	require.Error(t, err)
	assert.Equal(t, KindVerificationFailed, KindOf(err))
}

func TestExecuteUnknownShrine(t *testing.T) {
	store := &fakeStore{
		user:    &models.User{ID: 1, Username: "aoi"},
		shrines: map[string]*models.Shrine{},
	}
	flow := newTestFlow(t, store, nil, nil, nil, false)

	_, err := flow.Execute(context.Background(), locReq())
	require.Error(t, err)
	assert.Equal(t, KindVerificationFailed, KindOf(err))
}

func TestExecuteNoVerificationInputIsIneligible(t *testing.T) {
	store := &fakeStore{user: &models.User{ID: 1, Username: "aoi"}}
	flow := newTestFlow(t, store, nil, nil, nil, false)

	_, err := flow.Execute(context.Background(), VisitRequest{UserID: 1})
	require.Error(t, err)
	assert.Equal(t, KindIneligible, KindOf(err))
}

func TestExecuteMilestoneStreakNotifies(t *testing.T) {
	yesterday := time.Now().Add(-24 * time.Hour)
	store := &fakeStore{
		user:      &models.User{ID: 1, Username: "aoi", CurrentStreak: 6, LongestStreak: 6},
		shrines:   map[string]*models.Shrine{"hanazono-jinja": testShrine()},
		lastVisit: &models.VisitRecord{VisitedAt: yesterday, StreakAchieved: 6},
	}
	notifier := &fakeNotifier{}
	flow := newTestFlow(t, store, nil, notifier, nil, false)

	result, err := flow.Execute(context.Background(), locReq())
	require.NoError(t, err)
	assert.Equal(t, 7, result.Record.StreakAchieved)
	assert.True(t, result.MilestoneHit)
	assert.Equal(t, 1, notifier.streakCalls)
	assert.Equal(t, 7, notifier.lastStreakVal)
	assert.Equal(t, 7, store.user.CurrentStreak)
	assert.Equal(t, 7, store.user.LongestStreak)
}

func TestExecuteManualVisit(t *testing.T) {
	store := &fakeStore{
		user:    &models.User{ID: 1, Username: "aoi"},
		shrines: map[string]*models.Shrine{"hanazono-jinja": testShrine()},
	}
	flow := newTestFlow(t, store, nil, nil, nil, false)

	result, err := flow.Execute(context.Background(), VisitRequest{UserID: 1, ShrineSlug: "hanazono-jinja", Manual: true})
	require.NoError(t, err)
	assert.Equal(t, models.MethodManual, result.Record.Method)
}
