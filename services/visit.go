package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
	"github.com/yaoyorozu/sanpai/utils"
)

// FlowState models the visit attempt lifecycle.
// Idle -> Confirming -> Processing -> {Complete | Failed}.
type FlowState string

const (
	StateIdle       FlowState = "idle"
	StateConfirming FlowState = "confirming"
	StateProcessing FlowState = "processing"
	StateComplete   FlowState = "complete"
	StateFailed     FlowState = "failed"
)

// VisitRequest carries one visit attempt. Exactly one verification input is
// expected: coordinates (location), a QR token, or the manual flag.
type VisitRequest struct {
	UserID     uint
	ShrineSlug string
	Latitude   *float64
	Longitude  *float64
	QRToken    string
	Manual     bool
}

// VisitResult is the terminal outcome of a completed flow.
type VisitResult struct {
	State        FlowState           `json:"state"`
	Record       *models.VisitRecord `json:"record"`
	Bundle       models.RewardBundle `json:"bundle"`
	Summary      Summary             `json:"summary"`
	MilestoneHit bool                `json:"milestone_hit"`
	ChainTxHash  string              `json:"chain_tx_hash,omitempty"`
	ChainNotice  string              `json:"chain_notice,omitempty"`
}

// FlowDeps bundles the collaborators of the visit flow. Zero fields get
// production defaults in NewVisitFlow.
type FlowDeps struct {
	Store    Store
	Verifier Verifier
	Rewards  *RewardGenerator
	Streaks  *StreakTracker
	Notifier Notifier
	Chain    ChainSubmitter
	Locker   Locker
	Now      func() time.Time
}

// VisitFlow executes the visit state machine. One instance serves all users;
// per-user single-flight is enforced through the locker, not a mutex, so a
// second trigger while Processing is rejected instead of queued.
type VisitFlow struct {
	store        Store
	verifier     Verifier
	rewards      *RewardGenerator
	streaks      *StreakTracker
	notifier     Notifier
	chain        ChainSubmitter
	locker       Locker
	chainEnabled bool
	timeout      time.Duration
	now          func() time.Time
}

// NewVisitFlow wires the flow from config and dependencies.
func NewVisitFlow(cfg config.AppConfig, deps FlowDeps) *VisitFlow {
	if deps.Verifier == nil {
		deps.Verifier = NewStandardVerifier(cfg)
	}
	if deps.Rewards == nil {
		deps.Rewards = NewRewardGenerator(cfg, nil)
	}
	if deps.Streaks == nil {
		deps.Streaks = NewStreakTracker(cfg.StreakMilestones)
	}
	if deps.Notifier == nil {
		deps.Notifier = NewNotifier(cfg)
	}
	if deps.Chain == nil {
		deps.Chain = NewChainSubmitter(cfg)
	}
	if deps.Locker == nil {
		deps.Locker = RedisLocker{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.VisitTimeoutSec <= 0 {
		cfg.VisitTimeoutSec = 10
	}
	return &VisitFlow{
		store:        deps.Store,
		verifier:     deps.Verifier,
		rewards:      deps.Rewards,
		streaks:      deps.Streaks,
		notifier:     deps.Notifier,
		chain:        deps.Chain,
		locker:       deps.Locker,
		chainEnabled: cfg.ChainEnabled,
		timeout:      time.Duration(cfg.VisitTimeoutSec) * time.Second,
		now:          deps.Now,
	}
}

// Streaks exposes the tracker (client config endpoint).
func (f *VisitFlow) Streaks() *StreakTracker { return f.streaks }

// Execute runs one visit attempt to a terminal state. On error the profile
// is guaranteed unchanged; AlreadyVisitedToday short-circuits before any
// verification work.
func (f *VisitFlow) Execute(ctx context.Context, req VisitRequest) (*VisitResult, error) {
	now := f.now()

	// Single-flight gate. Lock TTL outlives the persistence timeout so a
	// crashed flow cannot wedge the user forever.
	if !f.locker.Acquire(req.UserID, f.timeout+20*time.Second) {
		return nil, ErrVisitInProgress
	}
	defer f.locker.Release(req.UserID)

	// Confirming: re-check eligibility before any verification call.
	profile, err := f.store.LoadProfile(ctx, req.UserID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if profile.VisitedToday(now) {
		return nil, ErrAlreadyVisitedToday
	}

	shrine, method, nonce, err := f.verify(ctx, req, now)
	if err != nil {
		return nil, err
	}

	// Processing: QR nonces are consumed exactly once, then the write runs
	// under its own deadline, detached from the request context. A client
	// disconnect can no longer abort the in-flight write; it settles on its own.
	if method == models.MethodQR {
		if !f.verifier.ConsumeNonce(nonce) {
			return nil, verificationFailed("qr code already used", utils.ErrQRReplayed)
		}
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	var bundle models.RewardBundle
	var streak int
	record, err := f.store.RecordVisit(wctx, req.UserID, func(txn *VisitTxn) (*models.VisitRecord, []models.Reward, error) {
		if txn.User.VisitedToday(now) {
			return nil, nil, ErrAlreadyVisitedToday
		}
		streak = f.streaks.Next(txn.LastVisit, txn.User.CurrentStreak, now)

		rec := &models.VisitRecord{
			PublicID:       uuid.NewString(),
			UserID:         req.UserID,
			ShrineID:       shrine.ID,
			VisitedAt:      now,
			Method:         method,
			StreakAchieved: streak,
		}
		bundle = f.rewards.Generate(shrine)
		rec.PointsAwarded = bundle.CulturalCapitalDelta

		txn.User.CulturalCapital += bundle.CulturalCapitalDelta
		txn.User.CurrentStreak = streak
		if streak > txn.User.LongestStreak {
			txn.User.LongestStreak = streak
		}
		txn.User.LastVisitAt = &rec.VisitedAt
		return rec, bundle.Rewards, nil
	})
	if err != nil {
		// The token is still valid; return the nonce so a retry after a
		// failed write is not rejected as a replay.
		if method == models.MethodQR {
			f.verifier.ReleaseNonce(nonce)
		}
		if errors.Is(err, ErrAlreadyVisitedToday) {
			return nil, ErrAlreadyVisitedToday
		}
		return nil, persistenceError(err)
	}

	// Complete: notifications are fire-and-forget side channels.
	milestone := f.streaks.IsMilestone(streak)
	f.notifier.SendRewardNotification(profile, bundle)
	if milestone {
		f.notifier.SendStreakNotification(profile, streak)
	}

	result := &VisitResult{
		State:        StateComplete,
		Record:       record,
		Bundle:       bundle,
		MilestoneHit: milestone,
		Summary:      PresentComplete(shrine, record, bundle, milestone),
	}

	// Optional on-chain submission. Local-first: failures become a
	// dismissible notice and never invalidate the committed record.
	if f.chainEnabled {
		cctx, ccancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer ccancel()
		txHash, cerr := f.chain.RecordVisitOnChain(cctx, record)
		switch {
		case cerr == nil:
			result.ChainTxHash = txHash
		case errors.Is(cerr, ErrChainDisabled):
			// nothing to report
		default:
			utils.Sugar.Warnf("on-chain visit submission failed for %s: %v", record.PublicID, cerr)
			result.ChainNotice = "on-chain record failed; your visit is saved locally"
		}
	}

	return result, nil
}

// verify resolves the shrine and confirms presence for the requested method.
func (f *VisitFlow) verify(ctx context.Context, req VisitRequest, now time.Time) (*models.Shrine, string, string, error) {
	switch {
	case req.QRToken != "":
		slug, nonce, err := f.verifier.VerifyQR(req.QRToken, now)
		if err != nil {
			return nil, "", "", verificationFailed("invalid qr code", err)
		}
		shrine, err := f.shrineBySlug(ctx, slug)
		if err != nil {
			return nil, "", "", err
		}
		return shrine, models.MethodQR, nonce, nil

	case req.Latitude != nil && req.Longitude != nil && req.ShrineSlug != "":
		shrine, err := f.shrineBySlug(ctx, req.ShrineSlug)
		if err != nil {
			return nil, "", "", err
		}
		if err := f.verifier.VerifyLocation(shrine, *req.Latitude, *req.Longitude); err != nil {
			return nil, "", "", verificationFailed("you are too far from the shrine", err)
		}
		return shrine, models.MethodLocation, "", nil

	case req.Manual && req.ShrineSlug != "":
		shrine, err := f.shrineBySlug(ctx, req.ShrineSlug)
		if err != nil {
			return nil, "", "", err
		}
		return shrine, models.MethodManual, "", nil

	default:
		return nil, "", "", ErrIneligibleVisit
	}
}

func (f *VisitFlow) shrineBySlug(ctx context.Context, slug string) (*models.Shrine, error) {
	shrine, err := f.store.ShrineBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, verificationFailed("unknown shrine", err)
		}
		return nil, persistenceError(err)
	}
	return shrine, nil
}
