package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yaoyorozu/sanpai/models"
)

// VisitTxn is the state handed to the flow inside the visit transaction: the
// row-locked profile and the user's most recent visit (nil when none).
// Mutations applied to User are persisted when the build callback succeeds.
type VisitTxn struct {
	User      *models.User
	LastVisit *models.VisitRecord
}

// BuildVisit produces the record and rewards to persist, or fails the
// transaction. It must leave User untouched on error.
type BuildVisit func(txn *VisitTxn) (*models.VisitRecord, []models.Reward, error)

// Store is the persistence boundary of the visit flow. The gorm
// implementation backs production; tests substitute fakes.
type Store interface {
	LoadProfile(ctx context.Context, userID uint) (*models.User, error)
	ShrineBySlug(ctx context.Context, slug string) (*models.Shrine, error)
	RecordVisit(ctx context.Context, userID uint, build BuildVisit) (*models.VisitRecord, error)
}

// GormStore implements Store on MySQL through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm DB handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// LoadProfile fetches the user profile.
func (s *GormStore) LoadProfile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ShrineBySlug fetches one catalog entry.
func (s *GormStore) ShrineBySlug(ctx context.Context, slug string) (*models.Shrine, error) {
	var shrine models.Shrine
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&shrine).Error; err != nil {
		return nil, err
	}
	return &shrine, nil
}

// RecordVisit runs the visit write inside a single transaction: the profile
// row is locked, the latest visit loaded, and the record plus its rewards
// and the profile mutation are committed atomically. The profile is never
// written when build fails, so a failed attempt has no side effects.
func (s *GormStore) RecordVisit(ctx context.Context, userID uint, build BuildVisit) (*models.VisitRecord, error) {
	var created *models.VisitRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}

		var last models.VisitRecord
		txn := VisitTxn{User: &user}
		err := tx.Where("user_id = ?", userID).Order("visited_at DESC").First(&last).Error
		if err == nil {
			txn.LastVisit = &last
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		record, rewards, err := build(&txn)
		if err != nil {
			return err
		}

		if err := tx.Omit("Shrine", "Rewards").Create(record).Error; err != nil {
			return err
		}
		for i := range rewards {
			rewards[i].VisitID = record.ID
		}
		if len(rewards) > 0 {
			if err := tx.Create(&rewards).Error; err != nil {
				return err
			}
		}
		record.Rewards = rewards

		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		created = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
