package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type VoteValidationStorage interface {
	Create(ctx context.Context, validation *VoteValidation) error
	GetLatestActive(ctx context.Context, identifier string, method ValidationMethod, now time.Time) (*VoteValidation, error)
	IncrementAttempts(ctx context.Context, id uint) (int, error)
	Invalidate(ctx context.Context, id uint) error
	MarkVerified(ctx context.Context, id uint, at time.Time) (bool, error)
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

type GormVoteValidationStorage struct {
	DB *gorm.DB
}

// Create stores a fresh code and invalidates any prior unused code for the
// same identifier+method pair, so only the latest code can ever verify.
func (s *GormVoteValidationStorage) Create(ctx context.Context, validation *VoteValidation) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&VoteValidation{}).
			Where("identifier = ? AND method = ? AND is_used = ?", validation.Identifier, validation.Method, false).
			Update("is_used", true).Error
		if err != nil {
			return err
		}
		return tx.Create(validation).Error
	})
}

func (s *GormVoteValidationStorage) GetLatestActive(ctx context.Context, identifier string, method ValidationMethod, now time.Time) (*VoteValidation, error) {
	var validation VoteValidation
	err := s.DB.WithContext(ctx).
		Where("identifier = ? AND method = ? AND is_used = ? AND expires_at > ?", identifier, method, false, now).
		Order("created_at desc, id desc").
		First(&validation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrValidationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &validation, nil
}

// IncrementAttempts bumps the counter in a single UPDATE and returns the
// value after the bump. Concurrent failed verifies each observe their own
// increment, so the max_attempts comparison cannot be bypassed by racing.
func (s *GormVoteValidationStorage) IncrementAttempts(ctx context.Context, id uint) (int, error) {
	err := s.DB.WithContext(ctx).Model(&VoteValidation{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
	if err != nil {
		return 0, err
	}

	var validation VoteValidation
	if err := s.DB.WithContext(ctx).First(&validation, "id = ?", id).Error; err != nil {
		return 0, err
	}
	return validation.Attempts, nil
}

func (s *GormVoteValidationStorage) Invalidate(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Model(&VoteValidation{}).
		Where("id = ?", id).
		Update("is_used", true).Error
}

// MarkVerified consumes the code. The is_used guard makes a racing second
// verify lose: only one caller gets true.
func (s *GormVoteValidationStorage) MarkVerified(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&VoteValidation{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]any{"is_used": true, "is_verified": true, "verified_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteExpired garbage-collects codes whose expiry is past. Run from the
// admin maintenance endpoint.
func (s *GormVoteValidationStorage) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("expires_at < ?", olderThan).
		Delete(&VoteValidation{})
	return res.RowsAffected, res.Error
}
