package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type VotingConfigStorage interface {
	Get(ctx context.Context) (*VotingConfig, error)
	Upsert(ctx context.Context, config *VotingConfig) error
}

type GormVotingConfigStorage struct {
	DB *gorm.DB
}

// Get returns the single config row. Callers must treat ErrConfigNotFound as
// "voting not configured yet", not as a failure.
func (s *GormVotingConfigStorage) Get(ctx context.Context) (*VotingConfig, error) {
	var config VotingConfig
	err := s.DB.WithContext(ctx).Order("id asc").First(&config).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (s *GormVotingConfigStorage) Upsert(ctx context.Context, config *VotingConfig) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing VotingConfig
		err := tx.Order("id asc").First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(config).Error
		}
		if err != nil {
			return err
		}
		config.ID = existing.ID
		return tx.Model(&VotingConfig{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"active":    config.Active,
				"starts_at": config.StartsAt,
				"ends_at":   config.EndsAt,
				"currency":  config.Currency,
			}).Error
	})
}
