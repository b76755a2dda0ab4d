package storage

import (
	"context"

	"gorm.io/gorm"
)

type LedgerEventStorage interface {
	Append(ctx context.Context, event *LedgerEvent) error
	ListSince(ctx context.Context, sinceID int64, limit int) ([]*LedgerEvent, error)
}

type GormLedgerEventStorage struct {
	DB *gorm.DB
}

func (s *GormLedgerEventStorage) Append(ctx context.Context, event *LedgerEvent) error {
	return s.DB.WithContext(ctx).Create(event).Error
}

// ListSince serves the "changed since id X" polling contract used by clients
// in place of push delivery.
func (s *GormLedgerEventStorage) ListSince(ctx context.Context, sinceID int64, limit int) ([]*LedgerEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	var events []*LedgerEvent
	err := s.DB.WithContext(ctx).
		Where("id > ?", sinceID).
		Order("id asc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
