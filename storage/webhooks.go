package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type WebhookEventStorage interface {
	// Record persists a delivery. ErrDuplicateEvent means the same provider
	// event was seen before and must not be processed again.
	Record(ctx context.Context, event *WebhookEvent) error
	MarkProcessed(ctx context.Context, id uint) error
	// Delete releases a recorded delivery so the provider's retry of the
	// same event is not absorbed as a duplicate.
	Delete(ctx context.Context, id uint) error
}

type GormWebhookEventStorage struct {
	DB *gorm.DB
}

func (s *GormWebhookEventStorage) Record(ctx context.Context, event *WebhookEvent) error {
	err := s.DB.WithContext(ctx).Create(event).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEvent
	}
	return err
}

func (s *GormWebhookEventStorage) MarkProcessed(ctx context.Context, id uint) error {
	now := time.Now().UTC()
	return s.DB.WithContext(ctx).Model(&WebhookEvent{}).
		Where("id = ?", id).
		Update("processed_at", now).Error
}

func (s *GormWebhookEventStorage) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Delete(&WebhookEvent{}, "id = ?", id).Error
}
