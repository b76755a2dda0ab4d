package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type ArtistStorage interface {
	Get(ctx context.Context, id uint) (*Artist, error)
	GetBySlug(ctx context.Context, slug string) (*Artist, error)
	GetAll(ctx context.Context, includeDeleted bool) ([]*Artist, error)
	ListRanked(ctx context.Context) ([]*Artist, error)
	Create(ctx context.Context, artist *Artist) error
	Update(ctx context.Context, artist *Artist) error
	SoftDelete(ctx context.Context, id uint, deletedBy string) error
	Restore(ctx context.Context, id uint) error
	UpdateRanks(ctx context.Context, updates []RankUpdate) error
	ClearRetiredRanks(ctx context.Context) (int64, error)
}

// RankUpdate carries one artist's new rank. PreviousRank is the rank that was
// displaced; it is only set when the rank actually changed.
type RankUpdate struct {
	ArtistID     uint
	Rank         int
	PreviousRank *int
}

type GormArtistStorage struct {
	DB *gorm.DB
}

func (s *GormArtistStorage) Get(ctx context.Context, id uint) (*Artist, error) {
	var artist Artist
	err := s.DB.WithContext(ctx).First(&artist, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArtistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

func (s *GormArtistStorage) GetBySlug(ctx context.Context, slug string) (*Artist, error) {
	var artist Artist
	err := s.DB.WithContext(ctx).First(&artist, "slug = ? AND deleted_at IS NULL", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArtistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

func (s *GormArtistStorage) GetAll(ctx context.Context, includeDeleted bool) ([]*Artist, error) {
	var artists []*Artist
	q := s.DB.WithContext(ctx).Order("id asc")
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.Find(&artists).Error; err != nil {
		return nil, err
	}
	return artists, nil
}

// ListRanked returns the ranking candidates in deterministic leaderboard
// order: votes descending, creation order ascending as the tie-break.
func (s *GormArtistStorage) ListRanked(ctx context.Context) ([]*Artist, error) {
	var artists []*Artist
	err := s.DB.WithContext(ctx).
		Where("is_active = ? AND deleted_at IS NULL", true).
		Order("total_votes desc, id asc").
		Find(&artists).Error
	if err != nil {
		return nil, err
	}
	return artists, nil
}

func (s *GormArtistStorage) Create(ctx context.Context, artist *Artist) error {
	err := s.DB.WithContext(ctx).Create(artist).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlugTaken
	}
	return err
}

func (s *GormArtistStorage) Update(ctx context.Context, artist *Artist) error {
	res := s.DB.WithContext(ctx).Model(&Artist{}).
		Where("id = ? AND deleted_at IS NULL", artist.ID).
		Updates(map[string]any{
			"slug":       artist.Slug,
			"name":       artist.Name,
			"stage_name": artist.StageName,
			"is_active":  artist.IsActive,
			"metadata":   artist.Metadata,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArtistNotFound
	}
	return nil
}

// SoftDelete hides the artist without losing the vote history that references
// it. Votes already applied stay on the row.
func (s *GormArtistStorage) SoftDelete(ctx context.Context, id uint, deletedBy string) error {
	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&Artist{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{"deleted_at": now, "deleted_by": deletedBy, "is_active": false, "rank": nil, "previous_rank": nil})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArtistNotFound
	}
	return nil
}

func (s *GormArtistStorage) Restore(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Model(&Artist{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]any{"deleted_at": nil, "deleted_by": ""})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArtistNotFound
	}
	return nil
}

// ClearRetiredRanks nulls the rank columns of artists that left the ranked
// set, so a stale ordinal never shows next to the active artist that now
// holds it. Returns how many rows were cleared.
func (s *GormArtistStorage) ClearRetiredRanks(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&Artist{}).
		Where("rank IS NOT NULL AND (is_active = ? OR deleted_at IS NOT NULL)", false).
		Updates(map[string]any{"rank": nil, "previous_rank": nil})
	return res.RowsAffected, res.Error
}

// UpdateRanks persists a recomputation result in one transaction so readers
// never observe a half-applied ordering.
func (s *GormArtistStorage) UpdateRanks(ctx context.Context, updates []RankUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			if err := tx.Model(&Artist{}).
				Where("id = ?", u.ArtistID).
				Updates(map[string]any{"rank": u.Rank, "previous_rank": u.PreviousRank}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
