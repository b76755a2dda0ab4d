package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FinalScoreStorage interface {
	GetAll(ctx context.Context) ([]*FinalScore, error)
	UpsertScores(ctx context.Context, score *FinalScore) error
	SaveDerived(ctx context.Context, scores []*FinalScore) error
}

type GormFinalScoreStorage struct {
	DB *gorm.DB
}

func (s *GormFinalScoreStorage) GetAll(ctx context.Context) ([]*FinalScore, error) {
	var scores []*FinalScore
	if err := s.DB.WithContext(ctx).Order("artist_id asc").Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

// UpsertScores writes the four sub-scores for one artist. Derived columns are
// left alone; they are owned by SaveDerived.
func (s *GormFinalScoreStorage) UpsertScores(ctx context.Context, score *FinalScore) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "artist_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"paid_score", "public_score", "judges_score", "performance_score", "updated_at",
		}),
	}).Create(score).Error
}

// SaveDerived persists recomputed total_score, final_rank and top_ten in one
// transaction.
func (s *GormFinalScoreStorage) SaveDerived(ctx context.Context, scores []*FinalScore) error {
	if len(scores) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, score := range scores {
			if err := tx.Model(&FinalScore{}).
				Where("id = ?", score.ID).
				Updates(map[string]any{
					"total_score": score.TotalScore,
					"final_rank":  score.FinalRank,
					"top_ten":     score.TopTen,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
