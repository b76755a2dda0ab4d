package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type VotePackageStorage interface {
	Get(ctx context.Context, id uint) (*VotePackage, error)
	GetAll(ctx context.Context, activeOnly bool) ([]*VotePackage, error)
	Create(ctx context.Context, pkg *VotePackage) error
	Update(ctx context.Context, pkg *VotePackage) error
	Delete(ctx context.Context, id uint) error
}

type GormVotePackageStorage struct {
	DB *gorm.DB
}

func (s *GormVotePackageStorage) Get(ctx context.Context, id uint) (*VotePackage, error) {
	var pkg VotePackage
	err := s.DB.WithContext(ctx).First(&pkg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (s *GormVotePackageStorage) GetAll(ctx context.Context, activeOnly bool) ([]*VotePackage, error) {
	var pkgs []*VotePackage
	q := s.DB.WithContext(ctx).Order("price asc")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&pkgs).Error; err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (s *GormVotePackageStorage) Create(ctx context.Context, pkg *VotePackage) error {
	return s.DB.WithContext(ctx).Create(pkg).Error
}

func (s *GormVotePackageStorage) Update(ctx context.Context, pkg *VotePackage) error {
	res := s.DB.WithContext(ctx).Model(&VotePackage{}).
		Where("id = ?", pkg.ID).
		Updates(map[string]any{
			"name":             pkg.Name,
			"votes":            pkg.Votes,
			"price":            pkg.Price,
			"currency":         pkg.Currency,
			"discount_percent": pkg.DiscountPercent,
			"popular":          pkg.Popular,
			"active":           pkg.Active,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPackageNotFound
	}
	return nil
}

func (s *GormVotePackageStorage) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&VotePackage{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPackageNotFound
	}
	return nil
}
