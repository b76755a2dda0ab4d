package models

import (
	"github.com/tobiakoko/afromerica-voting-api/storage"
)

type VotePackageCreateRequest struct {
	Name            string `json:"name"`
	Votes           int    `json:"votes"`
	Price           int64  `json:"price"`
	Currency        string `json:"currency"`
	DiscountPercent int    `json:"discountPercent"`
	Popular         bool   `json:"popular"`
	Active          *bool  `json:"active"`
}

type VotePackageResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Votes           int    `json:"votes"`
	Price           int64  `json:"price"`
	Currency        string `json:"currency"`
	DiscountPercent int    `json:"discountPercent,omitempty"`
	Popular         bool   `json:"popular"`
	Active          bool   `json:"active"`
}

func TransformVotePackageFromStorage(p *storage.VotePackage) VotePackageResponse {
	return VotePackageResponse{
		ID:              p.ID,
		Name:            p.Name,
		Votes:           p.Votes,
		Price:           p.Price,
		Currency:        p.Currency,
		DiscountPercent: p.DiscountPercent,
		Popular:         p.Popular,
		Active:          p.Active,
	}
}
