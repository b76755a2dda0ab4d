package models

import (
	"time"

	"github.com/tobiakoko/afromerica-voting-api/storage"
)

type ArtistCreateRequest struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	StageName string `json:"stageName"`
	IsActive  *bool  `json:"isActive"`
}

type ArtistUpdateRequest struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	StageName string `json:"stageName"`
	IsActive  *bool  `json:"isActive"`
}

type ArtistResponse struct {
	ID              uint       `json:"id"`
	Slug            string     `json:"slug"`
	Name            string     `json:"name"`
	StageName       string     `json:"stageName,omitempty"`
	TotalVotes      int64      `json:"totalVotes"`
	TotalVoteAmount int64      `json:"totalVoteAmount"`
	Rank            *int       `json:"rank,omitempty"`
	PreviousRank    *int       `json:"previousRank,omitempty"`
	IsActive        bool       `json:"isActive"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
}

func TransformArtistFromStorage(a *storage.Artist) ArtistResponse {
	return ArtistResponse{
		ID:              a.ID,
		Slug:            a.Slug,
		Name:            a.Name,
		StageName:       a.StageName,
		TotalVotes:      a.TotalVotes,
		TotalVoteAmount: a.TotalVoteAmount,
		Rank:            a.Rank,
		PreviousRank:    a.PreviousRank,
		IsActive:        a.IsActive,
		DeletedAt:       a.DeletedAt,
	}
}

type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	PreviousRank *int   `json:"previousRank,omitempty"`
	ArtistID     uint   `json:"artistId"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	StageName    string `json:"stageName,omitempty"`
	TotalVotes   int64  `json:"totalVotes"`
}
