package models

import (
	"github.com/tobiakoko/afromerica-voting-api/storage"
)

type FinalScoreUpsertRequest struct {
	ArtistID         uint    `json:"artistId"`
	PaidScore        float64 `json:"paidScore"`
	PublicScore      float64 `json:"publicScore"`
	JudgesScore      float64 `json:"judgesScore"`
	PerformanceScore float64 `json:"performanceScore"`
}

type FinalScoreResponse struct {
	ArtistID         uint    `json:"artistId"`
	PaidScore        float64 `json:"paidScore"`
	PublicScore      float64 `json:"publicScore"`
	JudgesScore      float64 `json:"judgesScore"`
	PerformanceScore float64 `json:"performanceScore"`
	TotalScore       float64 `json:"totalScore"`
	FinalRank        *int    `json:"finalRank,omitempty"`
	TopTen           bool    `json:"topTen"`
}

func TransformFinalScoreFromStorage(s *storage.FinalScore) FinalScoreResponse {
	return FinalScoreResponse{
		ArtistID:         s.ArtistID,
		PaidScore:        s.PaidScore,
		PublicScore:      s.PublicScore,
		JudgesScore:      s.JudgesScore,
		PerformanceScore: s.PerformanceScore,
		TotalScore:       s.TotalScore,
		FinalRank:        s.FinalRank,
		TopTen:           s.TopTen,
	}
}
