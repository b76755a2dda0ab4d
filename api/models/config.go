package models

import (
	"time"

	"github.com/tobiakoko/afromerica-voting-api/storage"
)

type VotingConfigRequest struct {
	Active   bool       `json:"active"`
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
	Currency string     `json:"currency"`
}

type VotingConfigResponse struct {
	Active   bool       `json:"active"`
	StartsAt *time.Time `json:"startsAt,omitempty"`
	EndsAt   *time.Time `json:"endsAt,omitempty"`
	Currency string     `json:"currency"`
}

func TransformVotingConfigFromStorage(c *storage.VotingConfig) VotingConfigResponse {
	return VotingConfigResponse{
		Active:   c.Active,
		StartsAt: c.StartsAt,
		EndsAt:   c.EndsAt,
		Currency: c.Currency,
	}
}
