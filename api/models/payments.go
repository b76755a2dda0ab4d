package models

import (
	"github.com/tobiakoko/afromerica-voting-api/storage"
)

type PurchaseLineRequest struct {
	ArtistID  uint `json:"artistId"`
	PackageID uint `json:"packageId"`
	Quantity  int  `json:"quantity"`
}

type InitializePaymentRequest struct {
	Contact string                `json:"contact"`
	Method  string                `json:"method"`
	Token   string                `json:"token"`
	Email   string                `json:"email,omitempty"` // required by the provider when contact is a phone number
	Lines   []PurchaseLineRequest `json:"lines"`
}

type InitializePaymentResponse struct {
	PurchaseID       string `json:"purchaseId"`
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorizationUrl"`
	TotalVotes       int    `json:"totalVotes"`
	TotalPrice       int64  `json:"totalPrice"`
	Currency         string `json:"currency"`
}

type PurchaseResponse struct {
	ID         string `json:"id"`
	Reference  string `json:"reference"`
	Status     string `json:"status"`
	TotalVotes int    `json:"totalVotes"`
	TotalPrice int64  `json:"totalPrice"`
	Currency   string `json:"currency"`
}

func TransformPurchaseFromStorage(p *storage.VotePurchase) PurchaseResponse {
	return PurchaseResponse{
		ID:         p.ID.String(),
		Reference:  p.Reference,
		Status:     string(p.Status),
		TotalVotes: p.TotalVotes,
		TotalPrice: p.TotalPrice,
		Currency:   p.Currency,
	}
}
