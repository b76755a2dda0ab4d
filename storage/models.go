package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

type ValidationMethod string

const (
	MethodEmail ValidationMethod = "email"
	MethodSMS   ValidationMethod = "sms"
)

// Artist is a competitor on the leaderboard. Rank is a dense 1-based ordinal
// over active, non-deleted artists; PreviousRank holds the rank before the
// last recomputation that actually moved the artist.
type Artist struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Slug            string         `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	Name            string         `gorm:"size:255;not null" json:"name"`
	StageName       string         `gorm:"size:255" json:"stageName"`
	TotalVotes      int64          `gorm:"not null;default:0" json:"totalVotes"`
	TotalVoteAmount int64          `gorm:"not null;default:0" json:"totalVoteAmount"`
	Rank            *int           `json:"rank,omitempty"`
	PreviousRank    *int           `json:"previousRank,omitempty"`
	IsActive        bool           `gorm:"not null;default:true;index" json:"isActive"`
	Metadata        datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       *time.Time     `gorm:"index" json:"deletedAt,omitempty"`
	DeletedBy       string         `gorm:"size:128" json:"deletedBy,omitempty"`
}

// VotePackage is a purchasable bundle of votes. Completed purchases snapshot
// price and votes into their own line items, so editing a package never
// rewrites history.
type VotePackage struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:128;not null" json:"name"`
	Votes           int       `gorm:"not null" json:"votes"`
	Price           int64     `gorm:"not null" json:"price"` // minor currency units
	Currency        string    `gorm:"size:3;not null;default:'NGN'" json:"currency"`
	DiscountPercent int       `gorm:"default:0" json:"discountPercent"`
	Popular         bool      `gorm:"default:false" json:"popular"`
	Active          bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PurchaseItem is one artist/package line inside a purchase. Values are
// snapshots taken at purchase creation.
type PurchaseItem struct {
	ArtistID        uint   `json:"artistId"`
	ArtistName      string `json:"artistName"`
	PackageID       uint   `json:"packageId"`
	PackageName     string `json:"packageName"`
	Votes           int    `json:"votes"`
	PricePerPackage int64  `json:"pricePerPackage"`
	Quantity        int    `json:"quantity"`
	TotalVotes      int    `json:"totalVotes"`
	TotalPrice      int64  `json:"totalPrice"`
}

// VotePurchase is a ledger entry. The row id doubles as the idempotency key
// for payment completion; rows are never deleted.
type VotePurchase struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Reference     string         `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	UserID        *uuid.UUID     `gorm:"type:uuid" json:"userId,omitempty"`
	Contact       string         `gorm:"size:255;not null;index" json:"contact"`
	Method        string         `gorm:"size:8;not null" json:"method"`
	Items         datatypes.JSON `json:"items"`
	TotalVotes    int            `gorm:"not null" json:"totalVotes"`
	TotalPrice    int64          `gorm:"not null" json:"totalPrice"`
	Currency      string         `gorm:"size:3;not null" json:"currency"`
	Status        PurchaseStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	FailedAt      *time.Time     `json:"failedAt,omitempty"`
	FailureReason string         `gorm:"size:255" json:"failureReason,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// VoteValidation is a one-time code issued to a contact identifier before a
// paid action.
type VoteValidation struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Identifier  string           `gorm:"size:255;not null;index:idx_validation_target,priority:1" json:"identifier"`
	Method      ValidationMethod `gorm:"size:8;not null;index:idx_validation_target,priority:2" json:"method"`
	Code        string           `gorm:"size:8;not null" json:"-"`
	ExpiresAt   time.Time        `gorm:"not null;index" json:"expiresAt"`
	Attempts    int              `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts int              `gorm:"not null;default:3" json:"maxAttempts"`
	IsUsed      bool             `gorm:"not null;default:false" json:"isUsed"`
	IsVerified  bool             `gorm:"not null;default:false" json:"isVerified"`
	VerifiedAt  *time.Time       `json:"verifiedAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// VotingConfig is the single row gating the voting window.
type VotingConfig struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Active    bool       `gorm:"not null;default:false" json:"active"`
	StartsAt  *time.Time `json:"startsAt,omitempty"`
	EndsAt    *time.Time `json:"endsAt,omitempty"`
	Currency  string     `gorm:"size:3;not null;default:'NGN'" json:"currency"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// FinalScore is the showcase composite score sheet for one artist.
// TotalScore, FinalRank and TopTen are derived, never hand-edited.
type FinalScore struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ArtistID         uint      `gorm:"uniqueIndex;not null" json:"artistId"`
	PaidScore        float64   `gorm:"not null;default:0" json:"paidScore"`
	PublicScore      float64   `gorm:"not null;default:0" json:"publicScore"`
	JudgesScore      float64   `gorm:"not null;default:0" json:"judgesScore"`
	PerformanceScore float64   `gorm:"not null;default:0" json:"performanceScore"`
	TotalScore       float64   `gorm:"not null;default:0" json:"totalScore"`
	FinalRank        *int      `json:"finalRank,omitempty"`
	TopTen           bool      `gorm:"not null;default:false" json:"topTen"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// LedgerEvent is an append-only change feed entry. Consumers poll
// "everything after id X"; push delivery is out of scope.
type LedgerEvent struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType  string         `gorm:"size:64;not null;index" json:"eventType"`
	EntityType string         `gorm:"size:32;not null" json:"entityType"`
	EntityID   string         `gorm:"size:64;not null" json:"entityId"`
	Payload    datatypes.JSON `json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// WebhookEvent deduplicates provider webhook deliveries via the unique
// (provider, provider_event_id) index.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"size:20;not null;uniqueIndex:ux_webhook_provider_event,priority:1" json:"provider"`
	ProviderEventID string     `gorm:"size:191;not null;uniqueIndex:ux_webhook_provider_event,priority:2" json:"providerEventId"`
	EventType       string     `gorm:"size:100;not null" json:"eventType"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
