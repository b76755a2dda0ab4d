package voting

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/metrics"
	"github.com/tobiakoko/afromerica-voting-api/storage"
)

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	ErrVotingClosed      = errors.New("voting is not currently active")
	ErrEmptyPurchase     = errors.New("purchase must contain at least one line item")
	ErrPackageInactive   = errors.New("vote package is not available")
	ErrArtistUnavailable = errors.New("artist is not available for voting")
	ErrAmountMismatch    = errors.New("paid amount does not match purchase total")
)

// PurchaseLine is the client's selection before snapshotting.
type PurchaseLine struct {
	ArtistID  uint
	PackageID uint
	Quantity  int
}

type CreatePurchaseRequest struct {
	Contact string
	Method  storage.ValidationMethod
	Token   string
	UserID  *uuid.UUID
	Lines   []PurchaseLine
}

// Ledger turns validated selections into pending purchases and applies the
// payment outcome. All artist tally mutations flow through here.
type Ledger struct {
	purchases storage.VotePurchaseStorage
	packages  storage.VotePackageStorage
	artists   storage.ArtistStorage
	ranking   *Engine
	tokens    *TokenIssuer
	window    *Aggregator
}

func NewLedger(purchases storage.VotePurchaseStorage, packages storage.VotePackageStorage, artists storage.ArtistStorage, ranking *Engine, tokens *TokenIssuer, window *Aggregator) *Ledger {
	return &Ledger{
		purchases: purchases,
		packages:  packages,
		artists:   artists,
		ranking:   ranking,
		tokens:    tokens,
		window:    window,
	}
}

// CreatePurchase snapshots package price and votes into the line items at
// creation time, so later package edits never alter historical totals. The
// caller must present the validation token issued at OTP verification.
func (l *Ledger) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*storage.VotePurchase, error) {
	contact, err := normalizeIdentifier(req.Contact, req.Method)
	if err != nil {
		return nil, err
	}
	if err := l.tokens.Validate(req.Token, contact, TokenPurposeVote); err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, ErrEmptyPurchase
	}
	if !l.window.IsVotingActive(ctx) {
		return nil, ErrVotingClosed
	}

	currency := l.window.Currency(ctx)
	items := make([]storage.PurchaseItem, 0, len(req.Lines))
	totalVotes := 0
	var totalPrice int64
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		pkg, err := l.packages.Get(ctx, line.PackageID)
		if err != nil {
			return nil, err
		}
		if !pkg.Active {
			return nil, ErrPackageInactive
		}
		artist, err := l.artists.Get(ctx, line.ArtistID)
		if err != nil {
			return nil, err
		}
		if !artist.IsActive || artist.DeletedAt != nil {
			return nil, ErrArtistUnavailable
		}

		item := storage.PurchaseItem{
			ArtistID:        artist.ID,
			ArtistName:      artist.Name,
			PackageID:       pkg.ID,
			PackageName:     pkg.Name,
			Votes:           pkg.Votes,
			PricePerPackage: pkg.Price,
			Quantity:        line.Quantity,
			TotalVotes:      pkg.Votes * line.Quantity,
			TotalPrice:      pkg.Price * int64(line.Quantity),
		}
		items = append(items, item)
		totalVotes += item.TotalVotes
		totalPrice += item.TotalPrice
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	reference, err := gonanoid.Generate(referenceAlphabet, 16)
	if err != nil {
		return nil, err
	}

	purchase := &storage.VotePurchase{
		ID:         uuid.New(),
		Reference:  reference,
		UserID:     req.UserID,
		Contact:    contact,
		Method:     string(req.Method),
		Items:      encoded,
		TotalVotes: totalVotes,
		TotalPrice: totalPrice,
		Currency:   currency,
		Status:     storage.PurchasePending,
	}
	if err := l.purchases.Create(ctx, purchase); err != nil {
		return nil, err
	}

	metrics.PurchasesCreatedTotal.Inc()
	logging.Log.Infof("LEDGER: created purchase %s (%d votes, %d %s) for %s",
		purchase.ID, totalVotes, totalPrice, currency, contact)
	return purchase, nil
}

// Complete applies a purchase's votes exactly once. Safe under at-least-once
// delivery: duplicate signals report success without touching tallies. When
// paidAmount is non-negative it must equal the recorded total, otherwise the
// completion is rejected and the purchase stays pending for operator review.
func (l *Ledger) Complete(ctx context.Context, id uuid.UUID, paidAmount int64) (*storage.CompletionResult, error) {
	purchase, err := l.purchases.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase.Status == storage.PurchaseCompleted {
		metrics.DuplicateCompletionsTotal.Inc()
		return &storage.CompletionResult{Purchase: purchase}, nil
	}
	if purchase.Status != storage.PurchasePending {
		return nil, storage.ErrTerminalStatus
	}
	if paidAmount >= 0 && paidAmount != purchase.TotalPrice {
		logging.Log.Errorf("LEDGER: amount mismatch on purchase %s: paid %d, expected %d",
			purchase.ID, paidAmount, purchase.TotalPrice)
		return nil, ErrAmountMismatch
	}

	result, err := l.purchases.Complete(ctx, id)
	if err != nil {
		return nil, err
	}

	if !result.Applied {
		metrics.DuplicateCompletionsTotal.Inc()
		return result, nil
	}

	metrics.PurchasesCompletedTotal.Inc()
	for _, item := range result.Unapplied {
		// Surfaced for manual reconciliation, never silently dropped.
		metrics.ReconcileRequiredTotal.Inc()
		logging.Log.Errorf("LEDGER: purchase %s completed but %d votes for artist %d (%s) could not be applied",
			result.Purchase.ID, item.TotalVotes, item.ArtistID, item.ArtistName)
	}

	if err := l.ranking.Recompute(ctx); err != nil {
		logging.Log.Errorf("LEDGER: rank recompute after purchase %s failed: %v", result.Purchase.ID, err)
	}
	return result, nil
}

// CompleteByReference resolves the payment provider reference first.
func (l *Ledger) CompleteByReference(ctx context.Context, reference string, paidAmount int64) (*storage.CompletionResult, error) {
	purchase, err := l.purchases.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return l.Complete(ctx, purchase.ID, paidAmount)
}

func (l *Ledger) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	failed, err := l.purchases.Fail(ctx, id, reason)
	if err != nil {
		return err
	}
	if failed {
		logging.Log.Infof("LEDGER: purchase %s failed: %s", id, reason)
	}
	return nil
}

func (l *Ledger) FailByReference(ctx context.Context, reference, reason string) error {
	purchase, err := l.purchases.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	return l.Fail(ctx, purchase.ID, reason)
}
