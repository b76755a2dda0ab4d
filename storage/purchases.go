package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompletionResult reports what a completion attempt did. Applied is false
// for duplicate deliveries, which are absorbed as no-ops.
type CompletionResult struct {
	Purchase  *VotePurchase
	Applied   bool
	Unapplied []PurchaseItem
}

type VotePurchaseStorage interface {
	Create(ctx context.Context, purchase *VotePurchase) error
	Get(ctx context.Context, id uuid.UUID) (*VotePurchase, error)
	GetByReference(ctx context.Context, reference string) (*VotePurchase, error)
	Complete(ctx context.Context, id uuid.UUID) (*CompletionResult, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	ListByContact(ctx context.Context, contact string) ([]*VotePurchase, error)
	CompletedTotals(ctx context.Context) (votes int64, revenue int64, err error)
	UniqueVoters(ctx context.Context) (int64, error)
}

type GormVotePurchaseStorage struct {
	DB *gorm.DB
}

func (s *GormVotePurchaseStorage) Create(ctx context.Context, purchase *VotePurchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	return s.DB.WithContext(ctx).Create(purchase).Error
}

func (s *GormVotePurchaseStorage) Get(ctx context.Context, id uuid.UUID) (*VotePurchase, error) {
	var purchase VotePurchase
	err := s.DB.WithContext(ctx).First(&purchase, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (s *GormVotePurchaseStorage) GetByReference(ctx context.Context, reference string) (*VotePurchase, error) {
	var purchase VotePurchase
	err := s.DB.WithContext(ctx).First(&purchase, "reference = ?", reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// Complete flips the purchase to completed and applies its votes in one
// transaction. The conditional status update is the idempotency guard: only
// the invocation that wins the pending->completed transition applies votes,
// every later delivery of the same signal is a no-op.
func (s *GormVotePurchaseStorage) Complete(ctx context.Context, id uuid.UUID) (*CompletionResult, error) {
	result := &CompletionResult{}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var purchase VotePurchase
		if err := tx.First(&purchase, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return err
		}

		now := time.Now().UTC()
		res := tx.Model(&VotePurchase{}).
			Where("id = ? AND status = ?", id, PurchasePending).
			Updates(map[string]any{"status": PurchaseCompleted, "completed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// The pre-read can be stale: a concurrent delivery may have won the
			// pending->completed transition after our read. Re-read for the
			// settled status before deciding duplicate vs terminal.
			if err := tx.First(&purchase, "id = ?", id).Error; err != nil {
				return err
			}
			switch purchase.Status {
			case PurchaseCompleted:
				// Duplicate delivery, absorb silently.
				result.Purchase = &purchase
				return nil
			default:
				return ErrTerminalStatus
			}
		}

		var items []PurchaseItem
		if err := json.Unmarshal(purchase.Items, &items); err != nil {
			return err
		}

		for _, item := range items {
			res := tx.Model(&Artist{}).
				Where("id = ? AND deleted_at IS NULL", item.ArtistID).
				Updates(map[string]any{
					"total_votes":       gorm.Expr("total_votes + ?", item.TotalVotes),
					"total_vote_amount": gorm.Expr("total_vote_amount + ?", item.TotalPrice),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				result.Unapplied = append(result.Unapplied, item)
				payload, _ := json.Marshal(item)
				if err := tx.Create(&LedgerEvent{
					EventType:  "reconcile_required",
					EntityType: "purchase",
					EntityID:   purchase.ID.String(),
					Payload:    payload,
				}).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Create(&LedgerEvent{
			EventType:  "purchase_completed",
			EntityType: "purchase",
			EntityID:   purchase.ID.String(),
			Payload:    purchase.Items,
		}).Error; err != nil {
			return err
		}

		purchase.Status = PurchaseCompleted
		purchase.CompletedAt = &now
		result.Purchase = &purchase
		result.Applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Fail marks a pending purchase failed. Returns false without error when the
// purchase already failed (duplicate failure callback).
func (s *GormVotePurchaseStorage) Fail(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&VotePurchase{}).
		Where("id = ? AND status = ?", id, PurchasePending).
		Updates(map[string]any{"status": PurchaseFailed, "failed_at": now, "failure_reason": reason})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	purchase, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if purchase.Status == PurchaseCompleted {
		return false, ErrTerminalStatus
	}
	return false, nil
}

func (s *GormVotePurchaseStorage) ListByContact(ctx context.Context, contact string) ([]*VotePurchase, error) {
	var purchases []*VotePurchase
	err := s.DB.WithContext(ctx).
		Where("contact = ?", contact).
		Order("created_at desc").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *GormVotePurchaseStorage) CompletedTotals(ctx context.Context) (int64, int64, error) {
	type row struct {
		Votes   int64
		Revenue int64
	}
	var r row
	err := s.DB.WithContext(ctx).Model(&VotePurchase{}).
		Select("COALESCE(SUM(total_votes), 0) AS votes, COALESCE(SUM(total_price), 0) AS revenue").
		Where("status = ?", PurchaseCompleted).
		Scan(&r).Error
	if err != nil {
		return 0, 0, err
	}
	return r.Votes, r.Revenue, nil
}

func (s *GormVotePurchaseStorage) UniqueVoters(ctx context.Context) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&VotePurchase{}).
		Where("status = ?", PurchaseCompleted).
		Distinct("contact").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
