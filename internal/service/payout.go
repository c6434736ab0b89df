package service

import (
	"fmt"
	"math/rand"
	"time"

	"pharmart/internal/domain"
	"pharmart/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutStore is the payout engine's view of the payout repository.
type PayoutStore interface {
	Create(tx *gorm.DB, p *models.Payout) error
	GetForUpdate(tx *gorm.DB, id uint) (*models.Payout, error)
	Save(tx *gorm.DB, p *models.Payout) error
	LockSupplier(tx *gorm.DB, supplierID uint) error
	ReferenceExists(ref string) (bool, error)
}

// MethodStore resolves payout methods for ownership/verification checks.
type MethodStore interface {
	GetByID(id uint) (*models.PayoutMethod, error)
}

// Ledger is the slice of the ledger service the payout engine needs.
type Ledger interface {
	RecordPayoutDebit(tx *gorm.DB, payout *models.Payout) (*models.Transaction, error)
	SpendableBalanceTx(tx *gorm.DB, supplierID uint) (int64, error)
}

// PayoutService drives the payout lifecycle:
//
//	pending -> processing -> completed
//	pending -> cancelled
//	processing -> failed
//
// completed, failed and cancelled are terminal.
type PayoutService struct {
	db      TxRunner
	payouts PayoutStore
	methods MethodStore
	ledger  Ledger
}

func NewPayoutService(db TxRunner, payouts PayoutStore, methods MethodStore, ledger Ledger) *PayoutService {
	return &PayoutService{db: db, payouts: payouts, methods: methods, ledger: ledger}
}

// Request validates and creates a pending payout. The supplier row is locked
// before the balance check so that two concurrent requests serialize: the
// second sees the first request's reservation and fails if it would overdraw.
func (s *PayoutService) Request(supplierID, methodID uint, amountCents int64, notes string) (*models.Payout, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	method, err := s.methods.GetByID(methodID)
	if err != nil {
		return nil, err
	}
	if method.SupplierID != supplierID {
		return nil, fmt.Errorf("%w: method %d does not belong to supplier %d", domain.ErrInvalidMethod, methodID, supplierID)
	}
	if !method.IsVerified {
		return nil, fmt.Errorf("%w: method %d is not verified", domain.ErrInvalidMethod, methodID)
	}

	ref, err := s.generatePayoutReference()
	if err != nil {
		return nil, err
	}

	payout := &models.Payout{
		Reference:      ref,
		SupplierID:     supplierID,
		PayoutMethodID: methodID,
		AmountCents:    amountCents,
		Status:         domain.PayoutStatusPending,
		Notes:          notes,
		RequestedAt:    time.Now(),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.payouts.LockSupplier(tx, supplierID); err != nil {
			return err
		}
		spendable, err := s.ledger.SpendableBalanceTx(tx, supplierID)
		if err != nil {
			return err
		}
		if amountCents > spendable {
			return fmt.Errorf("%w: requested %d, spendable %d", domain.ErrInsufficientBalance, amountCents, spendable)
		}
		return s.payouts.Create(tx, payout)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// Approve moves a pending payout to processing.
func (s *PayoutService) Approve(payoutID uint) (*models.Payout, error) {
	return s.transition(payoutID, func(p *models.Payout, now time.Time) error {
		if p.Status != domain.PayoutStatusPending {
			return transitionErr(p.Status, domain.PayoutStatusProcessing)
		}
		p.Status = domain.PayoutStatusProcessing
		p.ProcessedAt = &now
		return nil
	}, nil)
}

// Complete moves a processing payout to completed, records the admin who
// settled it and writes the ledger debit in the same transaction. A payout is
// never completed without its matching ledger entry.
func (s *PayoutService) Complete(payoutID, adminID uint) (*models.Payout, error) {
	return s.transition(payoutID, func(p *models.Payout, now time.Time) error {
		if p.Status != domain.PayoutStatusProcessing {
			return transitionErr(p.Status, domain.PayoutStatusCompleted)
		}
		p.Status = domain.PayoutStatusCompleted
		p.CompletedAt = &now
		p.AdminProcessedBy = &adminID
		return nil
	}, func(tx *gorm.DB, p *models.Payout) error {
		_, err := s.ledger.RecordPayoutDebit(tx, p)
		return err
	})
}

// Fail marks a processing payout failed. The reservation lapses with the
// status so the balance becomes spendable again; nothing was debited.
func (s *PayoutService) Fail(payoutID uint, reason string) (*models.Payout, error) {
	return s.transition(payoutID, func(p *models.Payout, now time.Time) error {
		if p.Status != domain.PayoutStatusProcessing {
			return transitionErr(p.Status, domain.PayoutStatusFailed)
		}
		p.Status = domain.PayoutStatusFailed
		p.FailureReason = reason
		return nil
	}, nil)
}

// Cancel withdraws a payout that is still pending.
func (s *PayoutService) Cancel(payoutID uint) (*models.Payout, error) {
	return s.transition(payoutID, func(p *models.Payout, now time.Time) error {
		if p.Status != domain.PayoutStatusPending {
			return transitionErr(p.Status, domain.PayoutStatusCancelled)
		}
		p.Status = domain.PayoutStatusCancelled
		return nil
	}, nil)
}

// transition loads the payout under a row lock, applies the status change and
// an optional coupled write, and saves, all in one transaction.
func (s *PayoutService) transition(
	payoutID uint,
	apply func(p *models.Payout, now time.Time) error,
	coupled func(tx *gorm.DB, p *models.Payout) error,
) (*models.Payout, error) {
	var payout *models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := s.payouts.GetForUpdate(tx, payoutID)
		if err != nil {
			return err
		}
		if err := apply(p, time.Now()); err != nil {
			return err
		}
		if err := s.payouts.Save(tx, p); err != nil {
			return err
		}
		if coupled != nil {
			if err := coupled(tx, p); err != nil {
				return err
			}
		}
		payout = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func transitionErr(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}

// generatePayoutReference draws PAY-NNNNN until unused, with the same bounded
// retry policy as ledger references.
func (s *PayoutService) generatePayoutReference() (string, error) {
	for i := 0; i < maxReferenceRetries; i++ {
		ref := fmt.Sprintf("%s-%05d", domain.PayoutReferencePrefix, rand.Intn(90000)+10000)
		exists, err := s.payouts.ReferenceExists(ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}
	return fmt.Sprintf("%s-%s", domain.PayoutReferencePrefix, uuid.New().String()[:8]), nil
}
