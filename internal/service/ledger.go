package service

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"

	"pharmart/internal/domain"
	"pharmart/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxReferenceRetries bounds the generate-and-check loop. Collisions are rare
// (5-digit space against a small table) so exhaustion means something is badly
// wrong; the uuid fallback keeps the operation from failing outright.
const maxReferenceRetries = 10

var ErrInvalidAmount = errors.New("invalid amount")

// TxRunner is the slice of *gorm.DB the services need to open transactions.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// TransactionStore is the ledger's view of the transaction repository. A nil
// tx addresses the base connection.
type TransactionStore interface {
	Create(tx *gorm.DB, t *models.Transaction) error
	SourceExists(tx *gorm.DB, refType string, refID uint, txType string) (bool, error)
	ReferenceExists(tx *gorm.DB, ref string) (bool, error)
	CompletedSum(tx *gorm.DB, supplierID uint) (int64, error)
}

// ReservationStore exposes the sum of payouts that are requested but not yet
// settled (pending or processing).
type ReservationStore interface {
	ReservedSum(tx *gorm.DB, supplierID uint) (int64, error)
}

// SupplierBalance is the settlement view of one supplier's money.
// Spendable = Available - Reserved, and is what new payout requests are
// checked against so pending requests cannot double-spend.
type SupplierBalance struct {
	AvailableCents int64 `json:"available_cents"`
	ReservedCents  int64 `json:"reserved_cents"`
	SpendableCents int64 `json:"spendable_cents"`
}

// LedgerService owns ledger entry creation and balance computation.
type LedgerService struct {
	db           TxRunner
	transactions TransactionStore
	payouts      ReservationStore
}

func NewLedgerService(db TxRunner, transactions TransactionStore, payouts ReservationStore) *LedgerService {
	return &LedgerService{db: db, transactions: transactions, payouts: payouts}
}

// RecordOrderIncome credits the supplier for a paid order, exactly once per
// order. Re-invocation for the same order is a no-op returning nil.
func (s *LedgerService) RecordOrderIncome(order *models.Order) (*models.Transaction, error) {
	var entry *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.RecordOrderIncomeTx(tx, order)
		return err
	})
	return entry, err
}

// RecordOrderIncomeTx is RecordOrderIncome inside an existing transaction, for
// callers that must couple the credit with other writes (e.g. marking the
// order paid).
func (s *LedgerService) RecordOrderIncomeTx(tx *gorm.DB, order *models.Order) (*models.Transaction, error) {
	exists, err := s.transactions.SourceExists(tx, domain.ReferenceTypeOrder, order.ID, domain.TransactionTypeOrderIncome)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}
	ref, err := s.generateReference(tx, domain.TransactionReferencePrefix)
	if err != nil {
		return nil, err
	}
	entry := &models.Transaction{
		Reference:     ref,
		SupplierID:    order.SupplierID,
		Type:          domain.TransactionTypeOrderIncome,
		AmountCents:   order.TotalCents,
		ReferenceType: domain.ReferenceTypeOrder,
		ReferenceID:   order.ID,
		Status:        domain.TransactionStatusCompleted,
		Description:   fmt.Sprintf("Income from order %s", order.OrderReference),
	}
	if err := s.transactions.Create(tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordPayoutDebit writes the debit entry for a payout reaching completed.
// Must run inside the same transaction as the payout status change so a
// completed payout and its ledger entry exist together or not at all.
func (s *LedgerService) RecordPayoutDebit(tx *gorm.DB, payout *models.Payout) (*models.Transaction, error) {
	exists, err := s.transactions.SourceExists(tx, domain.ReferenceTypePayout, payout.ID, domain.TransactionTypePayout)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: payout %s already has a ledger entry", domain.ErrInvalidTransition, payout.Reference)
	}
	ref, err := s.generateReference(tx, domain.TransactionReferencePrefix)
	if err != nil {
		return nil, err
	}
	entry := &models.Transaction{
		Reference:     ref,
		SupplierID:    payout.SupplierID,
		Type:          domain.TransactionTypePayout,
		AmountCents:   -payout.AmountCents,
		ReferenceType: domain.ReferenceTypePayout,
		ReferenceID:   payout.ID,
		Status:        domain.TransactionStatusCompleted,
		Description:   fmt.Sprintf("Payout %s", payout.Reference),
	}
	if err := s.transactions.Create(tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordAdjustment writes a manual credit or debit against a supplier, e.g.
// a refund clawback. Positive amounts credit the supplier.
func (s *LedgerService) RecordAdjustment(supplierID uint, amountCents int64, txType, description string) (*models.Transaction, error) {
	if amountCents == 0 {
		return nil, ErrInvalidAmount
	}
	if txType != domain.TransactionTypeRefund && txType != domain.TransactionTypeAdjustment {
		return nil, fmt.Errorf("%w: unsupported adjustment type %q", ErrInvalidAmount, txType)
	}
	var entry *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ref, err := s.generateReference(tx, domain.TransactionReferencePrefix)
		if err != nil {
			return err
		}
		entry = &models.Transaction{
			Reference:   ref,
			SupplierID:  supplierID,
			Type:        txType,
			AmountCents: amountCents,
			Status:      domain.TransactionStatusCompleted,
			Description: description,
		}
		return s.transactions.Create(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Balance computes the supplier's available, reserved and spendable balances.
func (s *LedgerService) Balance(supplierID uint) (*SupplierBalance, error) {
	return s.balance(nil, supplierID)
}

// SpendableBalanceTx reads the spendable balance inside a transaction that
// already holds the supplier lock.
func (s *LedgerService) SpendableBalanceTx(tx *gorm.DB, supplierID uint) (int64, error) {
	b, err := s.balance(tx, supplierID)
	if err != nil {
		return 0, err
	}
	return b.SpendableCents, nil
}

func (s *LedgerService) balance(tx *gorm.DB, supplierID uint) (*SupplierBalance, error) {
	available, err := s.transactions.CompletedSum(tx, supplierID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.payouts.ReservedSum(tx, supplierID)
	if err != nil {
		return nil, err
	}
	return &SupplierBalance{
		AvailableCents: available,
		ReservedCents:  reserved,
		SpendableCents: available - reserved,
	}, nil
}

// generateReference draws PREFIX-NNNNN references until one is unused. The
// PAY/TXN reference spaces are collision-checked against their own tables.
func (s *LedgerService) generateReference(tx *gorm.DB, prefix string) (string, error) {
	for i := 0; i < maxReferenceRetries; i++ {
		ref := fmt.Sprintf("%s-%05d", prefix, rand.Intn(90000)+10000)
		exists, err := s.transactions.ReferenceExists(tx, ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}
	// Retries exhausted: fall back to a uuid-derived suffix which cannot
	// collide in practice.
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8]), nil
}
