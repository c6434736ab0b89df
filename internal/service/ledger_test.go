package service

import (
	"database/sql"
	"regexp"
	"testing"

	"pharmart/internal/domain"
	"pharmart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeTxRunner runs the closure directly; the fakes below ignore tx.
type fakeTxRunner struct{}

func (fakeTxRunner) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	return fc(nil)
}

type fakeTransactionStore struct {
	entries []*models.Transaction
	// refCollisions makes the first N ReferenceExists calls report a hit.
	refCollisions int
}

func (f *fakeTransactionStore) Create(tx *gorm.DB, t *models.Transaction) error {
	cp := *t
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeTransactionStore) SourceExists(tx *gorm.DB, refType string, refID uint, txType string) (bool, error) {
	for _, e := range f.entries {
		if e.ReferenceType == refType && e.ReferenceID == refID && e.Type == txType {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTransactionStore) ReferenceExists(tx *gorm.DB, ref string) (bool, error) {
	if f.refCollisions > 0 {
		f.refCollisions--
		return true, nil
	}
	for _, e := range f.entries {
		if e.Reference == ref {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTransactionStore) CompletedSum(tx *gorm.DB, supplierID uint) (int64, error) {
	var sum int64
	for _, e := range f.entries {
		if e.SupplierID == supplierID && e.Status == domain.TransactionStatusCompleted {
			sum += e.AmountCents
		}
	}
	return sum, nil
}

type fakeReservationStore struct {
	reserved map[uint]int64
}

func (f *fakeReservationStore) ReservedSum(tx *gorm.DB, supplierID uint) (int64, error) {
	return f.reserved[supplierID], nil
}

func newLedgerFixture() (*LedgerService, *fakeTransactionStore, *fakeReservationStore) {
	txs := &fakeTransactionStore{}
	res := &fakeReservationStore{reserved: map[uint]int64{}}
	return NewLedgerService(fakeTxRunner{}, txs, res), txs, res
}

var txnRefPattern = regexp.MustCompile(`^TXN-\d{5}$`)

func TestRecordOrderIncome(t *testing.T) {
	svc, store, _ := newLedgerFixture()
	order := &models.Order{SupplierID: 7, TotalCents: 250_00, OrderReference: "ORD-abc123"}
	order.ID = 42

	entry, err := svc.RecordOrderIncome(order)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Regexp(t, txnRefPattern, entry.Reference)
	assert.Equal(t, uint(7), entry.SupplierID)
	assert.Equal(t, domain.TransactionTypeOrderIncome, entry.Type)
	assert.Equal(t, int64(250_00), entry.AmountCents)
	assert.Equal(t, domain.ReferenceTypeOrder, entry.ReferenceType)
	assert.Equal(t, uint(42), entry.ReferenceID)
	assert.Equal(t, domain.TransactionStatusCompleted, entry.Status)
	assert.Len(t, store.entries, 1)
}

func TestRecordOrderIncomeIdempotent(t *testing.T) {
	svc, store, _ := newLedgerFixture()
	order := &models.Order{SupplierID: 7, TotalCents: 100_00, OrderReference: "ORD-dup"}
	order.ID = 9

	first, err := svc.RecordOrderIncome(order)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Re-crediting the same order is a silent no-op.
	second, err := svc.RecordOrderIncome(order)
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Len(t, store.entries, 1)
}

func TestGenerateReferenceRetriesOnCollision(t *testing.T) {
	svc, store, _ := newLedgerFixture()
	store.refCollisions = 3

	ref, err := svc.generateReference(nil, domain.TransactionReferencePrefix)
	require.NoError(t, err)
	assert.Regexp(t, txnRefPattern, ref)
}

func TestGenerateReferenceFallsBackAfterRetries(t *testing.T) {
	svc, store, _ := newLedgerFixture()
	store.refCollisions = maxReferenceRetries

	ref, err := svc.generateReference(nil, domain.TransactionReferencePrefix)
	require.NoError(t, err)
	assert.NotRegexp(t, txnRefPattern, ref)
	assert.Regexp(t, `^TXN-[0-9a-f]{8}$`, ref)
}

func TestRecordPayoutDebit(t *testing.T) {
	svc, store, _ := newLedgerFixture()
	payout := &models.Payout{Reference: "PAY-12345", SupplierID: 3, AmountCents: 40_00}
	payout.ID = 11

	entry, err := svc.RecordPayoutDebit(nil, payout)
	require.NoError(t, err)
	assert.Equal(t, int64(-40_00), entry.AmountCents)
	assert.Equal(t, domain.TransactionTypePayout, entry.Type)
	assert.Equal(t, domain.ReferenceTypePayout, entry.ReferenceType)
	assert.Equal(t, uint(11), entry.ReferenceID)

	// A second debit for the same payout must be refused, not duplicated.
	_, err = svc.RecordPayoutDebit(nil, payout)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Len(t, store.entries, 1)
}

func TestRecordAdjustment(t *testing.T) {
	svc, _, _ := newLedgerFixture()

	_, err := svc.RecordAdjustment(1, 0, domain.TransactionTypeAdjustment, "noop")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordAdjustment(1, 10_00, domain.TransactionTypeOrderIncome, "wrong type")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	entry, err := svc.RecordAdjustment(1, -15_00, domain.TransactionTypeRefund, "refund clawback")
	require.NoError(t, err)
	assert.Equal(t, int64(-15_00), entry.AmountCents)
	assert.Equal(t, domain.TransactionTypeRefund, entry.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, entry.Status)
}

func TestBalance(t *testing.T) {
	svc, store, res := newLedgerFixture()
	store.entries = []*models.Transaction{
		{SupplierID: 5, AmountCents: 100_00, Status: domain.TransactionStatusCompleted},
		{SupplierID: 5, AmountCents: -30_00, Status: domain.TransactionStatusCompleted},
		{SupplierID: 5, AmountCents: 999_00, Status: domain.TransactionStatusPending}, // not settled yet
		{SupplierID: 6, AmountCents: 50_00, Status: domain.TransactionStatusCompleted},
	}
	res.reserved[5] = 20_00

	b, err := svc.Balance(5)
	require.NoError(t, err)
	assert.Equal(t, int64(70_00), b.AvailableCents)
	assert.Equal(t, int64(20_00), b.ReservedCents)
	assert.Equal(t, int64(50_00), b.SpendableCents)
	assert.LessOrEqual(t, b.SpendableCents, b.AvailableCents)
}

func TestSpendableBalanceTx(t *testing.T) {
	svc, store, res := newLedgerFixture()
	store.entries = []*models.Transaction{
		{SupplierID: 2, AmountCents: 60_00, Status: domain.TransactionStatusCompleted},
	}
	res.reserved[2] = 60_00

	spendable, err := svc.SpendableBalanceTx(nil, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), spendable)
}
