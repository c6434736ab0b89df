package service

import (
	"regexp"
	"testing"

	"pharmart/internal/domain"
	"pharmart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePayoutStore struct {
	payouts []*models.Payout
	nextID  uint
}

func (f *fakePayoutStore) Create(tx *gorm.DB, p *models.Payout) error {
	f.nextID++
	p.ID = f.nextID
	f.payouts = append(f.payouts, p)
	return nil
}

func (f *fakePayoutStore) GetForUpdate(tx *gorm.DB, id uint) (*models.Payout, error) {
	for _, p := range f.payouts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakePayoutStore) Save(tx *gorm.DB, p *models.Payout) error { return nil }

func (f *fakePayoutStore) LockSupplier(tx *gorm.DB, supplierID uint) error { return nil }

func (f *fakePayoutStore) ReferenceExists(ref string) (bool, error) {
	for _, p := range f.payouts {
		if p.Reference == ref {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePayoutStore) reservedSum(supplierID uint) int64 {
	var sum int64
	for _, p := range f.payouts {
		if p.SupplierID != supplierID {
			continue
		}
		if p.Status == domain.PayoutStatusPending || p.Status == domain.PayoutStatusProcessing {
			sum += p.AmountCents
		}
	}
	return sum
}

type fakeMethodStore struct {
	methods map[uint]*models.PayoutMethod
}

func (f *fakeMethodStore) GetByID(id uint) (*models.PayoutMethod, error) {
	m, ok := f.methods[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// fakeBalanceLedger computes spendable from a fixed available balance minus
// the store's live reservations, mirroring the settlement rule.
type fakeBalanceLedger struct {
	store     *fakePayoutStore
	available map[uint]int64
	debits    []*models.Payout
}

func (f *fakeBalanceLedger) SpendableBalanceTx(tx *gorm.DB, supplierID uint) (int64, error) {
	return f.available[supplierID] - f.store.reservedSum(supplierID), nil
}

func (f *fakeBalanceLedger) RecordPayoutDebit(tx *gorm.DB, payout *models.Payout) (*models.Transaction, error) {
	for _, p := range f.debits {
		if p.ID == payout.ID {
			return nil, domain.ErrInvalidTransition
		}
	}
	f.debits = append(f.debits, payout)
	return &models.Transaction{AmountCents: -payout.AmountCents}, nil
}

type payoutFixture struct {
	svc     *PayoutService
	store   *fakePayoutStore
	methods *fakeMethodStore
	ledger  *fakeBalanceLedger
}

func newPayoutFixture() *payoutFixture {
	store := &fakePayoutStore{}
	methods := &fakeMethodStore{methods: map[uint]*models.PayoutMethod{
		1: {SupplierID: 10, Type: domain.PayoutMethodMpesa, IsVerified: true},
		2: {SupplierID: 10, Type: domain.PayoutMethodBank, IsVerified: false},
		3: {SupplierID: 99, Type: domain.PayoutMethodBank, IsVerified: true},
	}}
	for id, m := range methods.methods {
		m.ID = id
	}
	ledger := &fakeBalanceLedger{store: store, available: map[uint]int64{10: 60_00}}
	return &payoutFixture{
		svc:     NewPayoutService(fakeTxRunner{}, store, methods, ledger),
		store:   store,
		methods: methods,
		ledger:  ledger,
	}
}

func TestRequestPayout(t *testing.T) {
	fx := newPayoutFixture()

	p, err := fx.svc.Request(10, 1, 60_00, "weekly sweep")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusPending, p.Status)
	assert.Equal(t, int64(60_00), p.AmountCents)
	assert.Regexp(t, regexp.MustCompile(`^PAY-\d{5}$`), p.Reference)
	assert.False(t, p.RequestedAt.IsZero())
}

func TestRequestPayoutValidation(t *testing.T) {
	fx := newPayoutFixture()

	_, err := fx.svc.Request(10, 1, 0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = fx.svc.Request(10, 2, 10_00, "")
	assert.ErrorIs(t, err, domain.ErrInvalidMethod, "unverified method")

	_, err = fx.svc.Request(10, 3, 10_00, "")
	assert.ErrorIs(t, err, domain.ErrInvalidMethod, "method owned by another supplier")

	_, err = fx.svc.Request(10, 404, 10_00, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRequestPayoutInsufficientBalance(t *testing.T) {
	fx := newPayoutFixture()

	_, err := fx.svc.Request(10, 1, 60_01, "")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Empty(t, fx.store.payouts)
}

func TestRequestPayoutHonorsReservations(t *testing.T) {
	fx := newPayoutFixture()

	// First request takes the full spendable balance.
	_, err := fx.svc.Request(10, 1, 60_00, "")
	require.NoError(t, err)

	// The pending request reserves the money, so a second one of any size
	// must be refused even though nothing has been debited yet.
	_, err = fx.svc.Request(10, 1, 10_00, "")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Len(t, fx.store.payouts, 1)
}

func TestPayoutLifecycle(t *testing.T) {
	fx := newPayoutFixture()
	p, err := fx.svc.Request(10, 1, 20_00, "")
	require.NoError(t, err)

	approved, err := fx.svc.Approve(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusProcessing, approved.Status)
	assert.NotNil(t, approved.ProcessedAt)

	completed, err := fx.svc.Complete(p.ID, 77)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.AdminProcessedBy)
	assert.Equal(t, uint(77), *completed.AdminProcessedBy)
	assert.Len(t, fx.ledger.debits, 1, "completion writes exactly one ledger debit")
}

func TestPayoutIllegalTransitions(t *testing.T) {
	fx := newPayoutFixture()
	p, err := fx.svc.Request(10, 1, 20_00, "")
	require.NoError(t, err)

	// pending cannot be completed or failed without going through processing.
	_, err = fx.svc.Complete(p.ID, 77)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = fx.svc.Fail(p.ID, "gateway down")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = fx.svc.Approve(p.ID)
	require.NoError(t, err)

	// processing cannot be cancelled.
	_, err = fx.svc.Cancel(p.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = fx.svc.Complete(p.ID, 77)
	require.NoError(t, err)

	// completed is terminal: no double-complete, no fail, no cancel.
	_, err = fx.svc.Complete(p.ID, 77)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = fx.svc.Fail(p.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = fx.svc.Cancel(p.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Len(t, fx.ledger.debits, 1)
}

func TestPayoutCancel(t *testing.T) {
	fx := newPayoutFixture()
	p, err := fx.svc.Request(10, 1, 20_00, "")
	require.NoError(t, err)

	cancelled, err := fx.svc.Cancel(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusCancelled, cancelled.Status)

	// The reservation lapses with the cancellation.
	assert.Equal(t, int64(0), fx.store.reservedSum(10))
	_, err = fx.svc.Request(10, 1, 60_00, "")
	assert.NoError(t, err)
}

func TestPayoutFailReleasesReservation(t *testing.T) {
	fx := newPayoutFixture()
	p, err := fx.svc.Request(10, 1, 60_00, "")
	require.NoError(t, err)
	_, err = fx.svc.Approve(p.ID)
	require.NoError(t, err)

	failed, err := fx.svc.Fail(p.ID, "account closed")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusFailed, failed.Status)
	assert.Equal(t, "account closed", failed.FailureReason)
	assert.Empty(t, fx.ledger.debits, "failed payouts debit nothing")

	// The full balance is spendable again.
	spendable, err := fx.ledger.SpendableBalanceTx(nil, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(60_00), spendable)
}
