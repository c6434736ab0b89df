package service

import (
	"testing"
	"time"

	"pharmart/config"
	"pharmart/internal/auth"
	"pharmart/internal/domain"
	"pharmart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
	byID    map[uint]*models.User
	nextID  uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]*models.User{}, byID: map[uint]*models.User{}}
}

func (f *fakeUserStore) Create(u *models.User) error {
	f.nextID++
	u.ID = f.nextID
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserStore) GetByID(id uint) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByEmail(email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func testAuthConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "pharmart-test",
		},
	}
}

func TestRegister(t *testing.T) {
	cfg := testAuthConfig()
	store := newFakeUserStore()
	svc := NewAuthService(cfg, store)

	u, access, refresh, err := svc.Register("Jane", "jane@chemist.co.ke", "s3cret!", domain.RoleSupplier, "Jane's Chemist")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupplier, u.Role)
	assert.False(t, u.IsVerified, "suppliers start unverified")
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, "s3cret!", u.PasswordHash)

	claims, err := auth.ParseAccessToken(&cfg.JWT, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, domain.RoleSupplier, claims.Role)
}

func TestRegisterUnknownRoleDefaultsToCustomer(t *testing.T) {
	svc := NewAuthService(testAuthConfig(), newFakeUserStore())
	u, _, _, err := svc.Register("Bob", "bob@example.com", "pw123456", "SUPERUSER", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, u.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(testAuthConfig(), newFakeUserStore())
	_, _, _, err := svc.Register("Jane", "jane@example.com", "pw123456", domain.RoleCustomer, "")
	require.NoError(t, err)

	_, _, _, err = svc.Register("Impostor", "jane@example.com", "other", domain.RoleCustomer, "")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLogin(t *testing.T) {
	svc := NewAuthService(testAuthConfig(), newFakeUserStore())
	_, _, _, err := svc.Register("Jane", "jane@example.com", "pw123456", domain.RoleCustomer, "")
	require.NoError(t, err)

	u, access, _, err := svc.Login("jane@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.NotEmpty(t, access)

	_, _, _, err = svc.Login("jane@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCreds)

	_, _, _, err = svc.Login("nobody@example.com", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestRefresh(t *testing.T) {
	svc := NewAuthService(testAuthConfig(), newFakeUserStore())
	_, _, refresh, err := svc.Register("Jane", "jane@example.com", "pw123456", domain.RoleCustomer, "")
	require.NoError(t, err)

	u, access, newRefresh, err := svc.Refresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, newRefresh)

	_, _, _, err = svc.Refresh("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
