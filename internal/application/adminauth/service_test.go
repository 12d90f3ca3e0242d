package adminauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/waitlist-api/internal/domain"
)

// --- mocks ---

type mockAdminStore struct{ mock.Mock }

func (m *mockAdminStore) GetByEmail(ctx context.Context, email string) (*domain.AdminAccount, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.AdminAccount); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAdminStore) UpdateLastLogin(ctx context.Context, email string, t time.Time) error {
	return m.Called(ctx, email, t).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(email, role string) (string, error) {
	args := m.Called(email, role)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func activeAccount(t *testing.T, email, password string) *domain.AdminAccount {
	t.Helper()
	acct := &domain.AdminAccount{Email: email, Role: domain.RoleAdmin, IsActive: true}
	require.NoError(t, acct.SetPassword(password))
	return acct
}

func loginReq(email, password string) domain.LoginRequest {
	return domain.LoginRequest{Email: email, Password: password}
}

// --- tests ---

func TestLogin_Success(t *testing.T) {
	repo := &mockAdminStore{}
	signer := &mockSigner{}
	acct := activeAccount(t, "admin@example.com", "hunter22")

	repo.On("GetByEmail", mock.Anything, "admin@example.com").Return(acct, nil)
	repo.On("UpdateLastLogin", mock.Anything, "admin@example.com", mock.Anything).Return(nil)
	signer.On("Sign", "admin@example.com", domain.RoleAdmin).Return("signed-token", nil)

	svc := NewService(ServiceDeps{AdminRepo: repo, Signer: signer})
	result, err := svc.Login(context.Background(), loginReq("admin@example.com", "hunter22"))

	require.NoError(t, err)
	assert.Equal(t, "signed-token", result.Token)
	assert.Equal(t, "admin@example.com", result.Email)
	assert.Equal(t, domain.RoleAdmin, result.Role)
	repo.AssertExpectations(t)
	signer.AssertExpectations(t)
}

func TestLogin_UnknownAccount(t *testing.T) {
	repo := &mockAdminStore{}
	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	svc := NewService(ServiceDeps{AdminRepo: repo, Signer: &mockSigner{}})
	_, err := svc.Login(context.Background(), loginReq("ghost@example.com", "whatever1"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := &mockAdminStore{}
	acct := activeAccount(t, "admin@example.com", "correct-password")
	repo.On("GetByEmail", mock.Anything, "admin@example.com").Return(acct, nil)

	svc := NewService(ServiceDeps{AdminRepo: repo, Signer: &mockSigner{}})
	_, err := svc.Login(context.Background(), loginReq("admin@example.com", "wrong-password"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// The failure message must not reveal whether the email is registered.
func TestLogin_NoAccountEnumeration(t *testing.T) {
	known := &mockAdminStore{}
	known.On("GetByEmail", mock.Anything, "admin@example.com").
		Return(activeAccount(t, "admin@example.com", "correct-password"), nil)
	unknown := &mockAdminStore{}
	unknown.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	svcKnown := NewService(ServiceDeps{AdminRepo: known, Signer: &mockSigner{}})
	svcUnknown := NewService(ServiceDeps{AdminRepo: unknown, Signer: &mockSigner{}})

	_, errKnown := svcKnown.Login(context.Background(), loginReq("admin@example.com", "wrong-password"))
	_, errUnknown := svcUnknown.Login(context.Background(), loginReq("ghost@example.com", "wrong-password"))

	require.Error(t, errKnown)
	require.Error(t, errUnknown)
	assert.Equal(t, errKnown.Error(), errUnknown.Error())
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	repo := &mockAdminStore{}
	acct := activeAccount(t, "admin@example.com", "hunter22")
	acct.IsActive = false
	repo.On("GetByEmail", mock.Anything, "admin@example.com").Return(acct, nil)

	svc := NewService(ServiceDeps{AdminRepo: repo, Signer: &mockSigner{}})
	_, err := svc.Login(context.Background(), loginReq("admin@example.com", "hunter22"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestLogin_LastLoginFailureDoesNotBlockLogin(t *testing.T) {
	repo := &mockAdminStore{}
	signer := &mockSigner{}
	acct := activeAccount(t, "admin@example.com", "hunter22")

	repo.On("GetByEmail", mock.Anything, "admin@example.com").Return(acct, nil)
	repo.On("UpdateLastLogin", mock.Anything, "admin@example.com", mock.Anything).
		Return(errors.New("dynamo unavailable"))
	signer.On("Sign", "admin@example.com", domain.RoleAdmin).Return("signed-token", nil)

	svc := NewService(ServiceDeps{AdminRepo: repo, Signer: signer})
	result, err := svc.Login(context.Background(), loginReq("admin@example.com", "hunter22"))

	require.NoError(t, err)
	assert.Equal(t, "signed-token", result.Token)
}

func TestLogin_NormalizesEmail(t *testing.T) {
	repo := &mockAdminStore{}
	signer := &mockSigner{}
	acct := activeAccount(t, "admin@example.com", "hunter22")

	repo.On("GetByEmail", mock.Anything, "admin@example.com").Return(acct, nil)
	repo.On("UpdateLastLogin", mock.Anything, "admin@example.com", mock.Anything).Return(nil)
	signer.On("Sign", "admin@example.com", domain.RoleAdmin).Return("signed-token", nil)

	svc := NewService(ServiceDeps{AdminRepo: repo, Signer: signer})
	_, err := svc.Login(context.Background(), loginReq(" Admin@Example.COM ", "hunter22"))

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
