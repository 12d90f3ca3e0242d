package adminauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/waitlist-api/internal/domain"
	"github.com/waitlist-api/internal/pkg/validate"
)

// genericLoginError is returned for both unknown accounts and wrong
// passwords so the response never reveals whether an email is registered.
const genericLoginError = "invalid email or password"

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error)
}

type adminStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.AdminAccount, error)
	UpdateLastLogin(ctx context.Context, email string, t time.Time) error
}

type tokenSigner interface {
	Sign(email, role string) (string, error)
}

type service struct {
	repo   adminStore
	signer tokenSigner
}

type ServiceDeps struct {
	AdminRepo adminStore
	Signer    tokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.AdminRepo, signer: deps.Signer}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	email := validate.NormalizeEmail(req.Email)

	acct, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", genericLoginError, domain.ErrUnauthorized)
		}
		return nil, err
	}
	if !acct.CheckPassword(req.Password) {
		return nil, fmt.Errorf("%s: %w", genericLoginError, domain.ErrUnauthorized)
	}
	if !acct.IsActive {
		return nil, fmt.Errorf("account is deactivated: %w", domain.ErrForbidden)
	}

	if err := s.repo.UpdateLastLogin(ctx, acct.Email, time.Now().UTC()); err != nil {
		slog.Warn("failed to update last login", "email", acct.Email, "err", err)
	}

	token, err := s.signer.Sign(acct.Email, acct.Role)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResult{Token: token, Email: acct.Email, Role: acct.Role}, nil
}
