package waitlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/waitlist-api/internal/domain"
	"github.com/waitlist-api/internal/infrastructure/smtp"
	"github.com/waitlist-api/internal/infrastructure/sns"
	"github.com/waitlist-api/internal/pkg/id"
	"github.com/waitlist-api/internal/pkg/validate"
)

type Service interface {
	Join(ctx context.Context, req domain.JoinRequest) (*domain.JoinResult, error)
	Stats(ctx context.Context) (*domain.WaitlistStats, error)
	ListAll(ctx context.Context, page, limit int) ([]domain.WaitlistEntry, domain.Pagination, error)
	Unsubscribe(ctx context.Context, email string) error
	Confirm(ctx context.Context, token string) error
}

type entryStore interface {
	Create(ctx context.Context, e *domain.WaitlistEntry) error
	Put(ctx context.Context, e *domain.WaitlistEntry) error
	GetByEmail(ctx context.Context, email string) (*domain.WaitlistEntry, error)
	Scan(ctx context.Context) ([]domain.WaitlistEntry, error)
	CountActiveAt(ctx context.Context, t time.Time) (int, error)
}

type service struct {
	repo   entryStore
	mailer smtp.Mailer
	alerts sns.AlertPublisher // nil when signup alerts are disabled
}

type ServiceDeps struct {
	EntryRepo entryStore
	Mailer    smtp.Mailer
	Alerts    sns.AlertPublisher
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:   deps.EntryRepo,
		mailer: deps.Mailer,
		alerts: deps.Alerts,
	}
}

func (s *service) Join(ctx context.Context, req domain.JoinRequest) (*domain.JoinResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	email := validate.NormalizeEmail(req.Email)
	if err := validate.Email(email); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		if existing.Status == domain.StatusUnsubscribed {
			return s.reactivate(ctx, existing)
		}
		// Already signed up: succeed without mutating or re-sending mail.
		return &domain.JoinResult{Outcome: domain.JoinAlreadyMember, Email: email}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// Second precision keeps the stored RFC3339 timestamps fixed-width, so
	// the <= comparison in CountActiveAt stays correct.
	now := time.Now().UTC().Truncate(time.Second)
	entry := &domain.WaitlistEntry{
		Email:          email,
		EntryID:        id.New(),
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
		ReferralSource: req.ReferralSource,
		Status:         domain.StatusConfirmed,
		ConfirmedAt:    &now,
		CreatedAt:      now,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost an insert race to a concurrent join for the same email.
			return &domain.JoinResult{Outcome: domain.JoinAlreadyMember, Email: email}, nil
		}
		return nil, err
	}

	sent := s.sendWelcome(email)
	s.notifyAdmins(ctx, email)

	position, err := s.repo.CountActiveAt(ctx, entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.JoinResult{
		Outcome:   domain.JoinCreated,
		Email:     email,
		Position:  position,
		EmailSent: sent,
	}, nil
}

func (s *service) reactivate(ctx context.Context, entry *domain.WaitlistEntry) (*domain.JoinResult, error) {
	entry.Status = domain.StatusPending
	entry.ConfirmedAt = nil
	if err := s.repo.Put(ctx, entry); err != nil {
		return nil, err
	}
	sent := s.sendWelcome(entry.Email)
	position, err := s.repo.CountActiveAt(ctx, entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.JoinResult{
		Outcome:   domain.JoinReactivated,
		Email:     entry.Email,
		Position:  position,
		EmailSent: sent,
	}, nil
}

// sendWelcome attempts delivery and reports whether it succeeded. A signup
// must never fail because the mail transport is down.
func (s *service) sendWelcome(email string) bool {
	if err := s.mailer.SendWelcome(email); err != nil {
		slog.Warn("welcome email failed", "email", email, "err", err)
		return false
	}
	return true
}

func (s *service) notifyAdmins(ctx context.Context, email string) {
	if err := s.mailer.SendAdminNotification(email); err != nil {
		slog.Warn("admin notification email failed", "err", err)
	}
	if s.alerts != nil {
		if err := s.alerts.PublishSignup(ctx, email); err != nil {
			slog.Warn("signup alert publish failed", "err", err)
		}
	}
}

func (s *service) Stats(ctx context.Context) (*domain.WaitlistStats, error) {
	entries, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats := &domain.WaitlistStats{}
	for i := range entries {
		e := &entries[i]
		if !e.Active() {
			continue
		}
		stats.Total++
		if e.Status == domain.StatusConfirmed {
			stats.Confirmed++
		}
		if !e.CreatedAt.Before(midnight) {
			stats.Today++
		}
	}
	return stats, nil
}

func (s *service) ListAll(ctx context.Context, page, limit int) ([]domain.WaitlistEntry, domain.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	entries, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	active := make([]domain.WaitlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.Active() {
			active = append(active, e)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})

	total := len(active)
	pages := int(math.Ceil(float64(total) / float64(limit)))
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pagination := domain.Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
	return active[start:end], pagination, nil
}

func (s *service) Unsubscribe(ctx context.Context, email string) error {
	email = validate.NormalizeEmail(email)
	entry, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("email not found on waitlist: %w", domain.ErrNotFound)
		}
		return err
	}
	entry.Status = domain.StatusUnsubscribed
	return s.repo.Put(ctx, entry)
}

// Confirm is a placeholder: entries are created already confirmed, so no
// token is ever issued or looked up here. The endpoint stays for contract
// compatibility with existing confirmation links.
func (s *service) Confirm(_ context.Context, _ string) error {
	return nil
}
