package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/waitlist-api/internal/domain"
)

const recentEntryCount = 5

// csvHeader is the fixed export header; the column order is part of the
// download contract consumed by the dashboard.
var csvHeader = []string{"Email", "Status", "Signup Date", "Confirmed Date", "IP Address"}

type Service interface {
	Stats(ctx context.Context) (*domain.AdminStats, error)
	ListEntries(ctx context.Context, page, limit int, status, search string) ([]domain.WaitlistEntry, domain.Pagination, error)
	ExportCSV(ctx context.Context, status string) ([]byte, error)
	ArchiveCSV(ctx context.Context, status string) (string, error)
	DeleteEntry(ctx context.Context, entryID string) error
}

type entryStore interface {
	Scan(ctx context.Context) ([]domain.WaitlistEntry, error)
	GetByID(ctx context.Context, entryID string) (*domain.WaitlistEntry, error)
	HardDelete(ctx context.Context, email string) error
}

type archiveStore interface {
	PutCSV(ctx context.Context, key string, data []byte) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	repo    entryStore
	archive archiveStore // nil when no export bucket is configured
}

type ServiceDeps struct {
	EntryRepo entryStore
	Archive   archiveStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.EntryRepo, archive: deps.Archive}
}

func (s *service) Stats(ctx context.Context) (*domain.AdminStats, error) {
	entries, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := midnight.AddDate(0, 0, -6)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := &domain.AdminStats{}
	var active []domain.WaitlistEntry
	for i := range entries {
		e := &entries[i]
		switch e.Status {
		case domain.StatusConfirmed:
			stats.Overview.Confirmed++
		case domain.StatusPending:
			stats.Overview.Pending++
		case domain.StatusUnsubscribed:
			stats.Overview.Unsubscribed++
		}
		if !e.Active() {
			continue
		}
		stats.Overview.Total++
		active = append(active, *e)

		created := e.CreatedAt.In(now.Location())
		if !created.Before(midnight) {
			stats.Signups.Today++
		}
		if !created.Before(weekAgo) {
			stats.Signups.ThisWeek++
		}
		if !created.Before(monthStart) {
			stats.Signups.ThisMonth++
		}
	}

	// 7-day growth series, oldest bucket first, midnight-to-midnight.
	stats.Growth = make([]domain.DailyCount, 0, 7)
	for i := 6; i >= 0; i-- {
		dayStart := midnight.AddDate(0, 0, -i)
		dayEnd := dayStart.AddDate(0, 0, 1)
		count := 0
		for j := range active {
			created := active[j].CreatedAt.In(now.Location())
			if !created.Before(dayStart) && created.Before(dayEnd) {
				count++
			}
		}
		stats.Growth = append(stats.Growth, domain.DailyCount{
			Date:  dayStart.Format("2006-01-02"),
			Count: count,
		})
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	limit := recentEntryCount
	if len(active) < limit {
		limit = len(active)
	}
	stats.Recent = make([]domain.RecentEntry, 0, limit)
	for _, e := range active[:limit] {
		stats.Recent = append(stats.Recent, domain.RecentEntry{
			Email:     e.Email,
			Status:    e.Status,
			CreatedAt: e.CreatedAt,
		})
	}
	return stats, nil
}

func (s *service) ListEntries(ctx context.Context, page, limit int, status, search string) ([]domain.WaitlistEntry, domain.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	filtered, err := s.filtered(ctx, status, search)
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	total := len(filtered)
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
	return filtered[start:end], pagination, nil
}

// filtered returns all entries matching the status/search filters, sorted
// by createdAt descending. Listing and CSV export share this path so their
// row sets always agree.
func (s *service) filtered(ctx context.Context, status, search string) ([]domain.WaitlistEntry, error) {
	if status != "" && !domain.ValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, domain.ErrBadRequest)
	}
	entries, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(search)

	matched := make([]domain.WaitlistEntry, 0, len(entries))
	for _, e := range entries {
		if status != "" && e.Status != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Email), search) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *service) ExportCSV(ctx context.Context, status string) ([]byte, error) {
	entries, err := s.filtered(ctx, status, "")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		confirmedAt := "N/A"
		if e.ConfirmedAt != nil {
			confirmedAt = e.ConfirmedAt.Format(time.RFC3339)
		}
		ip := "N/A"
		if e.IPAddress != nil {
			ip = *e.IPAddress
		}
		row := []string{e.Email, e.Status, e.CreatedAt.Format(time.RFC3339), confirmedAt, ip}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ArchiveCSV writes the current export to the S3 bucket and returns a
// 15-minute presigned download URL.
func (s *service) ArchiveCSV(ctx context.Context, status string) (string, error) {
	if s.archive == nil {
		return "", fmt.Errorf("export archive is not configured: %w", domain.ErrBadRequest)
	}
	data, err := s.ExportCSV(ctx, status)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("exports/waitlist-%s.csv", time.Now().UTC().Format("20060102-150405"))
	if err := s.archive.PutCSV(ctx, key, data); err != nil {
		return "", err
	}
	return s.archive.PresignedURL(ctx, key, 15*time.Minute)
}

func (s *service) DeleteEntry(ctx context.Context, entryID string) error {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	return s.repo.HardDelete(ctx, entry.Email)
}
