package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/waitlist-api/internal/config"
	"github.com/waitlist-api/internal/domain"
	jwtinfra "github.com/waitlist-api/internal/infrastructure/jwt"
	"github.com/waitlist-api/internal/transport/http/middleware"
)

// --- mocks ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*domain.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAdminSvc struct{ mock.Mock }

func (m *mockAdminSvc) Stats(ctx context.Context) (*domain.AdminStats, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).(*domain.AdminStats); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdminSvc) ListEntries(ctx context.Context, page, limit int, status, search string) ([]domain.WaitlistEntry, domain.Pagination, error) {
	args := m.Called(ctx, page, limit, status, search)
	return args.Get(0).([]domain.WaitlistEntry), args.Get(1).(domain.Pagination), args.Error(2)
}

func (m *mockAdminSvc) ExportCSV(ctx context.Context, status string) ([]byte, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockAdminSvc) ArchiveCSV(ctx context.Context, status string) (string, error) {
	args := m.Called(ctx, status)
	return args.String(0), args.Error(1)
}

func (m *mockAdminSvc) DeleteEntry(ctx context.Context, entryID string) error {
	return m.Called(ctx, entryID).Error(0)
}

// --- helpers ---

func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider(&config.Config{JWTSecret: "handler-test-secret", JWTExpiryHours: 1})
	require.NoError(t, err)
	return p
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target string, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign("admin@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// --- Login tests ---

func TestAdminLogin_SetsCookie(t *testing.T) {
	authSvc := &mockAuthSvc{}
	authSvc.On("Login", mock.Anything, mock.Anything).Return(&domain.LoginResult{
		Token: "signed-token", Email: "admin@example.com", Role: domain.RoleAdmin,
	}, nil)

	h := NewAdminHandler(authSvc, &mockAdminSvc{}, false)
	body, _ := json.Marshal(domain.LoginRequest{Email: "admin@example.com", Password: "hunter22"})
	r := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.TokenCookieName, cookies[0].Name)
	assert.Equal(t, "signed-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	env := decodeEnvelope(t, rr)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, "signed-token", data["token"])
	assert.Equal(t, domain.RoleAdmin, data["role"])
}

func TestAdminLogin_BadCredentials(t *testing.T) {
	authSvc := &mockAuthSvc{}
	authSvc.On("Login", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized))

	h := NewAdminHandler(authSvc, &mockAdminSvc{}, false)
	body, _ := json.Marshal(domain.LoginRequest{Email: "admin@example.com", Password: "wrong"})
	r := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, rr.Result().Cookies())
}

func TestAdminLogin_InvalidBody(t *testing.T) {
	h := NewAdminHandler(&mockAuthSvc{}, &mockAdminSvc{}, false)
	r := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- Verify tests ---

func TestAdminVerify_WithToken(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewAdminHandler(&mockAuthSvc{}, &mockAdminSvc{}, false)

	r := bearerReq(t, p, http.MethodGet, "/api/admin/verify", nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Verify), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, "admin@example.com", data["email"])
	assert.Equal(t, domain.RoleAdmin, data["role"])
}

func TestAdminVerify_NoClaims(t *testing.T) {
	h := NewAdminHandler(&mockAuthSvc{}, &mockAdminSvc{}, false)
	r := httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	rr := httptest.NewRecorder()
	h.Verify(rr, r) // called directly, no claims in context
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// --- ListEntries / ExportCSV tests ---

func TestAdminListEntries_PassesFilters(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("ListEntries", mock.Anything, 1, 50, "confirmed", "alice").
		Return([]domain.WaitlistEntry{}, domain.Pagination{Page: 1, Limit: 50}, nil)

	h := NewAdminHandler(&mockAuthSvc{}, svc, false)
	r := httptest.NewRequest(http.MethodGet, "/api/admin/entries?status=confirmed&search=alice", nil)
	rr := httptest.NewRecorder()
	h.ListEntries(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestAdminExportCSV_Headers(t *testing.T) {
	svc := &mockAdminSvc{}
	csv := "Email,Status,Signup Date,Confirmed Date,IP Address\n"
	svc.On("ExportCSV", mock.Anything, "").Return([]byte(csv), nil)

	h := NewAdminHandler(&mockAuthSvc{}, svc, false)
	r := httptest.NewRequest(http.MethodGet, "/api/admin/export", nil)
	rr := httptest.NewRecorder()
	h.ExportCSV(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Disposition"), "attachment;"))
	assert.Equal(t, csv, rr.Body.String())
}

func TestAdminArchiveCSV(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("ArchiveCSV", mock.Anything, "").Return("https://bucket.example/exports/waitlist.csv?sig=abc", nil)

	h := NewAdminHandler(&mockAuthSvc{}, svc, false)
	r := httptest.NewRequest(http.MethodPost, "/api/admin/export/archive", nil)
	rr := httptest.NewRecorder()
	h.ArchiveCSV(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	data := env.Data.(map[string]interface{})
	assert.Contains(t, data["url"], "exports/waitlist")
}

// --- DeleteEntry tests ---

func TestAdminDeleteEntry(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("DeleteEntry", mock.Anything, "01ABC").Return(nil)

	h := NewAdminHandler(&mockAuthSvc{}, svc, false)
	r := withChiID(httptest.NewRequest(http.MethodDelete, "/api/admin/entries/01ABC", nil), "01ABC")
	rr := httptest.NewRecorder()
	h.DeleteEntry(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestAdminDeleteEntry_NotFound(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("DeleteEntry", mock.Anything, "missing").
		Return(fmt.Errorf("entry not found: %w", domain.ErrNotFound))

	h := NewAdminHandler(&mockAuthSvc{}, svc, false)
	r := withChiID(httptest.NewRequest(http.MethodDelete, "/api/admin/entries/missing", nil), "missing")
	rr := httptest.NewRecorder()
	h.DeleteEntry(rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
