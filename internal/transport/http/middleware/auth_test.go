package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waitlist-api/internal/config"
	"github.com/waitlist-api/internal/domain"
	jwtinfra "github.com/waitlist-api/internal/infrastructure/jwt"
)

func testProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider(&config.Config{
		JWTSecret:      "test-secret",
		JWTExpiryHours: 1,
	})
	require.NoError(t, err)
	return p
}

func claimsEcho(t *testing.T, wantEmail string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantEmail, claims.Email)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_MissingToken(t *testing.T) {
	handler := Auth(testProvider(t))(claimsEcho(t, ""))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_BearerHeader(t *testing.T) {
	p := testProvider(t)
	token, err := p.Sign("admin@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	handler := Auth(p)(claimsEcho(t, "admin@example.com"))
	req := httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_Cookie(t *testing.T) {
	p := testProvider(t)
	token, err := p.Sign("admin@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	handler := Auth(p)(claimsEcho(t, "admin@example.com"))
	req := httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// A bad bearer header must not fall back to a valid cookie.
func TestAuth_HeaderTakesPrecedenceOverCookie(t *testing.T) {
	p := testProvider(t)
	token, err := p.Sign("admin@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	handler := Auth(p)(claimsEcho(t, "admin@example.com"))
	req := httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	handler := Auth(testProvider(t))(claimsEcho(t, ""))
	req := httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
