package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/waitlist-api/internal/application/admin"
	"github.com/waitlist-api/internal/application/adminauth"
	"github.com/waitlist-api/internal/domain"
	"github.com/waitlist-api/internal/transport/http/middleware"
)

// AdminHandler handles the token-gated dashboard endpoints plus login.
type AdminHandler struct {
	authSvc adminauth.Service
	svc     admin.Service
	dev     bool
}

func NewAdminHandler(authSvc adminauth.Service, svc admin.Service, dev bool) *AdminHandler {
	return &AdminHandler{authSvc: authSvc, svc: svc, dev: dev}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	// Same token in a cookie so the dashboard works without holding the
	// value in page state; the Authorization header still takes precedence.
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: result})
}

func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data: map[string]string{
			"email": claims.Email,
			"role":  claims.Role,
		},
	})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: stats})
}

func (h *AdminHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	status := r.URL.Query().Get("status")
	search := r.URL.Query().Get("search")

	entries, pagination, err := h.svc.ListEntries(r.Context(), page, limit, status, search)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data: map[string]interface{}{
			"entries":    entries,
			"pagination": pagination,
		},
	})
}

func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportCSV(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	filename := fmt.Sprintf("waitlist-export-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *AdminHandler) ArchiveCSV(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.ArchiveCSV(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    map[string]string{"url": url},
	})
}

func (h *AdminHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "entry deleted"})
}
