package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/waitlist-api/internal/application/waitlist"
	"github.com/waitlist-api/internal/domain"
	"github.com/waitlist-api/internal/transport/http/middleware"
)

// WaitlistHandler handles the public signup endpoints.
type WaitlistHandler struct {
	svc waitlist.Service
	dev bool
}

func NewWaitlistHandler(svc waitlist.Service, dev bool) *WaitlistHandler {
	return &WaitlistHandler{svc: svc, dev: dev}
}

func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req domain.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ip := middleware.RealIP(r)
	if ip != "" {
		req.IPAddress = &ip
	}
	if ua := r.UserAgent(); ua != "" {
		req.UserAgent = &ua
	}

	result, err := h.svc.Join(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	switch result.Outcome {
	case domain.JoinAlreadyMember:
		writeJSON(w, http.StatusOK, Envelope{
			Success: true,
			Message: "You're already on the waitlist!",
		})
	case domain.JoinReactivated:
		writeJSON(w, http.StatusOK, Envelope{
			Success: true,
			Message: "Welcome back! You've been re-added to the waitlist.",
			Data:    result,
		})
	default:
		writeJSON(w, http.StatusCreated, Envelope{
			Success: true,
			Message: "Successfully joined the waitlist!",
			Data:    result,
		})
	}
}

func (h *WaitlistHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: stats})
}

func (h *WaitlistHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	entries, pagination, err := h.svc.ListAll(r.Context(), page, limit)
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

func (h *WaitlistHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Confirm(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "Email confirmed successfully!",
	})
}

func (h *WaitlistHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req domain.UnsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if err := h.svc.Unsubscribe(r.Context(), req.Email); err != nil {
		writeServiceError(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "You've been unsubscribed from the waitlist.",
	})
}
