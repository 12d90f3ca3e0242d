package handler

import (
	"net/http"

	"github.com/waitlist-api/internal/infrastructure/smtp"
)

// HealthHandler reports process liveness and mail transport status.
type HealthHandler struct {
	mailer smtp.Mailer
}

func NewHealthHandler(mailer smtp.Mailer) *HealthHandler {
	return &HealthHandler{mailer: mailer}
}

func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	emailStatus := "connected"
	if err := h.mailer.TestConnection(); err != nil {
		emailStatus = "unavailable"
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data: map[string]string{
			"status": "ok",
			"email":  emailStatus,
		},
	})
}
