package http

import (
	"github.com/waitlist-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/waitlist-api/internal/infrastructure/jwt"
	s3infra "github.com/waitlist-api/internal/infrastructure/s3"
	"github.com/waitlist-api/internal/infrastructure/smtp"
	"github.com/waitlist-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router. They are
// process-scoped: created once at startup and injected here, never reached
// through globals.
type Deps struct {
	EntryRepo   *dynamo.EntryRepo
	AdminRepo   *dynamo.AdminRepo
	Mailer      smtp.Mailer
	Alerts      sns.AlertPublisher // nil disables signup alerts
	Archive     *s3infra.Store     // nil disables the CSV archive endpoint
	JWTProvider *jwtinfra.Provider
}
