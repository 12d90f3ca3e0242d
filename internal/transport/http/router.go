package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/waitlist-api/internal/application/admin"
	"github.com/waitlist-api/internal/application/adminauth"
	"github.com/waitlist-api/internal/application/waitlist"
	"github.com/waitlist-api/internal/config"
	"github.com/waitlist-api/internal/transport/http/handler"
	appmiddleware "github.com/waitlist-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	dev := cfg.AppEnv == "development"

	// 5 signups per 15-minute window per client address.
	joinRL := appmiddleware.NewWindowLimiter(5, 15*time.Minute)
	// Token bucket on login to slow credential guessing.
	loginRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	waitlistSvc := waitlist.NewService(waitlist.ServiceDeps{
		EntryRepo: deps.EntryRepo,
		Mailer:    deps.Mailer,
		Alerts:    deps.Alerts,
	})
	authSvc := adminauth.NewService(adminauth.ServiceDeps{
		AdminRepo: deps.AdminRepo,
		Signer:    deps.JWTProvider,
	})
	adminDeps := admin.ServiceDeps{EntryRepo: deps.EntryRepo}
	if deps.Archive != nil {
		adminDeps.Archive = deps.Archive
	}
	adminSvc := admin.NewService(adminDeps)

	healthH := handler.NewHealthHandler(deps.Mailer)
	waitlistH := handler.NewWaitlistHandler(waitlistSvc, dev)
	adminH := handler.NewAdminHandler(authSvc, adminSvc, dev)

	authMw := appmiddleware.Auth(deps.JWTProvider)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Check)

		r.Route("/waitlist", func(r chi.Router) {
			r.With(joinRL.Limit).Post("/join", waitlistH.Join)
			r.Get("/stats", waitlistH.Stats)
			// Known defect: this listing is intentionally left unauthenticated
			// to preserve the existing public contract.
			r.Get("/all", waitlistH.ListAll)
			r.Get("/confirm/{token}", waitlistH.Confirm)
			r.Post("/unsubscribe", waitlistH.Unsubscribe)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(loginRL.Limit).Post("/login", adminH.Login)

			r.Group(func(r chi.Router) {
				r.Use(authMw)

				r.Get("/verify", adminH.Verify)
				r.Get("/stats", adminH.Stats)
				r.Get("/entries", adminH.ListEntries)
				r.Get("/export", adminH.ExportCSV)
				r.Post("/export/archive", adminH.ArchiveCSV)
				r.Delete("/entries/{id}", adminH.DeleteEntry)
			})
		})
	})

	return r
}
