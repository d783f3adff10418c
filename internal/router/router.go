package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/civiport-dev/civiport/internal/middleware"
	"github.com/civiport-dev/civiport/internal/middleware/metrics"
	rl "github.com/civiport-dev/civiport/internal/middleware/ratelimiter"
	"github.com/civiport-dev/civiport/internal/setup"
)

// New wires all routes. Rate limiters attached with Use apply to every
// endpoint of that sub-tree combined.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(metrics.Middleware)
	r.Use(mw.SecurityHeaders(deps.Config.IsProduction()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.Config.Public.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/healthz", h.Health)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(auth chi.Router) {
			// Credential endpoints are brute-force targets: keyed both by
			// IP and by the submitted email.
			credLimiter := rl.NewClientRateLimiter(1, 5, time.Hour)
			auth.Method("POST", "/register", mw.LimitByIPAndEmail(credLimiter, http.HandlerFunc(h.Register)))
			auth.Method("POST", "/login", mw.LimitByIPAndEmail(credLimiter, http.HandlerFunc(h.Login)))
			auth.Get("/google", h.GoogleLogin)
			auth.Get("/google/callback", h.GoogleCallback)
		})

		v1.Get("/issues", h.ListIssues)
		v1.Get("/issues/{issueId}", h.GetIssue)
		v1.Get("/events", h.ListEvents)
		v1.Get("/events/{eventId}", h.GetEvent)
		v1.Get("/announcements", h.ListAnnouncements)
		v1.Get("/announcements/{announcementId}", h.GetAnnouncement)
		v1.Get("/departments", h.ListDepartments)
		v1.Get("/departments/{departmentId}", h.GetDepartment)

		v1.Group(func(loggedIn chi.Router) {
			loggedIn.Use(authMw.NeedAuth())
			loggedIn.Use(mw.RateLimit(rl.NewClientRateLimiter(10, 20, time.Hour), mw.GetIP))

			loggedIn.Post("/issues", h.CreateIssue)
			loggedIn.Post("/issues/{issueId}/upvote", h.UpvoteIssue)
			loggedIn.Post("/issues/{issueId}/comments", h.CreateComment)
		})

		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(authMw.AdminOnly())

			admin.Patch("/issues/{issueId}", h.TriageIssue)
			admin.Delete("/issues/{issueId}", h.DeleteIssue)

			admin.Post("/events", h.CreateEvent)
			admin.Put("/events/{eventId}", h.UpdateEvent)
			admin.Delete("/events/{eventId}", h.DeleteEvent)

			admin.Post("/announcements", h.CreateAnnouncement)
			admin.Put("/announcements/{announcementId}", h.UpdateAnnouncement)
			admin.Delete("/announcements/{announcementId}", h.DeleteAnnouncement)

			admin.Post("/departments", h.CreateDepartment)
			admin.Put("/departments/{departmentId}", h.UpdateDepartment)
			admin.Delete("/departments/{departmentId}", h.DeleteDepartment)
		})
	})

	return r
}
