package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brightsmile/outreach/internal/campaign"
	"github.com/brightsmile/outreach/internal/http/handlers"
	httpmiddleware "github.com/brightsmile/outreach/internal/http/middleware"
	"github.com/brightsmile/outreach/internal/inbound"
	"github.com/brightsmile/outreach/internal/reporting"
	"github.com/brightsmile/outreach/internal/scheduling"
	"github.com/brightsmile/outreach/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger            *logging.Logger
	CampaignHandler   *campaign.Handler
	SchedulingHandler *scheduling.Handler
	RepliesHandler    *inbound.WebhookHandler
	LeadsHandler      *handlers.LeadIntakeHandler
	DashboardHandler  *reporting.DashboardHandler
	MetricsHandler    http.Handler

	CORSAllowedOrigins []string

	// OperatorAuthSecret guards the staff endpoints when set. Empty leaves
	// them open for local development.
	OperatorAuthSecret string

	// WebhookToken is the shared verification token the reply provider
	// sends with each notification. Empty disables the check.
	WebhookToken string

	// Public ingress rate limit (requests/sec per IP). Zero disables it.
	IngressRatePerSec float64
	IngressBurst      int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		// Staff surface: campaign and booking operations.
		api.Group(func(ops chi.Router) {
			if cfg.OperatorAuthSecret != "" {
				ops.Use(httpmiddleware.OperatorJWT(cfg.OperatorAuthSecret))
			}

			if cfg.CampaignHandler != nil {
				ops.Route("/campaigns", func(r chi.Router) {
					r.Post("/", cfg.CampaignHandler.Create)
					r.Get("/{campaignID}", cfg.CampaignHandler.Get)
					r.Post("/{campaignID}/trigger", cfg.CampaignHandler.Trigger)
				})
				ops.Post("/outreach/run", cfg.CampaignHandler.RunDue)
			}

			if cfg.SchedulingHandler != nil {
				ops.Get("/availability", cfg.SchedulingHandler.Availability)
				ops.Route("/appointments", func(r chi.Router) {
					r.Post("/", cfg.SchedulingHandler.BookAppointment)
					r.Post("/{appointmentID}/cancel", cfg.SchedulingHandler.CancelAppointment)
				})
			}

			if cfg.DashboardHandler != nil {
				ops.Get("/outreach/dashboard", cfg.DashboardHandler.GetDashboard)
			}
		})

		// Public ingress: provider webhooks and lead forms get rate limited.
		api.Group(func(public chi.Router) {
			if cfg.IngressRatePerSec > 0 {
				burst := cfg.IngressBurst
				if burst <= 0 {
					burst = 10
				}
				public.Use(httpmiddleware.RateLimit(cfg.IngressRatePerSec, burst))
			}
			if cfg.RepliesHandler != nil {
				public.With(requireWebhookToken(cfg.WebhookToken)).Post("/replies", cfg.RepliesHandler.HandleReply)
			}
			if cfg.LeadsHandler != nil {
				public.Post("/leads", cfg.LeadsHandler.CreateLead)
			}
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
