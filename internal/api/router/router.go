package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nereadiving/dive-ai-assistant/internal/channels/whatsapp"
	"github.com/nereadiving/dive-ai-assistant/internal/conversation"
	httpmiddleware "github.com/nereadiving/dive-ai-assistant/internal/http/middleware"
	"github.com/nereadiving/dive-ai-assistant/internal/leads"
	"github.com/nereadiving/dive-ai-assistant/internal/webchat"
	"github.com/nereadiving/dive-ai-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	ChatHandler     *conversation.Handler
	LeadsHandler    *leads.Handler
	WebchatHandler  *webchat.Handler
	WhatsAppAdapter *whatsapp.Adapter
	MetricsHandler  http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Per-IP rate limiting on the public chat and lead endpoints.
	// Zero values disable the limiter.
	ChatRatePerSecond float64
	ChatBurst         int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	limited := func(next http.Handler) http.Handler { return next }
	if cfg.ChatRatePerSecond > 0 && cfg.ChatBurst > 0 {
		limited = httpmiddleware.RateLimit(cfg.ChatRatePerSecond, cfg.ChatBurst)
	}

	// Public endpoints (chat, widget, webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.ChatHandler != nil {
			public.With(limited).Post("/chat", cfg.ChatHandler.Chat)
			public.Get("/chat/history", cfg.ChatHandler.History)
		}
		if cfg.LeadsHandler != nil {
			public.With(limited).Post("/leads", cfg.LeadsHandler.CreateLead)
		}
		if cfg.WebchatHandler != nil {
			public.Route("/webchat", func(r chi.Router) {
				r.Get("/ws", cfg.WebchatHandler.HandleWebSocket)
				r.With(limited).Post("/message", cfg.WebchatHandler.HandleMessage)
				r.Get("/widget.js", cfg.WebchatHandler.HandleWidgetJS)
			})
		}
		if cfg.WhatsAppAdapter != nil {
			public.Get("/webhooks/whatsapp", cfg.WhatsAppAdapter.HandleVerification)
			public.Post("/webhooks/whatsapp", cfg.WhatsAppAdapter.HandleWebhook)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin endpoints (JWT protected)
	if cfg.LeadsHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
			admin.Get("/leads/export.csv", cfg.LeadsHandler.ExportCSV)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
