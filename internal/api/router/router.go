package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ElYoussoupha/TonToumaBot/internal/http/handlers"
	httpmiddleware "github.com/ElYoussoupha/TonToumaBot/internal/http/middleware"
	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	Chat            *handlers.ChatHandler
	AdminLanguage   *handlers.AdminLanguageHandler
	AdminAuthSecret string
	MetricsHandler  http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Chat != nil {
		r.Route("/chat/{instanceID}", func(chat chi.Router) {
			chat.Post("/text", cfg.Chat.HandleText)
			chat.Post("/voice", cfg.Chat.HandleVoice)
		})
	}

	if cfg.AdminLanguage != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/settings/language", cfg.AdminLanguage.Get)
			admin.Post("/settings/language", cfg.AdminLanguage.Set)
		})
	}

	return r
}
