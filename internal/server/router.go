package server

import (
	"net/http"

	"github.com/cloo-solutions/askbase/internal/api"
	"github.com/cloo-solutions/askbase/internal/api/handlers"
	"github.com/cloo-solutions/askbase/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	ChatbotHandler *handlers.ChatbotHandler
	ReviewHandler  *handlers.ReviewHandler

	// UploadDir, when non-empty, is served read-only under /uploads/.
	UploadDir string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// 32 MiB covers the multipart upload endpoint.
	const maxBodyBytes int64 = 32 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/chatbot", func(r chi.Router) {
		r.Post("/query", cfg.ChatbotHandler.Query)
		r.Post("/upload", cfg.ChatbotHandler.Upload)
		r.Get("/queries/{sessionId}", cfg.ChatbotHandler.History)

		r.Get("/unanswer-questions", cfg.ReviewHandler.List)
		r.Post("/unanswer-questions/update", cfg.ReviewHandler.Update)
	})

	if cfg.UploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	return r
}
