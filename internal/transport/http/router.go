package http

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quillblog/internal/handler"
	"quillblog/internal/httputil"
	authmw "quillblog/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	CommentHandler    *handler.CommentHandler
	LikeHandler       *handler.LikeHandler
	ModerationHandler *handler.ModerationHandler
	ReportHandler     *handler.ReportHandler
	JWTSecret         string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public thread with optional authentication (fills is_liked)
	r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/posts/{postId}/comments", cfg.CommentHandler.List)

	// Reader actions
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Post("/posts/{postId}/comments", cfg.CommentHandler.Create)
		r.Get("/comments/likes", cfg.LikeHandler.Status)
		r.Patch("/comments/{id}", cfg.CommentHandler.Update)
		r.Post("/comments/{id}/like", cfg.LikeHandler.Toggle)
		r.Post("/comments/{id}/reports", cfg.ReportHandler.Create)
	})

	// Moderation
	r.Route("/admin", func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))
		r.Use(authmw.RequireAdmin)

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", cfg.ModerationHandler.List)
			r.Get("/trash", cfg.ModerationHandler.Trash)
			r.Get("/stats", cfg.ModerationHandler.Stats)

			r.Post("/batch/approve", cfg.ModerationHandler.BatchApprove)
			r.Post("/batch/reject", cfg.ModerationHandler.BatchReject)
			r.Post("/batch/delete", cfg.ModerationHandler.BatchDelete)
			r.Post("/batch/restore", cfg.ModerationHandler.BatchRestore)

			r.Post("/{id}/approve", cfg.ModerationHandler.Approve)
			r.Post("/{id}/reject", cfg.ModerationHandler.Reject)
			r.Post("/{id}/restore", cfg.ModerationHandler.Restore)
			r.Post("/{id}/pin", cfg.ModerationHandler.Pin)
			r.Delete("/{id}", cfg.ModerationHandler.SoftDelete)
			r.Delete("/{id}/permanent", cfg.ModerationHandler.PermanentDelete)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", cfg.ReportHandler.List)
			r.Post("/{id}/resolve", cfg.ReportHandler.Resolve)
		})
	})

	return r
}
