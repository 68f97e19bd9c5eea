package http

import (
	"net/http"

	"github.com/atinyakov/GophChat/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler of the local chat service.
//
// Routes:
//
//	POST /authorize  → authHandler.Authorize
//	POST /register   → authHandler.Register
//	GET  /check      → authHandler.Check (protected by BearerAuth)
//	GET  /websocket  → chatHandler
//
// Every request is logged; the POST routes only accept JSON bodies.
func NewRouter(
	authHandler *AuthHandler,
	chatHandler *ChatHandler,
	validate middleware.TokenValidator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Post("/authorize", authHandler.Authorize)
		r.Post("/register", authHandler.Register)
	})

	r.With(middleware.BearerAuth(validate)).Get("/check", authHandler.Check)
	r.Get("/websocket", chatHandler.ServeHTTP)

	return r
}
