package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kinboost-api/internal/config"
	"github.com/kinboost-api/internal/transport/http/handler"
	appmiddleware "github.com/kinboost-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(appmiddleware.Recover)
	if deps.Metrics != nil {
		r.Use(appmiddleware.Instrument(deps.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(deps.OTP)
	accountH := handler.NewAccountHandler(deps.Accounts)
	authH := handler.NewAuthHandler(deps.Identity)
	shopH := handler.NewShopHandler(deps.Shops)

	// ── Public routes (no auth) ──────────────────────────────────────────
	r.Get("/health", healthH.Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	r.Post("/send-otp", otpH.Send)
	r.Post("/verify-otp", otpH.Verify)
	r.Post("/create-account", accountH.Create)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/token", authH.Token)
		r.Post("/refresh", authH.Refresh)
		r.Get("/user", authH.User)
		r.With(appmiddleware.Auth(deps.Identity)).Post("/logout", authH.Logout)
	})

	// ── Authenticated routes ─────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.Auth(deps.Identity))

		r.Get("/shops/me", shopH.Mine)
		r.Post("/shops", shopH.Create)
	})

	return r
}
