package http

import (
	"net/http"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopgrid/server/internal/auth"
	"github.com/shopgrid/server/internal/http/handlers"
	"github.com/shopgrid/server/internal/middleware"
	"github.com/shopgrid/server/internal/repo"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	authHandler *handlers.AuthHandler,
	productHandler *handlers.ProductHandler,
	cartHandler *handlers.CartHandler,
	memberHandler *handlers.MemberHandler,
	auditHandler *handlers.AuditHandler,
	tokens *auth.TokenService,
	userRepo repo.UserRepo,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	// Per-IP limiter on the OTP endpoints, on top of the per-identity
	// issuance quota enforced in the OTP store.
	authLimiter := tollbooth.NewLimiter(5, nil)
	authLimiter.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})

	r.Route("/auth", func(r chi.Router) {
		r.Use(limitMiddleware(authLimiter))
		r.Post("/send-otp", authHandler.HandleSendOTP)
		r.Post("/verify-otp", authHandler.HandleVerifyOTP)
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/addProduct", productHandler.HandleCreate)
		r.Get("/viewProduct", productHandler.HandleList)
	})

	// Protected routes (require valid bearer token)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokens, userRepo))

		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/me", authHandler.HandleMe)
		r.Put("/me", authHandler.HandleUpdateProfile)

		r.Route("/cartItem", func(r chi.Router) {
			r.Post("/add", cartHandler.HandleAdd)
			r.Get("/view", cartHandler.HandleView)
			r.Put("/update/{cartItemID}", cartHandler.HandleUpdate)
			r.Patch("/{cartItemID}/increase", cartHandler.HandleIncrease)
			r.Patch("/{cartItemID}/decrease", cartHandler.HandleDecrease)
			r.Delete("/delete/{cartItemID}", cartHandler.HandleDelete)
			r.Delete("/clear", cartHandler.HandleClear)
		})

		r.Route("/member", func(r chi.Router) {
			r.Post("/save", memberHandler.HandleSave)
			r.Get("/list", memberHandler.HandleList)
		})

		r.Get("/audit/my-activity", auditHandler.HandleMyActivity)
	})

	return r
}

func limitMiddleware(lmt *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	}
}
