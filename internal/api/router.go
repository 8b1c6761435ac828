package api

import (
	"log/slog"

	"github.com/avolkov/revtrack/internal/api/handlers"
	"github.com/avolkov/revtrack/internal/api/middleware"
	"github.com/avolkov/revtrack/internal/auth"
	"github.com/avolkov/revtrack/internal/invitations"
	"github.com/avolkov/revtrack/internal/members"
	"github.com/avolkov/revtrack/internal/tenants"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB                *gorm.DB
	Redis             *redis.Client
	Logger            *slog.Logger
	JWTService        *auth.JWTService
	AuthService       *auth.Service
	InvitationService *invitations.Service
	MemberService     *members.Service
	TenantService     *tenants.Service
	AllowedOrigins    []string
	RateLimitReqs     int
	RateLimitSecs     int
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.CompanyHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	profileHandler := handlers.NewProfileHandler(cfg.AuthService)
	invitationHandler := handlers.NewInvitationHandler(cfg.InvitationService)
	employeeHandler := handlers.NewEmployeeHandler(cfg.MemberService)
	companyHandler := handlers.NewCompanyHandler(cfg.TenantService)
	clientHandler := handlers.NewClientHandler(cfg.DB)
	projectHandler := handlers.NewProjectHandler(cfg.DB)
	orderHandler := handlers.NewOrderHandler(cfg.DB)
	paymentHandler := handlers.NewPaymentHandler(cfg.DB)
	statsHandler := handlers.NewStatsHandler(cfg.DB)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/verify-email", authHandler.VerifyEmail)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/password-reset/request", authHandler.RequestPasswordReset)
		r.Post("/auth/password-reset/verify", authHandler.VerifyResetCode)
		r.Post("/auth/password-reset/confirm", authHandler.ResetPassword)

		// Public invitation redemption
		r.Get("/invitations/accept/{token}", invitationHandler.Inspect)
		r.Post("/invitations/accept/{token}", invitationHandler.Accept)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))
			if cfg.RateLimitReqs > 0 {
				r.Use(middleware.RateLimitByUser(cfg.RateLimitReqs, cfg.RateLimitSecs))
			}

			r.Route("/me", func(r chi.Router) {
				r.Get("/", profileHandler.Me)
				r.Put("/", profileHandler.Update)
				r.Post("/password", profileHandler.ChangePassword)
				r.Post("/email/request", profileHandler.RequestEmailChange)
				r.Post("/email/confirm", profileHandler.ConfirmEmailChange)
			})

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", companyHandler.ListMine)
				r.Post("/", companyHandler.Create)
				r.Post("/{id}/switch", companyHandler.Switch)
			})

			// Tenant routes need the company header on top of the token
			r.Group(func(r chi.Router) {
				r.Use(middleware.CompanyContext)

				r.Route("/employees", func(r chi.Router) {
					r.Get("/", employeeHandler.List)
					r.Post("/", employeeHandler.Add)
					r.Put("/{id}/role", employeeHandler.ChangeRole)
					r.Delete("/{id}", employeeHandler.Remove)
				})

				r.Route("/invitations", func(r chi.Router) {
					r.Get("/", invitationHandler.List)
					r.Post("/", invitationHandler.Invite)
					r.Delete("/{id}", invitationHandler.Cancel)
				})

				r.Route("/clients", func(r chi.Router) {
					r.Get("/", clientHandler.List)
					r.Post("/", clientHandler.Create)
					r.Get("/{id}", clientHandler.Get)
					r.Put("/{id}", clientHandler.Update)
					r.Patch("/{id}/status", clientHandler.SetStatus)
					r.Delete("/{id}", clientHandler.Delete)
				})

				r.Route("/projects", func(r chi.Router) {
					r.Get("/", projectHandler.List)
					r.Post("/", projectHandler.Create)
					r.Get("/{id}", projectHandler.Get)
					r.Put("/{id}", projectHandler.Update)
					r.Patch("/{id}/status", projectHandler.SetStatus)
					r.Delete("/{id}", projectHandler.Delete)
				})

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", orderHandler.List)
					r.Post("/", orderHandler.Create)
					r.Get("/{id}", orderHandler.Get)
					r.Put("/{id}", orderHandler.Update)
					r.Patch("/{id}/status", orderHandler.SetStatus)
					r.Delete("/{id}", orderHandler.Delete)
				})

				r.Route("/payments", func(r chi.Router) {
					r.Get("/", paymentHandler.List)
					r.Post("/", paymentHandler.Create)
					r.Get("/{id}", paymentHandler.Get)
					r.Put("/{id}", paymentHandler.Update)
					r.Patch("/{id}/status", paymentHandler.SetStatus)
					r.Delete("/{id}", paymentHandler.Delete)
				})

				r.Get("/stats", statsHandler.Overview)
			})
		})
	})

	return &Router{r}
}
