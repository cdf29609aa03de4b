package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakrobotics/scoutbase/internal/auth"
	"github.com/oakrobotics/scoutbase/internal/service"
	"github.com/oakrobotics/scoutbase/pkg/health"
	"github.com/oakrobotics/scoutbase/pkg/middleware"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Reports  *service.ReportService
	Rankings *service.RankingService
	JWT      *auth.JWTManager
	Health   *health.Handler
	Logger   *slog.Logger
	CORS     CORSConfig
}

// NewRouter creates the chi router with all routes registered. Only the
// login, sign-up and refresh endpoints plus the operational endpoints are
// public; everything else, logout included, requires a valid access token.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(CORS(deps.CORS))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("scoutbase"))

	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authHandler := NewAuthHandler(deps.Auth, deps.Logger)
	userHandler := NewUserHandler(deps.Users, deps.Logger)
	reportHandler := NewReportHandler(deps.Reports, deps.Logger)
	rankingHandler := NewRankingHandler(deps.Rankings, deps.Logger)

	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/sign-up", authHandler.SignUp)
	r.Post("/auth/refresh", authHandler.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.JWT.Verify, deps.Logger))

		r.Delete("/auth/logout", authHandler.Logout)

		r.Get("/users", userHandler.List)
		r.Get("/me", userHandler.Me)
		r.Patch("/me", userHandler.UpdateMe)
		r.Delete("/me", userHandler.DeleteMe)
		r.Get("/avatar/{userId}", userHandler.Avatar)

		r.Post("/report", reportHandler.Create)
		r.Get("/report/{id}", reportHandler.Get)
		r.Post("/reports", reportHandler.CreateBatch)
		r.Get("/reports", reportHandler.List)

		r.Get("/rankings", rankingHandler.List)
	})

	return r
}
