package api

import (
	"account-service/internal/api/handler"
	mw "account-service/internal/api/middleware"
	"account-service/internal/config"
	"account-service/internal/domain/account"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(accountService account.Service, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAccountRoutes(router, accountService, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupAccountRoutes(router *chi.Mux, svc account.Service, logger *slog.Logger) {
	h := handler.NewAccountHandler(svc, logger)

	router.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.CreateAccount)
		r.Route("/{accountID}", func(r chi.Router) {
			r.Get("/", h.GetAccount)
			r.Delete("/", h.DeleteAccount)
			r.Put("/balance", h.UpdateBalance)
		})
	})

	router.Route("/customers/{customerID}/accounts", func(r chi.Router) {
		r.Get("/", h.ListCustomerAccounts)
		r.Get("/{accountType}", h.ListCustomerAccountsOfType)
		r.Get("/{accountType}/first", h.GetFirstCustomerAccountOfType)
	})
}
