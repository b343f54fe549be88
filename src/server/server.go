package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"tradejournal/src/auth"
	"tradejournal/src/cache"
	"tradejournal/src/checklist"
	"tradejournal/src/events"
	"tradejournal/src/handler"
	"tradejournal/src/health"
	"tradejournal/src/repository"
)

// Dependencies bundles the long-lived components the router needs beyond the
// repositories, which the handlers construct themselves.
type Dependencies struct {
	Hub       *events.Hub
	Checker   *health.Checker
	Summaries cache.Cache
	Tracker   *checklist.Tracker
	TokenTTL  time.Duration
	StartedAt time.Time
}

// NewRouter builds the full route tree. Everything under /api except login
// and refresh sits behind the session middleware.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(handler.Recoverer(repository.NewExceptionRepository()))

	// Public routes
	r.Get("/healthcheck", handler.HealthcheckHandler())
	r.Post("/api/auth/login", handler.DefaultLoginHandler(deps.Hub, deps.TokenTTL))
	r.Post("/api/auth/refresh", handler.DefaultRefreshHandler(deps.TokenTTL))

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(repository.NewSessionRepository()))

		r.Post("/api/auth/logout", handler.DefaultLogoutHandler(deps.Hub))
		r.Get("/api/auth/me", handler.MeHandler())
		r.Post("/api/auth/change-password", handler.DefaultChangePasswordHandler())

		r.Get("/api/accounts", handler.DefaultListAccountsHandler())
		r.Post("/api/accounts", handler.DefaultCreateAccountHandler(deps.Hub))
		r.Get("/api/accounts/{id}", handler.DefaultGetAccountHandler())
		r.Put("/api/accounts/{id}", handler.DefaultUpdateAccountHandler(deps.Hub))
		r.Delete("/api/accounts/{id}", handler.DefaultDeleteAccountHandler(deps.Hub))
		r.Post("/api/accounts/{id}/set-default", handler.DefaultSetDefaultAccountHandler(deps.Hub))
		r.Post("/api/accounts/{id}/toggle-status", handler.DefaultToggleAccountStatusHandler(deps.Hub))

		r.Get("/api/trades", handler.DefaultSearchTradesHandler())
		r.Post("/api/trades", handler.DefaultCreateTradeHandler(deps.Hub, deps.Summaries))
		r.Get("/api/trades/{id}", handler.DefaultGetTradeHandler())
		r.Put("/api/trades/{id}", handler.DefaultUpdateTradeHandler(deps.Hub, deps.Summaries))
		r.Delete("/api/trades/{id}", handler.DefaultDeleteTradeHandler(deps.Hub, deps.Summaries))

		r.Get("/api/transactions", handler.DefaultListTransactionsHandler())
		r.Post("/api/transactions", handler.DefaultCreateTransactionHandler(deps.Hub, deps.Summaries))
		r.Put("/api/transactions/{id}", handler.DefaultUpdateTransactionHandler(deps.Hub, deps.Summaries))
		r.Delete("/api/transactions/{id}", handler.DefaultDeleteTransactionHandler(deps.Hub, deps.Summaries))

		r.Get("/api/strategies", handler.DefaultListStrategiesHandler())
		r.Post("/api/strategies", handler.DefaultCreateStrategyHandler(deps.Hub))
		r.Get("/api/strategies/{id}", handler.DefaultGetStrategyHandler())
		r.Put("/api/strategies/{id}", handler.DefaultUpdateStrategyHandler(deps.Tracker, deps.Hub))
		r.Delete("/api/strategies/{id}", handler.DefaultDeleteStrategyHandler(deps.Tracker, deps.Hub))
		r.Get("/api/strategies/{id}/checklist", handler.DefaultGetChecklistHandler(deps.Tracker))
		r.Post("/api/strategies/{id}/checklist/toggle", handler.DefaultToggleChecklistHandler(deps.Tracker))
		r.Post("/api/strategies/{id}/checklist/reset", handler.DefaultResetChecklistHandler(deps.Tracker))

		r.Get("/api/preferences", handler.DefaultGetPreferencesHandler())
		r.Put("/api/preferences", handler.DefaultUpdatePreferencesHandler(deps.Hub))

		r.Get("/api/analytics/summary", handler.DefaultAccountSummaryHandler(deps.Summaries))

		r.Get("/api/status", handler.StatusHandler(deps.Checker, deps.Hub, deps.StartedAt))

		r.Get("/ws", events.ServeWS(deps.Hub))
	})

	return r
}

// StartServer runs the HTTP server until SIGINT or SIGTERM, then drains
// in-flight requests.
func StartServer(port string, r http.Handler) {
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
