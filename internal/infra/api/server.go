package api

import (
	"net/http"
	"time"

	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const createOrderRoute = "create-order"

type Options struct {
	RequestTimeout       time.Duration
	CreateOrderPerMinute int
	RateKey              func(userID, route string) string
}

// Server exposes the payment and notification use cases over JSON.
type Server struct {
	payUC   usecase.PaymentUseCase
	notifUC usecase.NotificationUseCase
	auth    *AuthManager
	limiter Limiter
	opts    Options
	log     *zerolog.Logger
}

func NewServer(
	payUC usecase.PaymentUseCase,
	notifUC usecase.NotificationUseCase,
	auth *AuthManager,
	limiter Limiter,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.RateKey == nil {
		opts.RateKey = func(userID, route string) string { return "rate_limit:" + userID + ":" + route }
	}
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{payUC: payUC, notifUC: notifUC, auth: auth, limiter: limiter, opts: opts, log: &l}
}

// Routes builds the router. /health and /metrics are public, everything under
// /api needs a bearer token.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(Timeout(s.opts.RequestTimeout), s.auth.Authenticate)

		r.Route("/payments", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(model.RoleMember))
				r.With(RateLimit(s.limiter, createOrderRoute, s.opts.CreateOrderPerMinute, time.Minute, s.opts.RateKey, s.log)).
					Post("/create-order", s.createOrder)
				r.Post("/verify", s.verify)
				r.Post("/cancel-order", s.cancelOrder)
			})

			r.With(RequireRole(model.RoleAdmin)).Post("/", s.createManual)
			r.With(RequireRole(model.RoleAdmin)).Put("/{id}", s.updateStatus)
			r.With(RequireRole(model.RoleAdmin, model.RoleMember)).Get("/", s.listPayments)
			r.With(RequireRole(model.RoleAdmin, model.RoleMember)).Get("/{id}", s.getPayment)
		})

		r.Get("/notifications", s.listNotifications)
		r.Put("/notifications/{id}/read", s.markNotificationRead)
	})
	return r
}
