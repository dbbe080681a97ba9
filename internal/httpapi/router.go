package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HealthFunc reports component states for /healthz. A nil HealthFunc reports only "ok".
type HealthFunc func() map[string]string

// NewRouter mounts h under /v1 with request id, recovery and access logging.
func NewRouter(h *Handler, health HealthFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]string{"status": "ok"}
		if health != nil {
			for k, v := range health() {
				body[k] = v
			}
		}
		writeJSON(w, http.StatusOK, body)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", h.CreateAccount)
			r.Route("/{number}", func(r chi.Router) {
				r.Get("/", h.GetAccount)
				r.Post("/deposits", h.Deposit)
				r.Post("/withdrawals", h.Withdraw)
				r.Get("/transactions", h.AccountTransactions)
			})
		})
		r.Route("/cards", func(r chi.Router) {
			r.Post("/", h.CreateCreditCard)
			r.Route("/{number}", func(r chi.Router) {
				r.Get("/", h.GetCreditCard)
				r.Post("/charges", h.Charge)
				r.Post("/payments", h.Payment)
				r.Get("/transactions", h.CardTransactions)
			})
		})
		r.Route("/carrier", func(r chi.Router) {
			r.Get("/limits/{phone}", h.GetBillingLimit)
			r.Post("/payments", h.ProcessCarrierPayment)
			r.Get("/payments/{id}", h.VerifyCarrierPayment)
		})
	})

	return r
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
