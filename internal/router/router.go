package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	hrest "ledger-service/internal/handler/rest"
)

func SetupRoutes(h *hrest.LedgerRestHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/api/v1/ledger/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Register)
			r.Get("/{user_id}", h.GetUser)
			r.Delete("/{user_id}", h.DeleteUser)
			r.Post("/{user_id}/accounts", h.OpenAccount)
			r.Put("/{user_id}/status", h.ChangeUserStatus)
			r.Get("/{user_id}/audit", h.ListAudit)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{account_id}", h.GetAccount)
			r.Get("/{account_id}/transactions", h.ListTransactions)
			r.Post("/{account_id}/deposit", h.Deposit)
			r.Post("/{account_id}/withdraw", h.Withdraw)
			r.Put("/{account_id}/status", h.ChangeAccountStatus)
		})

		r.Post("/transfers", h.Transfer)
	})

	return r
}

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}
