package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cleared-dev/ledgerd/internal/accounts"
	"github.com/cleared-dev/ledgerd/internal/id"
	"github.com/cleared-dev/ledgerd/internal/ledger"
)

// HealthChecker is probed by /healthz.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Dependencies collects handler dependencies.
type Dependencies struct {
	Engine              *ledger.Engine
	Accounts            *accounts.Service
	Health              HealthChecker
	AccountNumberLength int
}

// NewRouter wires the HTTP routes of the management and transaction APIs.
func NewRouter(logger *slog.Logger, deps Dependencies) http.Handler {
	if deps.AccountNumberLength <= 0 {
		deps.AccountNumberLength = id.DefaultAccountNumberLength
	}
	h := &handlers{
		logger:       logger,
		engine:       deps.Engine,
		accounts:     deps.Accounts,
		numberLength: deps.AccountNumberLength,
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]any{"status": "ok"}
		if deps.Health != nil {
			if err := deps.Health.Ping(ctx); err != nil {
				logger.Error("health probe failed", "error", err)
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
			}
		}
		respondJSON(w, status, payload)
	})

	mux.HandleFunc("POST /api/management/create", h.createAccount)
	mux.HandleFunc("GET /api/management/all", h.listAccounts)
	mux.HandleFunc("GET /api/management/{accountNumber}", h.getAccount)

	mux.HandleFunc("POST /api/transaction/deposit", h.deposit)
	mux.HandleFunc("POST /api/transaction/withdraw", h.withdraw)
	mux.HandleFunc("POST /api/transaction/transfer", h.transfer)
	mux.HandleFunc("GET /api/transaction/history/{accountNumber}", h.history)

	return loggingMiddleware(logger, mux)
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
