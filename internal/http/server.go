package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API is built on.
type Deps struct {
	Ledger    *services.LedgerService
	Recurring *services.RecurringService
	Periods   *services.PeriodService
	Store     Pinger

	RequestsPerMinute int
	StatusCacheSize   int
	StatusCacheTTL    time.Duration
}

type Server struct {
	http.Server

	ledger    *services.LedgerService
	recurring *services.RecurringService
	periods   *services.PeriodService
	store     Pinger

	status       *cache.StatusCache
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		ledger:       deps.Ledger,
		recurring:    deps.Recurring,
		periods:      deps.Periods,
		store:        deps.Store,
		status:       cache.NewStatusCache(deps.StatusCacheSize, deps.StatusCacheTTL),
		cacheManager: cache.NewManager(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RequestsPerMinute,
		}),
	}

	s.cacheManager.Register(s.status)
	s.cacheManager.StartCleanup(time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/transactions", requireUser(s.handlePostTransaction))
	mux.HandleFunc("GET /api/transactions", requireUser(s.handleListTransactions))

	mux.HandleFunc("POST /api/budget/categories", requireUser(s.handleCreateCategory))
	mux.HandleFunc("GET /api/budget/categories", requireUser(s.handleListCategories))
	mux.HandleFunc("GET /api/budget/status", requireUser(s.handleBudgetStatus))
	mux.HandleFunc("POST /api/budget/close", requireUser(s.handleCloseMonth))

	mux.HandleFunc("POST /api/debts", requireUser(s.handleCreateDebt))
	mux.HandleFunc("GET /api/debts", requireUser(s.handleListDebts))
	mux.HandleFunc("POST /api/debts/interest", requireUser(s.handleApplyInterest))

	mux.HandleFunc("POST /api/savings", requireUser(s.handleCreateGoal))
	mux.HandleFunc("GET /api/savings", requireUser(s.handleListGoals))

	mux.HandleFunc("GET /api/recurring", requireUser(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring/scan", requireUser(s.handleScanRecurring))
	mux.HandleFunc("PATCH /api/recurring/{id}", requireUser(s.handleRespondRecurring))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(rateLimitKey, func(w http.ResponseWriter, r *http.Request) {
		logger.WarnContext(r.Context(), "Rate limit exceeded", "key", rateLimitKey(r), "path", r.URL.Path)
		TooManyRequestsError().Write(w)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           trace.Middleware(headers.Middleware(limit(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// InvalidateStatus drops the cached budget status for userID.
func (s *Server) InvalidateStatus(userID int64) {
	s.status.Invalidate(userID)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Payload(map[string]string{"status": "ready"}).Write(w)
}
