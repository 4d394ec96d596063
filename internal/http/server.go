package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"dealdesk/internal/cache"
	"dealdesk/internal/core"
	applog "dealdesk/internal/log"
	"dealdesk/internal/middleware/ratelimit"
	"dealdesk/internal/middleware/security"
	"dealdesk/internal/middleware/trace"
	"dealdesk/internal/records"
	appweb "dealdesk/web"
)

// Store is the data surface the server renders from. The backend factory
// produces implementations for both the memory and sqlite backends.
type Store interface {
	records.ContactStore
	records.DealStore
	records.TaskStore
	records.ProfileStore
	records.SnapshotStore
}

type Server struct {
	http.Server
	templates *template.Template
	store     Store

	logger     *applog.Logger
	limiter    *ratelimit.Limiter
	headers    *security.HeadersMiddleware
	ipResolver *security.Resolver
	tracer     *trace.Middleware

	// Derived dashboard stats are cached per period and invalidated on
	// every record write. lastStats keeps the most recent successful
	// computation so a store outage degrades to stale numbers instead of
	// an empty dashboard.
	statsCache *cache.LRUCache[core.DashboardStats]
	dealsCache *cache.LRUCache[[]core.Deal]
	cacheMgr   *cache.Manager

	statsMu   sync.RWMutex
	lastStats *core.DashboardStats

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, store Store) *Server {
	mux := http.NewServeMux()
	resolver := security.NewResolver()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:      store,
		logger:     applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP),
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		headers:    security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		ipResolver: resolver,
		tracer:     trace.NewMiddleware(resolver.ExtractClientIP),
		statsCache: cache.NewLRUCache[core.DashboardStats](10, 5*time.Minute),
		dealsCache: cache.NewLRUCache[[]core.Deal](10, 5*time.Minute),
		cacheMgr:   cache.NewManager(),
	}

	s.cacheMgr.Register(s.statsCache)
	s.cacheMgr.Register(s.dealsCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// Pages
	s.route(mux, "/", s.handleIndex)
	s.route(mux, "/contacts", s.handleContactsPage)
	s.route(mux, "/deals", s.handleDealsPage)
	s.route(mux, "/tasks", s.handleTasksPage)
	s.route(mux, "/settings", s.handleSettingsPage)

	// Mutations
	s.route(mux, "/contacts/create", s.handleCreateContact)
	s.route(mux, "/contacts/update", s.handleUpdateContact)
	s.route(mux, "/contacts/delete", s.handleDeleteContact)
	s.route(mux, "/deals/create", s.handleCreateDeal)
	s.route(mux, "/deals/update", s.handleUpdateDeal)
	s.route(mux, "/deals/delete", s.handleDeleteDeal)
	s.route(mux, "/deals/stage", s.handleMoveDealStage)
	s.route(mux, "/tasks/create", s.handleCreateTask)
	s.route(mux, "/tasks/update", s.handleUpdateTask)
	s.route(mux, "/tasks/delete", s.handleDeleteTask)
	s.route(mux, "/tasks/status", s.handleUpdateTaskStatus)
	s.route(mux, "/settings/profile", s.handleUpdateProfile)

	// UI partials
	s.route(mux, "/ui/dashboard/summary", s.handleDashboardSummary)
	s.route(mux, "/ui/dashboard/revenue", s.handleRevenueChart)
	s.route(mux, "/ui/contacts/list", s.handleContactList)
	s.route(mux, "/ui/deals/list", s.handleDealList)
	s.route(mux, "/ui/tasks/list", s.handleTaskList)

	return s
}

// route registers a handler wrapped with tracing, security headers, and
// POST rate limiting. A request-scoped logger rides the context so
// handlers can log without plumbing one through.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	wrapped := s.tracer.Middleware(applog.Middleware(s.logger)(s.headers.Middleware(s.limitWrites(h))))
	mux.Handle(pattern, wrapped)
}

// limitWrites rate limits mutating requests per client IP. Reads pass through.
func (s *Server) limitWrites(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			clientIP := s.ipResolver.ExtractClientIP(r)
			if !s.limiter.Allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}
		next(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateDerived drops every cached dashboard view. Called on all
// record writes so stats never render stale.
func (s *Server) invalidateDerived() {
	s.statsCache.Clear()
	s.dealsCache.Clear()
}

// getStats returns the current dashboard stats, computing and caching them
// when no fresh entry exists.
func (s *Server) getStats(ctx context.Context) (core.DashboardStats, error) {
	now := time.Now()
	key := core.PeriodKey(now)

	if stats, found := s.statsCache.Get(key); found {
		slog.DebugContext(ctx, "Stats cache hit", "period", key)
		return stats, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	deals, err := s.store.ListDeals(cctx)
	if err != nil {
		return s.staleStatsOr(ctx, fmt.Errorf("list deals: %w", err))
	}
	tasks, err := s.store.ListTasks(cctx)
	if err != nil {
		return s.staleStatsOr(ctx, fmt.Errorf("list tasks: %w", err))
	}
	contacts, err := s.store.ListContacts(cctx)
	if err != nil {
		return s.staleStatsOr(ctx, fmt.Errorf("list contacts: %w", err))
	}

	var prior *core.StatsSnapshot
	snap, err := s.store.GetSnapshot(cctx, core.PriorPeriodKey(now))
	switch {
	case err == nil:
		prior = &snap
	case errors.Is(err, records.ErrNotFound):
		// First period in the system, change metrics stay omitted.
	default:
		slog.WarnContext(ctx, "Prior snapshot lookup failed", "error", err)
	}

	stats := core.ComputeStats(deals, tasks, contacts, prior)
	s.statsCache.Set(key, stats)
	s.statsMu.Lock()
	s.lastStats = &stats
	s.statsMu.Unlock()
	slog.DebugContext(ctx, "Stats cached", "period", key,
		"revenue_cents", stats.TotalRevenue.Cents, "deals", stats.DealCount)
	return stats, nil
}

// staleStatsOr falls back to the last good stats when the store is down.
func (s *Server) staleStatsOr(ctx context.Context, err error) (core.DashboardStats, error) {
	s.statsMu.RLock()
	last := s.lastStats
	s.statsMu.RUnlock()
	if last != nil {
		slog.WarnContext(ctx, "Serving stale dashboard stats", "error", err)
		return *last, nil
	}
	return core.DashboardStats{}, err
}

// getDeals lists deals with a short-lived cache in front of the store.
func (s *Server) getDeals(ctx context.Context) ([]core.Deal, error) {
	const key = "all"
	if items, found := s.dealsCache.Get(key); found {
		result := make([]core.Deal, len(items))
		copy(result, items)
		return result, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	items, err := s.store.ListDeals(cctx)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}

	s.dealsCache.Set(key, items)
	return items, nil
}
