// Package http exposes the ledger, plan, settlement and stock operations as
// a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"fluxo/internal/cache"
	"fluxo/internal/core"
	applog "fluxo/internal/log"
	"fluxo/internal/middleware/trace"
	"fluxo/internal/services"
	"fluxo/internal/storage"
)

// Server wires the services into HTTP routes and caches statement
// projections between mutations.
type Server struct {
	http.Server

	entries *services.EntryService
	stock   *services.StockService
	store   storage.Store

	statementCache *cache.LRUCache[core.Statement]
	cacheManager   *cache.Manager
	shutdownOnce   sync.Once
}

// Options tune the statement cache.
type Options struct {
	StatementCacheSize int
	StatementCacheTTL  time.Duration
}

func defaultOptions() Options {
	return Options{
		StatementCacheSize: 256,
		StatementCacheTTL:  5 * time.Minute,
	}
}

// NewServer configures all routes and returns a ready-to-run server.
func NewServer(addr string, entries *services.EntryService, stock *services.StockService, store storage.Store, opts *Options) *Server {
	o := defaultOptions()
	if opts != nil {
		if opts.StatementCacheSize > 0 {
			o.StatementCacheSize = opts.StatementCacheSize
		}
		if opts.StatementCacheTTL > 0 {
			o.StatementCacheTTL = opts.StatementCacheTTL
		}
	}

	s := &Server{
		entries:        entries,
		stock:          stock,
		store:          store,
		statementCache: cache.NewLRUCache[core.Statement](o.StatementCacheSize, o.StatementCacheTTL),
		cacheManager:   cache.NewManager(),
	}
	s.cacheManager.Register(s.statementCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	router := mux.NewRouter()
	tracer := trace.NewMiddleware(clientIP)
	router.Use(tracer.Middleware)
	router.Use(applog.Middleware(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)))

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/statement", s.handleStatement).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/statement/export", s.handleStatementExport).Methods(http.MethodGet)

	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/products", s.handleListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", s.handleCreateProduct).Methods(http.MethodPost)
	api.HandleFunc("/warehouses", s.handleListWarehouses).Methods(http.MethodGet)
	api.HandleFunc("/warehouses", s.handleCreateWarehouse).Methods(http.MethodPost)

	api.HandleFunc("/movements", s.handleListMovements).Methods(http.MethodGet)
	api.HandleFunc("/movements", s.handleCreateMovement).Methods(http.MethodPost)
	api.HandleFunc("/movements/plan", s.handlePlanPreview).Methods(http.MethodPost)
	api.HandleFunc("/movements/bulk", s.handlePlanConfirm).Methods(http.MethodPost)
	api.HandleFunc("/movements/{id}/settle", s.handleSettle).Methods(http.MethodPost)
	api.HandleFunc("/movements/{id}/revert", s.handleRevert).Methods(http.MethodPost)
	api.HandleFunc("/movements/{id}/cancel", s.handleCancel).Methods(http.MethodPost)

	api.HandleFunc("/cards/{id}/pay-invoice", s.handlePayInvoice).Methods(http.MethodPost)

	api.HandleFunc("/stock/movements", s.handleCreateStockMovement).Methods(http.MethodPost)
	api.HandleFunc("/stock/{product}/{warehouse}", s.handleStockHistory).Methods(http.MethodGet)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// invalidateStatements drops every cached projection. Called after any entry
// mutation: one entry can move several statements at once (transfers, card
// invoice cascades), so per-account invalidation is not worth the bookkeeping.
func (s *Server) invalidateStatements() {
	s.statementCache.Clear()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Shutdown stops the cache cleanup goroutine and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// statementCacheKey identifies one projection: account, window, today and
// every display filter.
func statementCacheKey(accountID string, from, to, today core.Date, f core.StatementFilter) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		accountID, from, to, today, f.Status, f.Kind, f.Query)
}
