package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"budget/internal/cache"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/ports"
	"budget/internal/services"
	appweb "budget/web"
)

// storeTimeout bounds the storage reads of a single page.
const storeTimeout = 7 * time.Second

// Server is the budget web application.
type Server struct {
	http.Server

	cfg    *config.Config
	store  ports.Store
	ledger *services.LedgerService
	logger *log.Logger

	pages map[string]*template.Template

	views  *cache.LRUCache[budgetView]
	caches *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	now     func() time.Time
	started time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and builds the router. Every
// ledger mutation purges the budget view cache.
func NewServer(cfg *config.Config, store ports.Store, ledger *services.LedgerService, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		def := config.Defaults()
		cfg = &def
	}
	if store == nil || ledger == nil {
		return nil, errors.New("http server needs a store and a ledger service")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		cfg:     cfg,
		store:   store,
		ledger:  ledger,
		logger:  logger,
		views:   cache.NewLRUCache[budgetView](cfg.Cache.Size, cfg.Cache.TTL),
		caches:  cache.NewManager(logger),
		now:     time.Now,
		started: time.Now(),
	}

	pages, err := s.parseTemplates()
	if err != nil {
		return nil, err
	}
	s.pages = pages

	s.detector = security.NewDetector(logger)
	s.tracer = trace.NewMiddleware(s.detector.ClientIP, logger)
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.HTTP.RateLimit}, logger)

	ledger.OnChange(s.views.Purge)
	s.caches.Register(s.views)
	s.caches.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(s.tracer.Handler)
	r.Use(s.detector.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(middleware.Compress(5))
	r.Use(s.limiter.Middleware(s.detector.ClientIP, s.handleRateLimited))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticCache(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/budget", http.StatusFound)
	})

	// Pages
	r.Get("/budget", s.handleBudget)
	r.Post("/budget/columns", s.handleSaveColumns)
	r.Post("/budget/columns/reset", s.handleResetColumns)
	r.Get("/dashboard", s.handleDashboard)

	// Forms
	r.Get("/expense/add", s.handleExpenseForm)
	r.Post("/expense/add", s.handleExpenseFormSubmit)
	r.Get("/expenses/edit/{id}", s.handleEditExpenseForm)
	r.Post("/expenses/edit/{id}", s.handleEditExpenseSubmit)
	r.Post("/expenses/toggle-paid/{id}", s.handleTogglePaid)
	r.Get("/paycheck/add", s.handlePaycheckForm)
	r.Post("/paycheck/add", s.handlePaycheckFormSubmit)
	r.Get("/api/income/add", s.handleIncomeForm)
	r.Post("/api/income/add", s.handleIncomeFormSubmit)

	// JSON API
	r.Post("/api/income", s.handleAPIIncome)
	r.Post("/api/expense", s.handleAPIExpense)
	r.Post("/api/aggregate", s.handleAPIAggregate)
	r.Get("/api/budget_data", s.handleAPIBudgetData)
	r.Get("/api/dashboard/chart", s.handleAPIDashboardChart)
	r.Get("/api/salary_forecast", s.handleAPISalaryForecast)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "The page you requested does not exist.")
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	JSONError(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		if e := s.Server.Shutdown(ctx); e != nil {
			err = fmt.Errorf("http shutdown: %w", e)
		}
	})
	return err
}

// today is the current calendar day in UTC.
func (s *Server) today() time.Time {
	return s.now().UTC()
}
