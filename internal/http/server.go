// Package http exposes the web surface: form pages, report pages and the
// JSON variants of both.
package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
	appweb "bilancio/web"
)

type Server struct {
	http.Server
	templates *template.Template

	expenses *services.ExpenseService
	groups   *services.GroupService

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, expenses *services.ExpenseService, groups *services.GroupService) *Server {
	router := mux.NewRouter()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: router,
		},
		expenses: expenses,
		groups:   groups,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("failed parsing templates", "error", err)
	}
	s.templates = t

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	router.HandleFunc("/add_user", s.handleAddUserForm).Methods(http.MethodGet)
	router.HandleFunc("/add_user", s.handleAddUser).Methods(http.MethodPost)
	router.HandleFunc("/add_budget", s.handleAddBudgetForm).Methods(http.MethodGet)
	router.HandleFunc("/add_budget", s.handleAddBudget).Methods(http.MethodPost)
	router.HandleFunc("/add_expense", s.handleAddExpenseForm).Methods(http.MethodGet)
	router.HandleFunc("/add_expense", s.handleAddExpense).Methods(http.MethodPost)
	router.HandleFunc("/report/{email}", s.handleReport).Methods(http.MethodGet)
	router.HandleFunc("/report_redirect", s.handleReportRedirect).Methods(http.MethodPost)

	router.HandleFunc("/create_group", s.handleCreateGroupForm).Methods(http.MethodGet)
	router.HandleFunc("/create_group", s.handleCreateGroup).Methods(http.MethodPost)
	router.HandleFunc("/add_group_expense", s.handleAddGroupExpenseForm).Methods(http.MethodGet)
	router.HandleFunc("/add_group_expense", s.handleAddGroupExpense).Methods(http.MethodPost)
	router.HandleFunc("/group_report", s.handleGroupReport).Methods(http.MethodGet)

	resolver := security.NewClientIPResolver()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(resolver.ExtractClientIP)

	router.Use(
		tracer.Middleware,
		headers.Middleware,
		s.limiter.Middleware(resolver.ExtractClientIP),
	)

	return s
}

// Shutdown stops the HTTP server and the rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "readiness check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "index.html", nil)
}
