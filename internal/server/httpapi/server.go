// Package httpapi exposes the timesheet lifecycle as a JSON HTTP API.
// Every route requires a bearer token carrying the caller's user ID and
// role; the handlers stay thin and defer all decisions to the service.
package httpapi

import (
	"context"
	"net/http"

	"github.com/timegrid/timegrid/internal/logging"
	"github.com/timegrid/timegrid/internal/server/config"
	"github.com/timegrid/timegrid/internal/server/services"
)

// Server wires the HTTP routes to the timesheet service.
type Server struct {
	service   *services.TimesheetService
	secretKey []byte
	addr      string
	log       logging.Logger
	httpSrv   *http.Server
}

// NewServer constructs the HTTP layer.
func NewServer(svc *services.TimesheetService, cfg *config.Config, log logging.Logger) *Server {
	s := &Server{
		service:   svc,
		secretKey: []byte(cfg.SecretKey),
		addr:      cfg.EndpointAddr,
		log:       log.With("module", "httpapi"),
	}
	s.httpSrv = &http.Server{Addr: cfg.EndpointAddr, Handler: s.Handler()}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/timesheets/ensure", s.withAuth(s.handleEnsureDraft))
	mux.HandleFunc("POST /api/v1/timesheets/save", s.withAuth(s.handleSaveGrid))
	mux.HandleFunc("POST /api/v1/timesheets/copy-previous", s.withAuth(s.handleCopyPrevious))
	mux.HandleFunc("GET /api/v1/timesheets", s.withAuth(s.handleList))
	mux.HandleFunc("GET /api/v1/timesheets/{id}", s.withAuth(s.handleGet))
	mux.HandleFunc("POST /api/v1/timesheets/{id}/submit", s.withAuth(s.handleSubmit))
	mux.HandleFunc("POST /api/v1/timesheets/{id}/approve", s.withAuth(s.handleApprove))
	mux.HandleFunc("POST /api/v1/timesheets/{id}/reject", s.withAuth(s.handleReject))
	mux.HandleFunc("POST /api/v1/timesheets/{id}/reopen", s.withAuth(s.handleReopen))
	mux.HandleFunc("GET /api/v1/weeks/next-open", s.withAuth(s.handleNextOpenWeek))
	mux.HandleFunc("POST /api/v1/timers/stop", s.withAuth(s.handleTimerStop))

	return mux
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info(context.Background(), "http server listening", "addr", s.addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
