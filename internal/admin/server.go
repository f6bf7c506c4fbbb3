// Package admin exposes the operator surface: read access to pipeline state,
// the shared rate-budget gauge, and manual re-run triggers for ingestion and
// settlement. Every trigger is audit-logged with the caller identity.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitchside/internal/ingest"
	"github.com/yourusername/pitchside/internal/logger"
	"github.com/yourusername/pitchside/internal/models"
	"github.com/yourusername/pitchside/internal/ratelimit"
	"github.com/yourusername/pitchside/internal/repository"
	"github.com/yourusername/pitchside/internal/settle"
	"github.com/yourusername/pitchside/internal/sweep"
)

// operatorHeader carries the caller identity for the audit trail
const operatorHeader = "X-Operator"

// Server is the operator HTTP surface
type Server struct {
	repos        *repository.Repositories
	orchestrator *ingest.Orchestrator
	engine       *settle.Engine
	reconciler   *sweep.Reconciler
	governor     *ratelimit.Governor
	logger       *logrus.Logger
	audit        *logger.AuditLogger
	server       *http.Server
	port         int
}

// NewServer creates the operator surface
func NewServer(port int, repos *repository.Repositories, orchestrator *ingest.Orchestrator, engine *settle.Engine, reconciler *sweep.Reconciler, governor *ratelimit.Governor, log *logrus.Logger, audit *logger.AuditLogger) *Server {
	return &Server{
		repos:        repos,
		orchestrator: orchestrator,
		engine:       engine,
		reconciler:   reconciler,
		governor:     governor,
		logger:       log,
		audit:        audit,
		port:         port,
	}
}

// Start runs the admin server in the background until the context is
// cancelled
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/matches", s.handleListMatches)
	mux.HandleFunc("/admin/matches/", s.handleMatch)
	mux.HandleFunc("/admin/tickets/", s.handleTicket)
	mux.HandleFunc("/admin/rate-budget", s.handleRateBudget)
	mux.HandleFunc("/admin/ingestion/run", s.handleRunIngestion)
	mux.HandleFunc("/admin/sweep/run", s.handleRunSweep)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithField("port", s.port).Info("Admin server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Admin server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully stops the admin server
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// matchView is the operator read model for one fixture
type matchView struct {
	Match   *models.Match `json:"match"`
	Markets []marketView  `json:"markets"`
	Wagers  []wagerView   `json:"wagers"`
}

type marketView struct {
	Market   *models.Market          `json:"market"`
	Outcomes []*models.MarketOutcome `json:"outcomes"`
}

type wagerView struct {
	Wager  *models.Wager  `json:"wager"`
	Ticket *models.Ticket `json:"ticket,omitempty"`
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := models.MatchStatus(strings.ToUpper(r.URL.Query().Get("status")))
	if status == "" {
		status = models.MatchStatusScheduled
	}

	matches, err := s.repos.Match.GetByStatus(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// handleMatch routes /admin/matches/{id} and its action sub-paths
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/matches/")
	parts := strings.SplitN(rest, "/", 2)

	matchID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.renderMatch(w, r, matchID)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch parts[1] {
	case "sync-odds":
		s.triggerOddsSync(w, r, matchID)
	case "settle":
		s.triggerSettlement(w, r, matchID)
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

func (s *Server) renderMatch(w http.ResponseWriter, r *http.Request, matchID uuid.UUID) {
	ctx := r.Context()

	match, err := s.repos.Match.GetByID(ctx, matchID)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	markets, err := s.repos.Market.GetByMatch(ctx, matchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	view := matchView{Match: match, Markets: make([]marketView, 0, len(markets))}
	for _, market := range markets {
		outcomes, err := s.repos.Outcome.GetByMarket(ctx, market.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		view.Markets = append(view.Markets, marketView{Market: market, Outcomes: outcomes})
	}

	wagers, err := s.repos.Wager.GetPendingByMatch(ctx, matchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, wager := range wagers {
		wv := wagerView{Wager: wager}
		if ticket, err := s.repos.Ticket.GetByID(ctx, wager.TicketID); err == nil {
			wv.Ticket = ticket
		}
		view.Wagers = append(view.Wagers, wv)
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) triggerOddsSync(w http.ResponseWriter, r *http.Request, matchID uuid.UUID) {
	s.audit.LogManualTrigger("match", matchID.String(), "sync_odds", operatorFrom(r))

	if err := s.orchestrator.SyncMatchOdds(r.Context(), matchID); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) triggerSettlement(w http.ResponseWriter, r *http.Request, matchID uuid.UUID) {
	s.audit.LogManualTrigger("match", matchID.String(), "settle", operatorFrom(r))

	match, err := s.repos.Match.GetByID(r.Context(), matchID)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if err := s.engine.SettleMatch(r.Context(), match); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTicket routes /admin/tickets/{id} and /admin/tickets/{id}/settle
func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/tickets/")
	parts := strings.SplitN(rest, "/", 2)

	ticketID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ticket, err := s.repos.Ticket.GetByID(r.Context(), ticketID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		wagers, err := s.repos.Wager.GetByTicket(r.Context(), ticketID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ticket": ticket,
			"wagers": wagers,
		})
		return
	}

	if r.Method != http.MethodPost || parts[1] != "settle" {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	s.audit.LogManualTrigger("ticket", ticketID.String(), "settle", operatorFrom(r))

	if err := s.engine.SettleTicket(r.Context(), ticketID); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRateBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	used, limit, resetIn, err := s.governor.Remaining(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"used":     used,
		"limit":    limit,
		"reset_in": resetIn.String(),
	})
}

func (s *Server) handleRunIngestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.audit.LogManualTrigger("pipeline", "", "ingestion_run", operatorFrom(r))

	if err := s.orchestrator.Run(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRunSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.audit.LogManualTrigger("pipeline", "", "sweep_run", operatorFrom(r))

	if err := s.reconciler.Run(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func operatorFrom(r *http.Request) string {
	if op := r.Header.Get(operatorHeader); op != "" {
		return op
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
