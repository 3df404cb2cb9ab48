package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardgate/internal/cardgate/service"
	"cardgate/internal/cardgate/store"
	"cardgate/internal/cardgate/types"
)

// FeedStatusReporter is the slice of the scan feed the status endpoint
// needs.
type FeedStatusReporter interface {
	Status() types.FeedStatus
}

type Dependencies struct {
	Logger       *log.Logger
	Addr         string
	Decision     *service.DecisionService
	Registration *service.RegistrationService
	Audit        *service.AuditLog
	Feed         FeedStatusReporter
}

type Server struct {
	httpServer   *http.Server
	logger       *log.Logger
	mux          *http.ServeMux
	decision     *service.DecisionService
	registration *service.RegistrationService
	audit        *service.AuditLog
	feed         FeedStatusReporter
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:       d.Logger,
		mux:          mux,
		decision:     d.Decision,
		registration: d.Registration,
		audit:        d.Audit,
		feed:         d.Feed,
	}

	mux.HandleFunc("POST /v1/scan", s.handleScan)
	// Legacy path the serial bridge posts to.
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("POST /v1/register", s.handleRegister)
	mux.HandleFunc("GET /v1/access-log", s.handleAccessLog)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	verdict, err := s.decision.Decide(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCardUID) {
			writeError(w, http.StatusBadRequest, "invalid_card_uid", err.Error())
			return
		}
		s.logger.Printf("scan error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

type registerResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegistrationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	err := s.registration.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDisplayName),
			errors.Is(err, service.ErrInvalidCardUID),
			errors.Is(err, service.ErrInvalidAccessLevel):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		case errors.Is(err, store.ErrDuplicateCard):
			writeError(w, http.StatusConflict, "duplicate_card", err.Error())
			return
		default:
			s.logger.Printf("register error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
	}

	writeJSON(w, http.StatusOK, registerResponse{Success: true})
}

type accessLogResponse struct {
	Entries []types.AccessLogEntry `json:"entries"`
}

func (s *Server) handleAccessLog(w http.ResponseWriter, r *http.Request) {
	limit := service.MaxRecentEntries
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = n
	}

	entries := s.audit.Recent(r.Context(), limit)
	writeJSON(w, http.StatusOK, accessLogResponse{Entries: entries})
}

type statusResponse struct {
	Reader     types.FeedStatus `json:"reader"`
	ServerTime string           `json:"serverTime"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Reader:     s.feed.Status(),
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
