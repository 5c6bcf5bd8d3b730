package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turnstile-labs/turnstile/internal/turnstile/broadcast"
	"github.com/turnstile-labs/turnstile/internal/turnstile/counter"
	"github.com/turnstile-labs/turnstile/internal/turnstile/service"
	"github.com/turnstile-labs/turnstile/internal/turnstile/store"
	"github.com/turnstile-labs/turnstile/internal/turnstile/types"
)

type Dependencies struct {
	Logger         *log.Logger
	Addr           string
	CheckinService *service.CheckinService
	InviteService  *service.InviteService
	Counter        *counter.Store
	Hub            *broadcast.Hub
	Auth           *Authenticator
}

type Server struct {
	httpServer     *http.Server
	logger         *log.Logger
	mux            *http.ServeMux
	checkinService *service.CheckinService
	inviteService  *service.InviteService
	counter        *counter.Store
	hub            *broadcast.Hub
	auth           *Authenticator
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:         d.Logger,
		mux:            mux,
		checkinService: d.CheckinService,
		inviteService:  d.InviteService,
		counter:        d.Counter,
		hub:            d.Hub,
		auth:           d.Auth,
	}

	mux.HandleFunc("POST /v1/checkin", s.requireRole(s.handleCheckin, RoleStaff, RoleAdmin, RoleSuperAdmin))
	mux.HandleFunc("POST /v1/checkin/sync", s.requireRole(s.handleCheckinSync, RoleStaff, RoleAdmin, RoleSuperAdmin))
	mux.HandleFunc("GET /v1/invites/{token}", s.handleGuestInvite)
	mux.HandleFunc("GET /v1/events/{id}/inside", s.requireRole(s.handleInsideCount, RoleStaff, RoleAdmin, RoleSuperAdmin))
	mux.HandleFunc("POST /v1/events/{id}/inside/reset", s.requireRole(s.handleInsideReset, RoleAdmin, RoleSuperAdmin))
	mux.HandleFunc("GET /v1/ws", s.handleWS)
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

func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	var req types.CheckinRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	res, err := s.checkinService.Process(r.Context(), req)
	if err != nil {
		s.writeCheckinError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCheckinSync(w http.ResponseWriter, r *http.Request) {
	var req types.SyncRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if len(req.Entries) == 0 {
		writeError(w, http.StatusBadRequest, "empty_batch", "entries must not be empty")
		return
	}

	// Per-entry failures land inside the outcome list; the batch itself
	// always succeeds.
	outcomes := s.checkinService.ProcessSync(r.Context(), req.Entries)
	writeJSON(w, http.StatusOK, outcomes)
}

func (s *Server) handleGuestInvite(w http.ResponseWriter, r *http.Request) {
	view, err := s.inviteService.GuestView(r.Context(), r.PathValue("token"))
	if err != nil {
		if errors.Is(err, store.ErrInviteNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Invite not found")
			return
		}
		s.logger.Printf("guest invite error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleInsideCount(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	writeJSON(w, http.StatusOK, types.InsideCountResponse{
		EventID:     eventID,
		InsideCount: s.counter.Get(r.Context(), eventID),
	})
}

func (s *Server) handleInsideReset(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	s.counter.Reset(r.Context(), eventID)
	writeJSON(w, http.StatusOK, types.InsideCountResponse{
		EventID:     eventID,
		InsideCount: 0,
	})
}

func (s *Server) writeCheckinError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid_code", err.Error())
	case errors.Is(err, service.ErrInvalidGate):
		writeError(w, http.StatusBadRequest, "invalid_gate", err.Error())
	case errors.Is(err, store.ErrInviteNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Invite not found")
	default:
		s.logger.Printf("checkin error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}
