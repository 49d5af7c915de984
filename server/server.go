// Package server is the HTTP transport for the registration and approval
// flows. It exposes the JSON registration endpoint the web form posts to
// and the two HTML link endpoints the admin email points at.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/andre-2112/cloud-cli-access/registration"
	"github.com/andre-2112/cloud-cli-access/token"
)

// Server delegates to the registration services; no business logic lives
// in the transport layer.
type Server struct {
	reg       *registration.Service
	approvals *registration.ApprovalHandler
	baseURL   string
	log       *log.Logger
}

func New(reg *registration.Service, approvals *registration.ApprovalHandler, baseURL string, logger *log.Logger) *Server {
	return &Server{
		reg:       reg,
		approvals: approvals,
		baseURL:   baseURL,
		log:       logger,
	}
}

// Router wires the public endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/register", s.handleRegister)
	r.Get("/approve", s.handleApprove)
	r.Get("/deny", s.handleDeny)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registration.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	res, err := s.reg.Register(r.Context(), req, s.linkBase(r))
	if err != nil {
		var verr *registration.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
			return
		}
		s.log.Printf("register: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to submit registration"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Registration submitted successfully",
		"status":  res.Status,
	})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		s.renderError(w, http.StatusBadRequest, "Missing token")
		return
	}

	outcome, err := s.approvals.Approve(r.Context(), tok)
	if err != nil {
		s.renderDecisionError(w, "approve", err)
		return
	}

	switch outcome.Decision {
	case registration.DecisionExists:
		s.render(w, http.StatusOK, pageUserExists, outcome.User)
	default:
		s.render(w, http.StatusOK, pageApproved, outcome.User)
	}
}

func (s *Server) handleDeny(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		s.renderError(w, http.StatusBadRequest, "Missing token")
		return
	}

	outcome, err := s.approvals.Deny(r.Context(), tok)
	if err != nil {
		s.renderDecisionError(w, "deny", err)
		return
	}

	s.render(w, http.StatusOK, pageDenied, outcome.User)
}

// renderDecisionError maps decision failures to pages. All token failures
// collapse into one generic message so the page never reveals which check
// rejected a forged link; directory failures go to the admin with detail.
func (s *Server) renderDecisionError(w http.ResponseWriter, op string, err error) {
	var dirErr *registration.DirectoryError
	if errors.As(err, &dirErr) {
		s.log.Printf("%s: %v", op, err)
		s.renderError(w, http.StatusInternalServerError, "Error updating directory: "+dirErr.Error())
		return
	}

	if isTokenError(err) {
		s.log.Printf("%s: rejected token: %v", op, err)
		s.renderError(w, http.StatusBadRequest, "Invalid or expired link")
		return
	}

	s.log.Printf("%s: %v", op, err)
	s.renderError(w, http.StatusInternalServerError, "Internal error")
}

func isTokenError(err error) bool {
	return errors.Is(err, token.ErrMalformed) ||
		errors.Is(err, token.ErrInvalidSignature) ||
		errors.Is(err, token.ErrInvalidAction) ||
		errors.Is(err, token.ErrExpired)
}

// linkBase picks the root for generated approval links: configuration
// wins, the request Host is the fallback.
func (s *Server) linkBase(r *http.Request) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	scheme := "https"
	if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
		scheme = "http"
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
