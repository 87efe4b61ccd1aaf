package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"election-backend/models"
	"election-backend/service"
)

type contextKey int

const voterKey contextKey = iota

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request handled")
	})
}

// bearerVoter resolves the Authorization header to a voter, or nil when the
// request carries no usable session.
func (s *Server) bearerVoter(r *http.Request) *models.Voter {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return nil
	}
	voter, err := s.auth.Authenticate(token)
	if err != nil {
		return nil
	}
	return voter
}

// requireVoter authenticates the session and passes the voter through the
// request context.
func (s *Server) requireVoter(next func(http.ResponseWriter, *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		voter := s.bearerVoter(r)
		if voter == nil {
			writeError(w, service.ErrSessionExpired)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), voterKey, voter)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		voter := s.bearerVoter(r)
		if voter == nil {
			writeError(w, service.ErrSessionExpired)
			return
		}
		if !voter.IsAdmin {
			writeJSON(w, http.StatusForbidden, errorResponse{Message: "admin access required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), voterKey, voter)))
	})
}

func voterFrom(r *http.Request) *models.Voter {
	v, _ := r.Context().Value(voterKey).(*models.Voter)
	return v
}
