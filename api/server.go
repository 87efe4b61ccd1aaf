package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"election-backend/ledger"
	"election-backend/service"
	"election-backend/storage"
)

type Config struct {
	Addr string
}

type Server struct {
	cfg     Config
	ballots *service.BallotService
	auth    *service.AuthService
	results *service.ResultsService
	store   *storage.Store
	votes   *ledger.Ledger

	httpServer *http.Server
}

func NewServer(cfg Config, ballots *service.BallotService, auth *service.AuthService, results *service.ResultsService, store *storage.Store, votes *ledger.Ledger) *Server {
	s := &Server{
		cfg:     cfg,
		ballots: ballots,
		auth:    auth,
		results: results,
		store:   store,
		votes:   votes,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()

	api.Path("/auth/register").Methods(http.MethodPost).HandlerFunc(s.handleRegister)
	api.Path("/auth/login").Methods(http.MethodPost).HandlerFunc(s.handleLogin)

	api.Path("/voting/initiate").Methods(http.MethodPost).Handler(s.requireVoter(s.handleInitiateBallot))
	// Casting carries no identity: the ballot code is the only credential.
	api.Path("/voting/cast").Methods(http.MethodPost).HandlerFunc(s.handleCastVote)

	api.Path("/candidates").Methods(http.MethodGet).HandlerFunc(s.handleListCandidates)
	api.Path("/settings").Methods(http.MethodGet).HandlerFunc(s.handleGetSettings)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAdmin)
	admin.Path("/candidates").Methods(http.MethodPost).HandlerFunc(s.handleCreateCandidate)
	admin.Path("/candidates/{id}").Methods(http.MethodPut).HandlerFunc(s.handleUpdateCandidate)
	admin.Path("/candidates/{id}").Methods(http.MethodDelete).HandlerFunc(s.handleDeleteCandidate)
	admin.Path("/settings").Methods(http.MethodPost).HandlerFunc(s.handleSetSettings)
	admin.Path("/eligible-voters").Methods(http.MethodPost).HandlerFunc(s.handleUploadRoll)
	admin.Path("/voters").Methods(http.MethodGet).HandlerFunc(s.handleListVoters)
	admin.Path("/results").Methods(http.MethodGet).HandlerFunc(s.handleResults)
	admin.Path("/ledger").Methods(http.MethodGet).HandlerFunc(s.handleLedgerStatus)

	return r
}

func (s *Server) Start() error {
	log.WithField("addr", s.cfg.Addr).Info("starting election API")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Message string `json:"message"`
}

// writeError maps the service failure taxonomy onto HTTP statuses. Server
// faults are logged here and reported without internal detail.
func writeError(w http.ResponseWriter, err error) {
	var status int
	msg := err.Error()

	switch service.Classify(err) {
	case service.KindValidation, service.KindState:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindUnauthorized:
		status = http.StatusUnauthorized
	default:
		status = http.StatusInternalServerError
		log.Errorf("request failed: %v", err)
		msg = "server error"
	}

	writeJSON(w, status, errorResponse{Message: msg})
}
