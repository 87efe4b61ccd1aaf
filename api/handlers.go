package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"election-backend/models"
	"election-backend/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type initiateBallotResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type castVoteRequest struct {
	Code        string `json:"code"`
	CandidateID string `json:"candidate_id"`
}

type candidateRequest struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Photo    string `json:"photo"`
}

type settingsRequest struct {
	VotingStart     time.Time `json:"voting_start"`
	VotingEnd       time.Time `json:"voting_end"`
	RegistrationEnd time.Time `json:"registration_end"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", service.ErrValidation))
		return
	}

	if _, err := s.auth.Register(req); err != nil {
		writeError(w, err)
		return
	}

	token, _, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", service.ErrValidation))
		return
	}

	token, _, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleInitiateBallot(w http.ResponseWriter, r *http.Request) {
	voter := voterFrom(r)

	code, err := s.ballots.InitiateBallot(voter.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	// The code is returned in the response until a messaging integration
	// takes over delivery, mirroring the notifier hand-off.
	writeJSON(w, http.StatusOK, initiateBallotResponse{
		Message: "Ballot code generated. Check your phone.",
		Code:    code,
	})
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", service.ErrValidation))
		return
	}

	if err := s.ballots.CastVote(req.Code, req.CandidateID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Candidates())
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	window, err := s.store.Window()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", service.ErrValidation))
		return
	}
	if req.Name == "" || req.Position == "" {
		writeError(w, fmt.Errorf("%w: name and position are required", service.ErrValidation))
		return
	}

	candidate := &models.Candidate{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Position:  req.Position,
		Photo:     req.Photo,
		CreatedAt: time.Now(),
	}
	if err := s.store.PutCandidate(candidate); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, candidate)
}

func (s *Server) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	existing, err := s.store.Candidate(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req candidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", service.ErrValidation))
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Position != "" {
		existing.Position = req.Position
	}
	if req.Photo != "" {
		existing.Photo = req.Photo
	}

	if err := s.store.PutCandidate(existing); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCandidate(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSetSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", service.ErrValidation))
		return
	}

	window := models.ElectionWindow{
		VotingStart:     req.VotingStart,
		VotingEnd:       req.VotingEnd,
		RegistrationEnd: req.RegistrationEnd,
	}
	if err := s.store.SetWindow(window); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrValidation, err))
		return
	}

	writeJSON(w, http.StatusOK, window)
}

// handleUploadRoll replaces the eligible-voter roll from a CSV request body.
func (s *Server) handleUploadRoll(w http.ResponseWriter, r *http.Request) {
	rows, err := service.ParseEligibleRoll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.ReplaceEligibleRoll(rows); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": fmt.Sprintf("%d eligible voters uploaded", len(rows)),
		"count":   len(rows),
	})
}

func (s *Server) handleListVoters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Voters())
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.results.Tally()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type ledgerStatusResponse struct {
	Blocks   int                          `json:"blocks"`
	HeadHash string                       `json:"head_hash"`
	Valid    bool                         `json:"valid"`
	Turnout  *service.TurnoutVerification `json:"turnout"`
}

func (s *Server) handleLedgerStatus(w http.ResponseWriter, r *http.Request) {
	turnout, err := s.results.VerifyTurnout()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ledgerStatusResponse{
		Blocks:   s.votes.Count(),
		HeadHash: hex.EncodeToString(s.votes.HeadHash()),
		Valid:    s.votes.Verify(),
		Turnout:  turnout,
	})
}
