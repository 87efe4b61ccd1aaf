package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/benbjohnson/clock"

	"election-backend/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist,
	// including tokens that have expired.
	ErrNotFound = errors.New("storage: not found")

	// ErrDuplicateCode is the uniqueness-constraint violation for live
	// ballot codes.
	ErrDuplicateCode = errors.New("storage: ballot code already in use")

	// ErrDuplicate is returned when a voter or candidate collides with an
	// existing record.
	ErrDuplicate = errors.New("storage: record already exists")

	// ErrConflict is the compare-and-set failure: the stored value did not
	// match the expected one.
	ErrConflict = errors.New("storage: conflicting concurrent update")
)

const (
	votersFile     = "voters.json"
	eligibleFile   = "eligible_voters.json"
	candidatesFile = "candidates.json"
	tokensFile     = "tokens.json"
	settingsFile   = "settings.json"
)

// Store keeps every collection in memory and mirrors mutations to JSON files.
// A single mutex serializes all mutations, which is what makes token
// insertion, take-token, and the hasVoted compare-and-set atomic at the
// store rather than at the caller.
type Store struct {
	basePath string
	mu       sync.Mutex
	clk      clock.Clock

	voters     map[string]*models.Voter
	eligible   []models.EligibleVoter
	candidates map[string]*models.Candidate
	tokens     map[string]*models.BallotToken
	window     *models.ElectionWindow
}

// Open loads the collections found under basePath, creating the directory if
// needed. The clock is used for token expiry checks at lookup time.
func Open(basePath string, clk clock.Clock) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	s := &Store{
		basePath:   basePath,
		clk:        clk,
		voters:     make(map[string]*models.Voter),
		eligible:   make([]models.EligibleVoter, 0),
		candidates: make(map[string]*models.Candidate),
		tokens:     make(map[string]*models.BallotToken),
	}

	var voters []*models.Voter
	if err := s.loadFile(votersFile, &voters); err != nil {
		return nil, err
	}
	for _, v := range voters {
		s.voters[v.ID] = v
	}

	if err := s.loadFile(eligibleFile, &s.eligible); err != nil {
		return nil, err
	}

	var candidates []*models.Candidate
	if err := s.loadFile(candidatesFile, &candidates); err != nil {
		return nil, err
	}
	for _, c := range candidates {
		s.candidates[c.ID] = c
	}

	var tokens []*models.BallotToken
	if err := s.loadFile(tokensFile, &tokens); err != nil {
		return nil, err
	}
	for _, t := range tokens {
		s.tokens[t.Code] = t
	}

	var window models.ElectionWindow
	switch err := s.loadFile(settingsFile, &window); {
	case err == nil:
		if !window.VotingStart.IsZero() {
			s.window = &window
		}
	default:
		return nil, err
	}

	return s, nil
}

func (s *Store) loadFile(name string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.basePath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %v", name, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %v", name, err)
	}
	return nil
}

// persistLocked writes a collection to its file via a temporary file and an
// atomic rename. Callers must hold s.mu.
func (s *Store) persistLocked(name string, v interface{}) error {
	path := filepath.Join(s.basePath, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", name, err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %v", name, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save %s: %v", name, err)
	}

	return nil
}
