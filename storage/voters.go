package storage

import (
	"sort"
	"strings"

	"election-backend/models"
)

// CreateVoter adds a new voter account. Email and registration number must
// both be unused.
func (s *Store) CreateVoter(v *models.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.voters {
		if strings.EqualFold(existing.Email, v.Email) || existing.RegNumber == v.RegNumber {
			return ErrDuplicate
		}
	}

	cp := *v
	s.voters[cp.ID] = &cp
	return s.persistVotersLocked()
}

func (s *Store) Voter(id string) (*models.Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.voters[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *Store) VoterByEmail(email string) (*models.Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.voters {
		if strings.EqualFold(v.Email, email) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateVoter overwrites an existing voter record. The hasVoted flag is not
// writable through this path; use SetHasVoted so the transition stays a
// compare-and-set.
func (s *Store) UpdateVoter(v *models.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.voters[v.ID]
	if !ok {
		return ErrNotFound
	}

	cp := *v
	cp.HasVoted = existing.HasVoted
	s.voters[cp.ID] = &cp
	return s.persistVotersLocked()
}

// SetHasVoted flips the voter's hasVoted flag from the expected value to the
// new one in a single critical section. A mismatch with the stored value
// reports ErrConflict, which is how a losing concurrent issuance observes
// that the flag was already taken.
func (s *Store) SetHasVoted(id string, from, to bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.voters[id]
	if !ok {
		return ErrNotFound
	}
	if v.HasVoted != from {
		return ErrConflict
	}

	v.HasVoted = to
	return s.persistVotersLocked()
}

// Voters returns copies of all voter accounts, ordered by registration number.
func (s *Store) Voters() []*models.Voter {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Voter, 0, len(s.voters))
	for _, v := range s.voters {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegNumber < out[j].RegNumber })
	return out
}

// ReplaceEligibleRoll swaps the entire eligible-voter roll, matching the
// admin bulk-upload semantics.
func (s *Store) ReplaceEligibleRoll(rows []models.EligibleVoter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.eligible = make([]models.EligibleVoter, len(rows))
	copy(s.eligible, rows)
	return s.persistLocked(eligibleFile, s.eligible)
}

// EligibleMatch looks up a roll entry by registration number and phone number.
func (s *Store) EligibleMatch(regNumber, phoneNumber string) (models.EligibleVoter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.eligible {
		if e.RegNumber == regNumber && e.PhoneNumber == phoneNumber {
			return e, true
		}
	}
	return models.EligibleVoter{}, false
}

func (s *Store) EligibleRollSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.eligible)
}

func (s *Store) persistVotersLocked() error {
	out := make([]*models.Voter, 0, len(s.voters))
	for _, v := range s.voters {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return s.persistLocked(votersFile, out)
}
