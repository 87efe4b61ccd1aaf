package storage

import (
	"sort"

	"election-backend/models"
)

// InsertToken persists a new ballot token, enforcing uniqueness of the code
// among live tokens. An expired token occupying the same code is discarded
// rather than counted as a collision. This is the authoritative uniqueness
// guard; the issuer's generate-and-retry loop merely reacts to
// ErrDuplicateCode.
func (s *Store) InsertToken(t *models.BallotToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tokens[t.Code]; ok {
		if !existing.Expired(s.clk.Now()) {
			return ErrDuplicateCode
		}
		delete(s.tokens, t.Code)
	}

	cp := *t
	s.tokens[cp.Code] = &cp
	return s.persistTokensLocked()
}

// TakeToken finds and removes the token for code in one critical section.
// Missing and expired tokens are both ErrNotFound, so a caller cannot tell
// "never issued" from "expired" from "already redeemed". Exactly one of two
// racing callers can receive the token.
func (s *Store) TakeToken(code string) (*models.BallotToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[code]
	if !ok {
		return nil, ErrNotFound
	}

	delete(s.tokens, code)
	if t.Expired(s.clk.Now()) {
		// Drop the stale entry but report it as absent.
		if err := s.persistTokensLocked(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	if err := s.persistTokensLocked(); err != nil {
		return nil, err
	}

	cp := *t
	return &cp, nil
}

// PurgeExpiredTokens removes tokens past their TTL and reports how many were
// dropped. Lookup-time expiry makes this optional housekeeping, not a
// correctness requirement.
func (s *Store) PurgeExpiredTokens() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	removed := 0
	for code, t := range s.tokens {
		if t.Expired(now) {
			delete(s.tokens, code)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persistTokensLocked()
}

// LiveTokenCount reports how many unexpired tokens are outstanding.
func (s *Store) LiveTokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	n := 0
	for _, t := range s.tokens {
		if !t.Expired(now) {
			n++
		}
	}
	return n
}

func (s *Store) persistTokensLocked() error {
	out := make([]*models.BallotToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return s.persistLocked(tokensFile, out)
}
