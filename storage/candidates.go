package storage

import (
	"sort"

	"election-backend/models"
)

func (s *Store) PutCandidate(c *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	s.candidates[cp.ID] = &cp
	return s.persistCandidatesLocked()
}

func (s *Store) Candidate(id string) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) DeleteCandidate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.candidates[id]; !ok {
		return ErrNotFound
	}
	delete(s.candidates, id)
	return s.persistCandidatesLocked()
}

// Candidates returns copies of all candidates grouped by position.
func (s *Store) Candidates() []*models.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *Store) persistCandidatesLocked() error {
	out := make([]*models.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return s.persistLocked(candidatesFile, out)
}
