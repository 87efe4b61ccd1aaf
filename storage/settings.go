package storage

import "election-backend/models"

// SetWindow replaces the election schedule. Window ordering is validated
// here so a misconfigured schedule is rejected at write time instead of
// silently closing the election.
func (s *Store) SetWindow(w models.ElectionWindow) error {
	if err := w.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.window = &w
	return s.persistLocked(settingsFile, s.window)
}

// Window returns the configured election schedule, or ErrNotFound when none
// has been set.
func (s *Store) Window() (*models.ElectionWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.window == nil {
		return nil, ErrNotFound
	}
	cp := *s.window
	return &cp, nil
}
