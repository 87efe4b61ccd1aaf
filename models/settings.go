package models

import (
	"errors"
	"time"
)

// ElectionWindow is the configured election schedule. The ballot core only
// reads VotingStart and VotingEnd; RegistrationEnd gates account creation.
type ElectionWindow struct {
	VotingStart     time.Time `json:"voting_start"`
	VotingEnd       time.Time `json:"voting_end"`
	RegistrationEnd time.Time `json:"registration_end"`
}

// Validate rejects windows that are not ordered
// registrationEnd <= votingStart < votingEnd.
func (w *ElectionWindow) Validate() error {
	if w.VotingStart.IsZero() || w.VotingEnd.IsZero() {
		return errors.New("voting start and end must be set")
	}
	if !w.VotingStart.Before(w.VotingEnd) {
		return errors.New("voting start must be before voting end")
	}
	if !w.RegistrationEnd.IsZero() && w.RegistrationEnd.After(w.VotingStart) {
		return errors.New("registration must end before voting starts")
	}
	return nil
}

// Contains reports whether now falls inside the voting window, boundaries
// included.
func (w *ElectionWindow) Contains(now time.Time) bool {
	return !now.Before(w.VotingStart) && !now.After(w.VotingEnd)
}
