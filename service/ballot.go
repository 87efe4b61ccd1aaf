package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"election-backend/ledger"
	"election-backend/models"
	"election-backend/storage"
)

// maxCodeAttempts bounds the generate-and-insert loop during issuance.
// Exhausting it means the live code space is effectively saturated, which is
// a server fault, not a user error.
const maxCodeAttempts = 5

// Notifier hands a freshly issued ballot code off for out-of-band delivery.
// Delivery success or failure is never observed by the ballot protocol.
type Notifier interface {
	Deliver(phoneNumber, code string)
}

// LogNotifier logs the issued code instead of delivering it. Stand-in until
// a messaging integration exists.
type LogNotifier struct{}

func (LogNotifier) Deliver(phoneNumber, code string) {
	log.WithField("phone", phoneNumber).Info("ballot code generated for out-of-band delivery")
}

// BallotService runs the ballot-anonymization protocol: one-time code
// issuance decoupled from vote casting, the voting-window gate, and the
// double-vote guard.
type BallotService struct {
	store    *storage.Store
	votes    *ledger.Ledger
	eclock   *ElectionClock
	clk      clock.Clock
	notifier Notifier

	// newCode is swappable so tests can force collisions.
	newCode func() (string, error)
}

func NewBallotService(store *storage.Store, votes *ledger.Ledger, eclock *ElectionClock, clk clock.Clock, notifier Notifier) *BallotService {
	return &BallotService{
		store:    store,
		votes:    votes,
		eclock:   eclock,
		clk:      clk,
		notifier: notifier,
		newCode:  NewBallotCode,
	}
}

// NewBallotCode draws a 6-character code uniformly from the A-Z0-9 alphabet.
func NewBallotCode() (string, error) {
	buf := make([]byte, models.CodeLength)
	max := big.NewInt(int64(len(models.CodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw code symbol: %v", err)
		}
		buf[i] = models.CodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// InitiateBallot issues a one-time ballot code for the voter. Preconditions
// are checked in order: the voter must exist, must not have voted, and the
// voting window must be open. The token is durably written before the
// hasVoted flag flips; a crash between the two writes is a known gap that is
// bounded by this ordering, not eliminated.
func (s *BallotService) InitiateBallot(voterID string) (string, error) {
	voter, err := s.store.Voter(voterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrVoterNotFound
		}
		return "", fmt.Errorf("failed to load voter: %w", err)
	}

	if voter.HasVoted {
		return "", ErrAlreadyVoted
	}

	if !s.eclock.IsOpen() {
		return "", ErrVotingClosed
	}

	token, err := s.allocateToken(voterID)
	if err != nil {
		return "", err
	}

	// Claim the voter's single ballot. The compare-and-set is the guard
	// against two concurrent issuances for the same voter: the loser sees
	// ErrConflict, discards its own token, and reports AlreadyVoted.
	if err := s.store.SetHasVoted(voterID, false, true); err != nil {
		if _, takeErr := s.store.TakeToken(token.Code); takeErr != nil && !errors.Is(takeErr, storage.ErrNotFound) {
			log.WithField("voter", voterID).Errorf("failed to discard orphaned ballot token: %v", takeErr)
		}
		switch {
		case errors.Is(err, storage.ErrConflict):
			return "", ErrAlreadyVoted
		case errors.Is(err, storage.ErrNotFound):
			return "", ErrVoterNotFound
		default:
			return "", fmt.Errorf("failed to mark voter as voted: %w", err)
		}
	}

	log.WithField("voter", voterID).Info("ballot initiated")

	if s.notifier != nil {
		s.notifier.Deliver(voter.PhoneNumber, token.Code)
	}

	return token.Code, nil
}

// allocateToken inserts a fresh token, regenerating the code on a uniqueness
// violation. The store's constraint is the authoritative guard; the loop
// only reacts to it.
func (s *BallotService) allocateToken(voterID string) (*models.BallotToken, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 5 * time.Millisecond)
		}

		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate ballot code: %w", err)
		}

		token := &models.BallotToken{
			Code:      code,
			VoterID:   voterID,
			CreatedAt: s.clk.Now(),
		}

		switch err := s.store.InsertToken(token); {
		case err == nil:
			return token, nil
		case errors.Is(err, storage.ErrDuplicateCode):
			log.WithField("attempt", attempt+1).Warn("ballot code collision, regenerating")
		default:
			return nil, fmt.Errorf("failed to persist ballot token: %w", err)
		}
	}

	log.WithField("voter", voterID).Error("ballot code space exhausted after bounded retries")
	return nil, ErrTokenSpaceExhausted
}

// CastVote redeems a ballot code for one anonymous vote. The token is
// consumed atomically first; from that point on the code can never be used
// again, even if recording the vote fails. That asymmetry favors
// "no double count" over "no lost vote" and is surfaced in the logs rather
// than hidden.
func (s *BallotService) CastVote(code, candidateID string) error {
	if !models.ValidCodeFormat(code) {
		return ErrInvalidCode
	}

	token, err := s.store.TakeToken(code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to redeem ballot token: %w", err)
	}

	// Only the demographics survive past this point; the voter reference
	// dies with the token.
	voter, err := s.store.Voter(token.VoterID)
	if err != nil {
		log.Error("ballot token consumed but voter record unavailable; this vote is lost")
		return fmt.Errorf("failed to load voter demographics: %w", err)
	}

	candidate, err := s.store.Candidate(candidateID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.WithField("candidate", candidateID).Error("ballot token consumed but candidate not found; this vote is lost")
			return ErrCandidateNotFound
		}
		return fmt.Errorf("failed to load candidate: %w", err)
	}

	vote := models.Vote{
		ID:         uuid.New().String(),
		Candidate:  candidate.ID,
		Position:   candidate.Position,
		ClassLevel: voter.ClassLevel,
		Gender:     voter.Gender,
		CastAt:     s.clk.Now().Unix(),
	}

	if err := s.votes.Append(vote); err != nil {
		log.Errorf("vote could not be recorded after token redemption; this vote is lost: %v", err)
		return fmt.Errorf("failed to record vote: %w", err)
	}

	log.WithField("position", vote.Position).Info("anonymous vote recorded")
	return nil
}
