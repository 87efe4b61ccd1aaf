package service

import (
	"errors"

	"election-backend/storage"
)

// Failure sentinels for the ballot protocol and its collaborators. Handlers
// classify them with Classify to pick a transport status.
var (
	ErrVoterNotFound       = errors.New("voter not found")
	ErrAlreadyVoted        = errors.New("you have already voted")
	ErrVotingClosed        = errors.New("voting is not currently open")
	ErrTokenSpaceExhausted = errors.New("could not allocate a unique ballot code")
	ErrInvalidCode         = errors.New("invalid or expired ballot code")
	ErrCandidateNotFound   = errors.New("selected candidate not found")

	ErrNotEligible        = errors.New("not registered to vote, contact the admin")
	ErrDuplicateAccount   = errors.New("an account with this email or registration number already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session is invalid or has expired")
	ErrRegistrationClosed = errors.New("registration has closed")
)

// ErrorKind groups failures by how the caller should treat them.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota

	// KindValidation: malformed input.
	KindValidation

	// KindNotFound: voter, candidate or token absent.
	KindNotFound

	// KindState: the operation is valid but the system state forbids it
	// (already voted, window closed, code consumed or expired).
	KindState

	// KindExhaustion: a bounded resource ran out; a server-side fault.
	KindExhaustion

	// KindPersistence: the storage layer failed.
	KindPersistence

	// KindUnauthorized: missing or unusable credentials.
	KindUnauthorized
)

// Classify maps an error onto the failure taxonomy. Unrecognized errors are
// treated as persistence failures: if the service cannot name the problem,
// the storage layer is the usual suspect and the caller gets a server error.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrVoterNotFound), errors.Is(err, ErrCandidateNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyVoted),
		errors.Is(err, ErrVotingClosed),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrRegistrationClosed):
		return KindState
	case errors.Is(err, ErrTokenSpaceExhausted):
		return KindExhaustion
	case errors.Is(err, ErrNotEligible),
		errors.Is(err, ErrDuplicateAccount),
		errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrSessionExpired):
		return KindUnauthorized
	case errors.Is(err, storage.ErrNotFound):
		return KindNotFound
	default:
		return KindPersistence
	}
}

// ErrValidation is the base error for malformed request input. Wrap it with
// fmt.Errorf("%w: detail") so Classify still recognizes the kind.
var ErrValidation = errors.New("invalid input")
