package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"election-backend/models"
	"election-backend/storage"
)

// AuthService owns voter accounts and bearer sessions. It is a collaborator
// of the ballot core, not part of it: the core only ever receives the stable
// voter ID that Authenticate resolves.
type AuthService struct {
	store  *storage.Store
	eclock *ElectionClock
	clk    clock.Clock
	ttl    time.Duration

	mu       sync.Mutex
	sessions map[string]session
}

type session struct {
	voterID   string
	expiresAt time.Time
}

func NewAuthService(store *storage.Store, eclock *ElectionClock, clk clock.Clock, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		store:    store,
		eclock:   eclock,
		clk:      clk,
		ttl:      sessionTTL,
		sessions: make(map[string]session),
	}
}

// RegistrationRequest carries the fields a voter submits to create an
// account.
type RegistrationRequest struct {
	Email       string            `json:"email"`
	Password    string            `json:"password"`
	Name        string            `json:"name"`
	RegNumber   string            `json:"reg_number"`
	PhoneNumber string            `json:"phone_number"`
	ClassLevel  models.ClassLevel `json:"class_level"`
	Gender      models.Gender     `json:"gender"`
	Age         int               `json:"age"`
}

// Register creates a voter account after checking the eligible-voter roll.
// The submitted registration number and phone number must match a roll entry
// exactly.
func (a *AuthService) Register(req RegistrationRequest) (*models.Voter, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	if !a.eclock.RegistrationOpenAt(a.clk.Now()) {
		return nil, ErrRegistrationClosed
	}

	if _, ok := a.store.EligibleMatch(req.RegNumber, req.PhoneNumber); !ok {
		return nil, ErrNotEligible
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	voter := &models.Voter{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		RegNumber:    req.RegNumber,
		PhoneNumber:  req.PhoneNumber,
		ClassLevel:   req.ClassLevel,
		Gender:       req.Gender,
		Age:          req.Age,
		RegisteredAt: a.clk.Now(),
	}

	if err := a.store.CreateVoter(voter); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("failed to create voter: %w", err)
	}

	log.WithField("reg_number", voter.RegNumber).Info("voter account registered")
	return voter, nil
}

// Login verifies credentials and opens a session, returning the opaque
// bearer token.
func (a *AuthService) Login(email, password string) (string, *models.Voter, error) {
	voter, err := a.store.VoterByEmail(email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up voter: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(voter.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.New().String()

	a.mu.Lock()
	a.sessions[token] = session{voterID: voter.ID, expiresAt: a.clk.Now().Add(a.ttl)}
	a.mu.Unlock()

	return token, voter, nil
}

// Authenticate resolves a bearer token to the voter it belongs to.
func (a *AuthService) Authenticate(token string) (*models.Voter, error) {
	a.mu.Lock()
	sess, ok := a.sessions[token]
	if ok && a.clk.Now().After(sess.expiresAt) {
		delete(a.sessions, token)
		ok = false
	}
	a.mu.Unlock()

	if !ok {
		return nil, ErrSessionExpired
	}

	voter, err := a.store.Voter(sess.voterID)
	if err != nil {
		return nil, ErrSessionExpired
	}
	return voter, nil
}

func (a *AuthService) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

func validateRegistration(req RegistrationRequest) error {
	switch {
	case req.Email == "":
		return fmt.Errorf("%w: email is required", ErrValidation)
	case len(req.Password) < 8:
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	case req.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case !models.ValidRegNumber(req.RegNumber):
		return fmt.Errorf("%w: registration number must look like 2023/123456", ErrValidation)
	case req.PhoneNumber == "":
		return fmt.Errorf("%w: phone number is required", ErrValidation)
	case !req.ClassLevel.Valid():
		return fmt.Errorf("%w: unknown class level %q", ErrValidation, req.ClassLevel)
	case !req.Gender.Valid():
		return fmt.Errorf("%w: unknown gender %q", ErrValidation, req.Gender)
	case req.Age <= 0:
		return fmt.Errorf("%w: age is required", ErrValidation)
	}
	return nil
}
