package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"election-backend/models"
)

func validRegistration() RegistrationRequest {
	return RegistrationRequest{
		Email:       "ada@example.com",
		Password:    "correct horse",
		Name:        "Ada Lovelace",
		RegNumber:   "2023/123456",
		PhoneNumber: "08030001111",
		ClassLevel:  models.Class300,
		Gender:      models.GenderFemale,
		Age:         21,
	}
}

func newAuthEnv(t *testing.T) (*testEnv, *AuthService) {
	t.Helper()
	env := newTestEnv(t)

	// Registration has to still be open for these tests.
	require.NoError(t, env.store.SetWindow(models.ElectionWindow{
		VotingStart:     testBase.Add(2 * time.Hour),
		VotingEnd:       testBase.Add(4 * time.Hour),
		RegistrationEnd: testBase.Add(time.Hour),
	}))

	require.NoError(t, env.store.ReplaceEligibleRoll([]models.EligibleVoter{
		{RegNumber: "2023/123456", PhoneNumber: "08030001111", ClassLevel: models.Class300},
	}))

	return env, NewAuthService(env.store, env.eclock, env.mock, 5*time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	_, auth := newAuthEnv(t)

	voter, err := auth.Register(validRegistration())
	require.NoError(t, err)
	assert.NotEmpty(t, voter.ID)
	assert.False(t, voter.HasVoted)
	assert.False(t, voter.IsAdmin)

	token, loggedIn, err := auth.Login("ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, voter.ID, loggedIn.ID)

	resolved, err := auth.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, voter.ID, resolved.ID)
}

func TestRegisterNotOnRoll(t *testing.T) {
	_, auth := newAuthEnv(t)

	req := validRegistration()
	req.RegNumber = "2023/654321"
	_, err := auth.Register(req)
	assert.ErrorIs(t, err, ErrNotEligible)

	// A matching number with the wrong phone is just as ineligible.
	req = validRegistration()
	req.PhoneNumber = "08030009999"
	_, err = auth.Register(req)
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestRegisterDuplicateAccount(t *testing.T) {
	_, auth := newAuthEnv(t)

	_, err := auth.Register(validRegistration())
	require.NoError(t, err)

	_, err = auth.Register(validRegistration())
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestRegisterAfterDeadline(t *testing.T) {
	env, auth := newAuthEnv(t)

	env.mock.Set(testBase.Add(time.Hour + time.Second))
	_, err := auth.Register(validRegistration())
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterValidation(t *testing.T) {
	_, auth := newAuthEnv(t)

	cases := []struct {
		name   string
		mutate func(*RegistrationRequest)
	}{
		{"missing email", func(r *RegistrationRequest) { r.Email = "" }},
		{"short password", func(r *RegistrationRequest) { r.Password = "short" }},
		{"missing name", func(r *RegistrationRequest) { r.Name = "" }},
		{"bad reg number", func(r *RegistrationRequest) { r.RegNumber = "23/123456" }},
		{"missing phone", func(r *RegistrationRequest) { r.PhoneNumber = "" }},
		{"bad class level", func(r *RegistrationRequest) { r.ClassLevel = "700L" }},
		{"bad gender", func(r *RegistrationRequest) { r.Gender = "unknown" }},
		{"missing age", func(r *RegistrationRequest) { r.Age = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegistration()
			tc.mutate(&req)
			_, err := auth.Register(req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, auth := newAuthEnv(t)

	_, err := auth.Register(validRegistration())
	require.NoError(t, err)

	_, _, err = auth.Login("ada@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login("nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionExpiry(t *testing.T) {
	env, auth := newAuthEnv(t)

	_, err := auth.Register(validRegistration())
	require.NoError(t, err)

	token, _, err := auth.Login("ada@example.com", "correct horse")
	require.NoError(t, err)

	env.mock.Add(5*time.Hour + time.Second)
	_, err = auth.Authenticate(token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestLogout(t *testing.T) {
	_, auth := newAuthEnv(t)

	_, err := auth.Register(validRegistration())
	require.NoError(t, err)

	token, _, err := auth.Login("ada@example.com", "correct horse")
	require.NoError(t, err)

	auth.Logout(token)
	_, err = auth.Authenticate(token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}
