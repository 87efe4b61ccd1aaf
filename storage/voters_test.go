package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"election-backend/models"
)

func testVoter(id, email, reg string) *models.Voter {
	return &models.Voter{
		ID:         id,
		Email:      email,
		Name:       "Test Voter",
		RegNumber:  reg,
		ClassLevel: models.Class300,
		Gender:     models.GenderFemale,
		Age:        21,
	}
}

func TestCreateVoterRejectsDuplicates(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.CreateVoter(testVoter("v1", "a@example.com", "2023/111111")))

	assert.ErrorIs(t, s.CreateVoter(testVoter("v2", "A@Example.com", "2023/222222")), ErrDuplicate)
	assert.ErrorIs(t, s.CreateVoter(testVoter("v3", "b@example.com", "2023/111111")), ErrDuplicate)
}

func TestSetHasVotedCompareAndSet(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.CreateVoter(testVoter("v1", "a@example.com", "2023/111111")))

	require.NoError(t, s.SetHasVoted("v1", false, true))

	// A second transition from false must observe the conflict.
	assert.ErrorIs(t, s.SetHasVoted("v1", false, true), ErrConflict)

	v, err := s.Voter("v1")
	require.NoError(t, err)
	assert.True(t, v.HasVoted)

	assert.ErrorIs(t, s.SetHasVoted("missing", false, true), ErrNotFound)
}

func TestUpdateVoterCannotTouchHasVoted(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.CreateVoter(testVoter("v1", "a@example.com", "2023/111111")))
	require.NoError(t, s.SetHasVoted("v1", false, true))

	v, err := s.Voter("v1")
	require.NoError(t, err)
	v.Name = "Renamed"
	v.HasVoted = false
	require.NoError(t, s.UpdateVoter(v))

	got, err := s.Voter("v1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.HasVoted)
}

func TestEligibleRoll(t *testing.T) {
	s, _ := newTestStore(t)

	rows := []models.EligibleVoter{
		{RegNumber: "2023/111111", PhoneNumber: "08031111111", ClassLevel: models.Class300},
		{RegNumber: "2024/222222", PhoneNumber: "08032222222", ClassLevel: models.Class200},
	}
	require.NoError(t, s.ReplaceEligibleRoll(rows))
	assert.Equal(t, 2, s.EligibleRollSize())

	_, ok := s.EligibleMatch("2023/111111", "08031111111")
	assert.True(t, ok)

	_, ok = s.EligibleMatch("2023/111111", "wrong-phone")
	assert.False(t, ok)

	require.NoError(t, s.ReplaceEligibleRoll(rows[:1]))
	assert.Equal(t, 1, s.EligibleRollSize())
}

func TestVoterByEmail(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.CreateVoter(testVoter("v1", "a@example.com", "2023/111111")))

	v, err := s.VoterByEmail("A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "v1", v.ID)

	_, err = s.VoterByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
