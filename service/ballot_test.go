package service

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"election-backend/ledger"
	"election-backend/models"
	"election-backend/storage"
)

var testBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *storage.Store
	votes   *ledger.Ledger
	mock    *clock.Mock
	eclock  *ElectionClock
	ballots *BallotService

	regSeq int
}

// newTestEnv opens a fresh store and ledger with the mock clock at testBase
// and a voting window open one hour either side of it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(testBase)

	dir := t.TempDir()
	store, err := storage.Open(dir, mock)
	require.NoError(t, err)

	votes, err := ledger.Open(filepath.Join(dir, "vote_ledger.json"), mock)
	require.NoError(t, err)

	require.NoError(t, store.SetWindow(models.ElectionWindow{
		VotingStart:     testBase.Add(-time.Hour),
		VotingEnd:       testBase.Add(time.Hour),
		RegistrationEnd: testBase.Add(-2 * time.Hour),
	}))

	eclock := NewElectionClock(store, mock)
	return &testEnv{
		store:   store,
		votes:   votes,
		mock:    mock,
		eclock:  eclock,
		ballots: NewBallotService(store, votes, eclock, mock, nil),
	}
}

func (e *testEnv) addVoter(t *testing.T, id string) {
	t.Helper()
	e.regSeq++
	require.NoError(t, e.store.CreateVoter(&models.Voter{
		ID:          id,
		Email:       id + "@example.com",
		Name:        "Voter " + id,
		RegNumber:   fmt.Sprintf("2023/%06d", e.regSeq),
		PhoneNumber: fmt.Sprintf("080300%04d", e.regSeq),
		ClassLevel:  models.Class300,
		Gender:      models.GenderFemale,
		Age:         21,
	}))
}

func (e *testEnv) addCandidate(t *testing.T, id, name, position string) {
	t.Helper()
	require.NoError(t, e.store.PutCandidate(&models.Candidate{ID: id, Name: name, Position: position}))
}

func TestInitiateBallotUnknownVoter(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ballots.InitiateBallot("missing")
	assert.ErrorIs(t, err, ErrVoterNotFound)
}

func TestInitiateBallotIssuesCode(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")

	code, err := env.ballots.InitiateBallot("v1")
	require.NoError(t, err)

	assert.Len(t, code, models.CodeLength)
	for _, c := range code {
		assert.Contains(t, models.CodeAlphabet, string(c))
	}

	assert.Equal(t, 1, env.store.LiveTokenCount())

	v, err := env.store.Voter("v1")
	require.NoError(t, err)
	assert.True(t, v.HasVoted)
}

func TestInitiateBallotSecondCallAlreadyVoted(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")

	_, err := env.ballots.InitiateBallot("v1")
	require.NoError(t, err)

	_, err = env.ballots.InitiateBallot("v1")
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	// Only one live token may ever exist for a voter.
	assert.Equal(t, 1, env.store.LiveTokenCount())
}

func TestInitiateBallotPreconditionOrder(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")
	require.NoError(t, env.store.SetHasVoted("v1", false, true))

	// Window closed AND already voted: the hasVoted check comes first.
	env.mock.Set(testBase.Add(3 * time.Hour))
	_, err := env.ballots.InitiateBallot("v1")
	assert.ErrorIs(t, err, ErrAlreadyVoted)
}

func TestInitiateBallotWindowBoundariesInclusive(t *testing.T) {
	env := newTestEnv(t)
	start := testBase.Add(-time.Hour)
	end := testBase.Add(time.Hour)

	env.addVoter(t, "v1")
	env.mock.Set(start)
	_, err := env.ballots.InitiateBallot("v1")
	assert.NoError(t, err, "issuance at votingStart must succeed")

	env.addVoter(t, "v2")
	env.mock.Set(end)
	_, err = env.ballots.InitiateBallot("v2")
	assert.NoError(t, err, "issuance at votingEnd must succeed")

	env.addVoter(t, "v3")
	env.mock.Set(start.Add(-time.Millisecond))
	_, err = env.ballots.InitiateBallot("v3")
	assert.ErrorIs(t, err, ErrVotingClosed)

	env.mock.Set(end.Add(time.Millisecond))
	_, err = env.ballots.InitiateBallot("v3")
	assert.ErrorIs(t, err, ErrVotingClosed)
}

func TestInitiateBallotRetriesOnCollision(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")
	env.addVoter(t, "v2")

	require.NoError(t, env.store.InsertToken(&models.BallotToken{
		Code: "AAAAAA", VoterID: "v2", CreatedAt: env.mock.Now(),
	}))

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	env.ballots.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	code, err := env.ballots.InitiateBallot("v1")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", code)
}

func TestInitiateBallotTokenSpaceExhausted(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")
	env.addVoter(t, "v2")

	require.NoError(t, env.store.InsertToken(&models.BallotToken{
		Code: "AAAAAA", VoterID: "v2", CreatedAt: env.mock.Now(),
	}))
	env.ballots.newCode = func() (string, error) { return "AAAAAA", nil }

	_, err := env.ballots.InitiateBallot("v1")
	assert.ErrorIs(t, err, ErrTokenSpaceExhausted)

	// The failed issuance must not burn the voter's ballot.
	v, err := env.store.Voter("v1")
	require.NoError(t, err)
	assert.False(t, v.HasVoted)
}

func TestConcurrentInitiateSameVoter(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.ballots.InitiateBallot("v1")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyVoted)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, env.store.LiveTokenCount())
}

func TestCastVoteRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")
	env.addCandidate(t, "cand-x", "Ada", "President")

	code, err := env.ballots.InitiateBallot("v1")
	require.NoError(t, err)

	require.NoError(t, env.ballots.CastVote(code, "cand-x"))

	votes, err := env.votes.Votes()
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "cand-x", votes[0].Candidate)
	assert.Equal(t, "President", votes[0].Position)
	assert.Equal(t, models.Class300, votes[0].ClassLevel)
	assert.Equal(t, models.GenderFemale, votes[0].Gender)

	assert.Equal(t, 0, env.store.LiveTokenCount())

	// The code is spent forever.
	assert.ErrorIs(t, env.ballots.CastVote(code, "cand-x"), ErrInvalidCode)
	votes, err = env.votes.Votes()
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestCastVoteNeverIssuedCode(t *testing.T) {
	env := newTestEnv(t)
	env.addCandidate(t, "cand-x", "Ada", "President")

	assert.ErrorIs(t, env.ballots.CastVote("000000", "cand-x"), ErrInvalidCode)
}

func TestCastVoteMalformedCode(t *testing.T) {
	env := newTestEnv(t)

	assert.ErrorIs(t, env.ballots.CastVote("short", "cand-x"), ErrInvalidCode)
	assert.ErrorIs(t, env.ballots.CastVote("toolongcode", "cand-x"), ErrInvalidCode)
	assert.ErrorIs(t, env.ballots.CastVote("", "cand-x"), ErrInvalidCode)
}

func TestCastVoteExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")
	env.addCandidate(t, "cand-x", "Ada", "President")

	code, err := env.ballots.InitiateBallot("v1")
	require.NoError(t, err)

	env.mock.Add(models.TokenTTL + time.Second)

	assert.ErrorIs(t, env.ballots.CastVote(code, "cand-x"), ErrInvalidCode)
	assert.Equal(t, 0, env.votes.Count())
}

func TestCastVoteUnknownCandidateConsumesToken(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")

	code, err := env.ballots.InitiateBallot("v1")
	require.NoError(t, err)

	assert.ErrorIs(t, env.ballots.CastVote(code, "ghost"), ErrCandidateNotFound)
	assert.Equal(t, 0, env.votes.Count())

	// The token cannot be retried: no double vote beats no lost vote.
	assert.ErrorIs(t, env.ballots.CastVote(code, "ghost"), ErrInvalidCode)
}

func TestConcurrentCastSameCode(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")
	env.addCandidate(t, "cand-x", "Ada", "President")
	env.addCandidate(t, "cand-y", "Grace", "President")

	code, err := env.ballots.InitiateBallot("v1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	candidates := []string{"cand-x", "cand-y"}

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = env.ballots.CastVote(code, candidates[i])
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrInvalidCode)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, env.votes.Count())
}

// TestVoteRecordIsStructurallyAnonymous checks anonymity at the
// serialization level: the recorded vote must not carry any voter-linking
// key, whatever the application code paths did.
func TestVoteRecordIsStructurallyAnonymous(t *testing.T) {
	env := newTestEnv(t)
	env.addVoter(t, "v1")
	env.addCandidate(t, "cand-x", "Ada", "President")

	code, err := env.ballots.InitiateBallot("v1")
	require.NoError(t, err)
	require.NoError(t, env.ballots.CastVote(code, "cand-x"))

	votes, err := env.votes.Votes()
	require.NoError(t, err)
	require.Len(t, votes, 1)

	raw, err := json.Marshal(votes[0])
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))

	allowed := map[string]bool{
		"id": true, "candidate": true, "position": true,
		"class_level": true, "gender": true, "cast_at": true,
	}
	for key := range fields {
		assert.True(t, allowed[key], "unexpected field %q on serialized vote", key)
		assert.NotContains(t, strings.ToLower(key), "voter")
	}
}

func TestNewBallotCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := NewBallotCode()
		require.NoError(t, err)
		require.Len(t, code, models.CodeLength)
		assert.True(t, models.ValidCodeFormat(code))
		seen[code] = true
	}
	// 200 draws from a 36^6 space colliding would point at a broken
	// generator.
	assert.Equal(t, 200, len(seen))
}
