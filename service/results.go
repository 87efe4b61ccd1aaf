package service

import (
	"fmt"
	"sort"

	"election-backend/ledger"
	"election-backend/models"
	"election-backend/storage"
)

// ResultsService aggregates the anonymous vote ledger into per-position
// tallies and demographic breakdowns. It only ever reads; the ledger is the
// single source of truth.
type ResultsService struct {
	store *storage.Store
	votes *ledger.Ledger
}

func NewResultsService(store *storage.Store, votes *ledger.Ledger) *ResultsService {
	return &ResultsService{store: store, votes: votes}
}

type CandidateTally struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Votes       int    `json:"votes"`
}

type PositionResult struct {
	Position   string           `json:"position"`
	Candidates []CandidateTally `json:"candidates"`
}

type Demographics struct {
	ByClassLevel map[models.ClassLevel]int `json:"by_class_level"`
	ByGender     map[models.Gender]int     `json:"by_gender"`
}

type ElectionResults struct {
	TotalVotes   int              `json:"total_votes"`
	Positions    []PositionResult `json:"positions"`
	Demographics Demographics     `json:"demographics"`
	LedgerValid  bool             `json:"ledger_valid"`
}

// Tally counts every vote in the ledger. Votes referencing a candidate that
// has since been deleted still count toward demographics and the total but
// surface under the candidate ID alone.
func (rs *ResultsService) Tally() (*ElectionResults, error) {
	votes, err := rs.votes.Votes()
	if err != nil {
		return nil, fmt.Errorf("failed to load votes: %w", err)
	}

	names := make(map[string]string)
	for _, c := range rs.store.Candidates() {
		names[c.ID] = c.Name
	}

	type key struct{ position, candidate string }
	counts := make(map[key]int)
	demo := Demographics{
		ByClassLevel: make(map[models.ClassLevel]int),
		ByGender:     make(map[models.Gender]int),
	}

	for _, v := range votes {
		counts[key{v.Position, v.Candidate}]++
		demo.ByClassLevel[v.ClassLevel]++
		demo.ByGender[v.Gender]++
	}

	byPosition := make(map[string][]CandidateTally)
	for k, n := range counts {
		byPosition[k.position] = append(byPosition[k.position], CandidateTally{
			CandidateID: k.candidate,
			Name:        names[k.candidate],
			Votes:       n,
		})
	}

	results := &ElectionResults{
		TotalVotes:   len(votes),
		Positions:    make([]PositionResult, 0, len(byPosition)),
		Demographics: demo,
		LedgerValid:  rs.votes.Verify(),
	}

	for position, tallies := range byPosition {
		sort.Slice(tallies, func(i, j int) bool {
			if tallies[i].Votes != tallies[j].Votes {
				return tallies[i].Votes > tallies[j].Votes
			}
			return tallies[i].Name < tallies[j].Name
		})
		results.Positions = append(results.Positions, PositionResult{Position: position, Candidates: tallies})
	}
	sort.Slice(results.Positions, func(i, j int) bool {
		return results.Positions[i].Position < results.Positions[j].Position
	})

	return results, nil
}

// TurnoutVerification cross-checks the ledger against issuance state.
type TurnoutVerification struct {
	RegisteredVoters  int  `json:"registered_voters"`
	BallotsInitiated  int  `json:"ballots_initiated"`
	VotesRecorded     int  `json:"votes_recorded"`
	OutstandingTokens int  `json:"outstanding_tokens"`
	LedgerValid       bool `json:"ledger_valid"`
	Consistent        bool `json:"consistent"`
}

// VerifyTurnout checks that no more votes exist than ballots were initiated.
// Votes may legitimately lag initiations: tokens expire unredeemed, and a
// redemption can fail after consuming its token.
func (rs *ResultsService) VerifyTurnout() (*TurnoutVerification, error) {
	voters := rs.store.Voters()
	initiated := 0
	for _, v := range voters {
		if v.HasVoted {
			initiated++
		}
	}

	recorded := rs.votes.Count()

	return &TurnoutVerification{
		RegisteredVoters:  len(voters),
		BallotsInitiated:  initiated,
		VotesRecorded:     recorded,
		OutstandingTokens: rs.store.LiveTokenCount(),
		LedgerValid:       rs.votes.Verify(),
		Consistent:        recorded <= initiated,
	}, nil
}
