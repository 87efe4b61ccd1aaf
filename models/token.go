package models

import "time"

const (
	// CodeAlphabet is the symbol set ballot codes are drawn from.
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// CodeLength is the fixed length of a ballot code.
	CodeLength = 6

	// TokenTTL is how long an issued token stays redeemable.
	TokenTTL = 10 * time.Minute
)

// BallotToken is a one-time code standing in for a voter's right to cast one
// vote. The VoterID back-reference exists only so redemption can read the
// voter's demographics; it is discarded with the token and never reaches the
// vote record.
type BallotToken struct {
	Code      string    `json:"code"`
	VoterID   string    `json:"voter_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *BallotToken) ExpiresAt() time.Time {
	return t.CreatedAt.Add(TokenTTL)
}

// Expired reports whether the token is past its TTL at the given instant.
// An expired token is indistinguishable from one that never existed.
func (t *BallotToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt())
}

// ValidCodeFormat reports whether s has the shape of a ballot code: exactly
// CodeLength symbols, all from CodeAlphabet.
func ValidCodeFormat(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
