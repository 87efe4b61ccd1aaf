package models

// Vote is one anonymous ballot. Anonymity is structural: the type has no
// voter-identifying field, so no code path can leak one into the ledger.
// Votes are immutable once appended.
type Vote struct {
	ID         string     `json:"id"`
	Candidate  string     `json:"candidate"`
	Position   string     `json:"position"`
	ClassLevel ClassLevel `json:"class_level"`
	Gender     Gender     `json:"gender"`
	CastAt     int64      `json:"cast_at"`
}
