package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"election-backend/models"
)

// ParseEligibleRoll reads an eligible-voter roll from CSV with the columns
// regNumber, phoneNumber, classLevel. A header row is skipped when present.
// First-year students are not part of the electorate, so 100L rows are
// rejected, as are duplicate (regNumber, classLevel) pairs.
func ParseEligibleRoll(r io.Reader) ([]models.EligibleVoter, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read voter roll: %v", err)
	}

	seen := make(map[string]bool)
	rows := make([]models.EligibleVoter, 0, len(records))

	for i, rec := range records {
		if i == 0 && looksLikeHeader(rec) {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("%w: row %d has %d columns, want 3", ErrValidation, i+1, len(rec))
		}

		row := models.EligibleVoter{
			RegNumber:   strings.TrimSpace(rec[0]),
			PhoneNumber: strings.TrimSpace(rec[1]),
			ClassLevel:  models.ClassLevel(strings.TrimSpace(rec[2])),
		}

		if !models.ValidRegNumber(row.RegNumber) {
			return nil, fmt.Errorf("%w: row %d: %q is not a valid registration number", ErrValidation, i+1, row.RegNumber)
		}
		if row.PhoneNumber == "" {
			return nil, fmt.Errorf("%w: row %d: phone number is required", ErrValidation, i+1)
		}
		if !row.ClassLevel.Valid() || row.ClassLevel == models.Class100 {
			return nil, fmt.Errorf("%w: row %d: %q is not an eligible class level", ErrValidation, i+1, row.ClassLevel)
		}

		key := row.RegNumber + "|" + string(row.ClassLevel)
		if seen[key] {
			return nil, fmt.Errorf("%w: row %d: duplicate entry for %s %s", ErrValidation, i+1, row.RegNumber, row.ClassLevel)
		}
		seen[key] = true

		rows = append(rows, row)
	}

	return rows, nil
}

func looksLikeHeader(rec []string) bool {
	return len(rec) > 0 && !models.ValidRegNumber(strings.TrimSpace(rec[0]))
}
