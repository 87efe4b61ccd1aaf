package models

import (
	"regexp"
	"time"
)

type ClassLevel string

const (
	Class100 ClassLevel = "100L"
	Class200 ClassLevel = "200L"
	Class300 ClassLevel = "300L"
	Class400 ClassLevel = "400L"
	Class500 ClassLevel = "500L"
	Class600 ClassLevel = "600L"
)

func (c ClassLevel) Valid() bool {
	switch c {
	case Class100, Class200, Class300, Class400, Class500, Class600:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// regNumberPattern matches registration numbers of the form 20XX/XXXXXX.
var regNumberPattern = regexp.MustCompile(`^20\d{2}/\d{6}$`)

func ValidRegNumber(reg string) bool {
	return regNumberPattern.MatchString(reg)
}

// Voter is an authenticated account on the voter roll. The ballot core only
// reads a voter's demographics and flips HasVoted; everything else belongs to
// account management.
type Voter struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	RegNumber    string     `json:"reg_number"`
	PhoneNumber  string     `json:"phone_number"`
	ClassLevel   ClassLevel `json:"class_level"`
	Gender       Gender     `json:"gender"`
	Age          int        `json:"age"`
	HasVoted     bool       `json:"has_voted"`
	IsAdmin      bool       `json:"is_admin"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// EligibleVoter is one row of the admin-uploaded voter roll. Registration is
// only accepted when the submitted regNumber and phone number match a row.
type EligibleVoter struct {
	RegNumber   string     `json:"reg_number"`
	PhoneNumber string     `json:"phone_number"`
	ClassLevel  ClassLevel `json:"class_level"`
}
