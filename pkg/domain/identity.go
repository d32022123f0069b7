// Package domain holds validated domain primitives for the civil registry.
//
// Construct values via the Parse* functions at trust boundaries; direct
// casting bypasses validation. The persistence layer re-checks the same
// formats as a defense-in-depth measure, so a value that skips parsing is
// still rejected before commit.
package domain

import (
	"regexp"
	"strings"
	"time"

	dErrors "civreg/pkg/domain-errors"
)

// NationalID is the canonical 12-digit citizen identifier.
type NationalID string

var nationalIDPattern = regexp.MustCompile(`^[0-9]{12}$`)

// ParseNationalID validates the 12-digit national id format.
func ParseNationalID(s string) (NationalID, error) {
	s = strings.TrimSpace(s)
	if !nationalIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeBadRequest, "national id must be exactly 12 digits")
	}
	return NationalID(s), nil
}

func (n NationalID) String() string { return string(n) }

// IsNil reports whether the national id is unset.
func (n NationalID) IsNil() bool { return n == "" }

// Phone is a 10-digit mobile number.
type Phone string

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ParsePhone validates the 10-digit mobile number format.
func ParsePhone(s string) (Phone, error) {
	s = strings.TrimSpace(s)
	if !phonePattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeBadRequest, "mobile must be exactly 10 digits")
	}
	return Phone(s), nil
}

func (p Phone) String() string { return string(p) }

// Gender is the registered gender marker.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

var validGenders = map[Gender]bool{
	GenderMale:   true,
	GenderFemale: true,
	GenderOther:  true,
}

// ParseGender accepts M, F or O (case-insensitive).
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToUpper(strings.TrimSpace(s)))
	if !validGenders[g] {
		return "", dErrors.New(dErrors.CodeBadRequest, "gender must be M, F, or O")
	}
	return g, nil
}

func (g Gender) String() string { return string(g) }

// maxAge bounds how far in the past a birth date may lie.
const maxAge = 120

// ValidateBirthDate rejects birth dates in the future or more than 120 years
// before now. Both identities and registration requests pass through here.
func ValidateBirthDate(dob, now time.Time) error {
	if dob.After(now) {
		return dErrors.New(dErrors.CodeBadRequest, "birth date cannot be in the future")
	}
	if dob.Before(now.AddDate(-maxAge, 0, 0)) {
		return dErrors.Newf(dErrors.CodeBadRequest, "birth date cannot be more than %d years ago", maxAge)
	}
	return nil
}

// ParseBirthDate parses a YYYY-MM-DD birth date and applies ValidateBirthDate.
func ParseBirthDate(s string, now time.Time) (time.Time, error) {
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "birth date must be in YYYY-MM-DD format")
	}
	if err := ValidateBirthDate(dob, now); err != nil {
		return time.Time{}, err
	}
	return dob, nil
}
