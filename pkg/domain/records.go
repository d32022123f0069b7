package domain

import (
	"regexp"
	"strings"
	"time"

	dErrors "civreg/pkg/domain-errors"
)

// TaxCode is the unique 10-character tax id: 5 letters + 4 digits + 1 letter.
type TaxCode string

var taxCodePattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// ParseTaxCode validates and upper-cases a tax id code, e.g. ABCDE1234F.
func ParseTaxCode(s string) (TaxCode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !taxCodePattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeBadRequest, "tax code must be 5 letters, 4 digits, 1 letter (e.g. ABCDE1234F)")
	}
	return TaxCode(s), nil
}

func (t TaxCode) String() string { return string(t) }

// TaxIssueFloor is the earliest acceptable tax id issue date.
var TaxIssueFloor = time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)

// ValidateIssueDate rejects tax id issue dates in the future or before the
// historical floor.
func ValidateIssueDate(issued, now time.Time) error {
	if issued.After(now) {
		return dErrors.New(dErrors.CodeBadRequest, "issue date cannot be in the future")
	}
	if issued.Before(TaxIssueFloor) {
		return dErrors.New(dErrors.CodeBadRequest, "issue date cannot be before 1950-01-01")
	}
	return nil
}

// ElectoralCode is the unique 8-character voter registration code. The code
// carries a literal VOTER prefix followed by three free characters.
type ElectoralCode string

const (
	electoralCodeLen    = 8
	electoralCodePrefix = "VOTER"
)

// ParseElectoralCode validates and upper-cases an electoral code, e.g. VOTER001.
func ParseElectoralCode(s string) (ElectoralCode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != electoralCodeLen {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "electoral code must be exactly %d characters", electoralCodeLen)
	}
	if !strings.HasPrefix(s, electoralCodePrefix) {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "electoral code must start with %q", electoralCodePrefix)
	}
	return ElectoralCode(s), nil
}

func (e ElectoralCode) String() string { return string(e) }

// BranchCode is the 11-character bank branch code: 4 letters, a literal zero,
// then 6 alphanumerics, e.g. SBIN0001234.
type BranchCode string

var branchCodePattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

// ParseBranchCode validates and upper-cases a branch code.
func ParseBranchCode(s string) (BranchCode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !branchCodePattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeBadRequest, "branch code must be 4 letters, a zero, then 6 alphanumerics (e.g. SBIN0001234)")
	}
	return BranchCode(s), nil
}

func (b BranchCode) String() string { return string(b) }

// SimNumber is the unique numeric SIM identifier.
type SimNumber string

var simNumberPattern = regexp.MustCompile(`^[0-9]+$`)

// ParseSimNumber validates that the SIM identifier is numeric.
func ParseSimNumber(s string) (SimNumber, error) {
	s = strings.TrimSpace(s)
	if !simNumberPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeBadRequest, "sim number must be numeric")
	}
	return SimNumber(s), nil
}

func (s SimNumber) String() string { return string(s) }

// RegistrationType classifies a voter registration.
type RegistrationType string

const (
	RegistrationCity    RegistrationType = "City"
	RegistrationVillage RegistrationType = "Village"
	RegistrationRural   RegistrationType = "Rural"
	RegistrationUrban   RegistrationType = "Urban"
	RegistrationOther   RegistrationType = "Other"
)

var validRegistrationTypes = map[RegistrationType]bool{
	RegistrationCity:    true,
	RegistrationVillage: true,
	RegistrationRural:   true,
	RegistrationUrban:   true,
	RegistrationOther:   true,
}

// ParseRegistrationType validates the voter registration type.
func ParseRegistrationType(s string) (RegistrationType, error) {
	rt := RegistrationType(strings.TrimSpace(s))
	if !validRegistrationTypes[rt] {
		return "", dErrors.New(dErrors.CodeBadRequest, "registration type must be one of City, Village, Rural, Urban, Other")
	}
	return rt, nil
}

func (r RegistrationType) String() string { return string(r) }

// RecordKind names a linked service record family for reporting queries.
type RecordKind string

const (
	KindTaxID        RecordKind = "tax_id"
	KindVoterRecord  RecordKind = "voter_record"
	KindSimRecord    RecordKind = "sim_record"
	KindBankAccount  RecordKind = "bank_account"
	KindCriminalCase RecordKind = "criminal_case"
)

var validRecordKinds = map[RecordKind]bool{
	KindTaxID:        true,
	KindVoterRecord:  true,
	KindSimRecord:    true,
	KindBankAccount:  true,
	KindCriminalCase: true,
}

// ParseRecordKind validates a reporting record kind.
func ParseRecordKind(s string) (RecordKind, error) {
	k := RecordKind(strings.TrimSpace(s))
	if !validRecordKinds[k] {
		return "", dErrors.New(dErrors.CodeBadRequest, "record kind must be one of tax_id, voter_record, sim_record, bank_account, criminal_case")
	}
	return k, nil
}

func (k RecordKind) String() string { return string(k) }
