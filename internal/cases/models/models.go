// Package models holds the criminal case registry records. Cases link to
// identities many-to-many: one case may name several suspects and one
// identity may appear in several cases.
package models

import (
	"time"

	"civreg/pkg/domain"
)

// CriminalCase is one registered case. Case numbers are engine-assigned and
// never reused.
type CriminalCase struct {
	CaseNumber int64
	Offence    string
	CreatedAt  time.Time
}

// Link ties one identity to one case.
type Link struct {
	CaseNumber int64
	NationalID domain.NationalID
}
