// Package models holds the read-only aggregate shapes served by reporting.
package models

import "civreg/pkg/domain"

// ServiceCounts is the per-identity tally of linked service records. A kind
// with no linked rows counts zero; it is never an error.
type ServiceCounts struct {
	NationalID    domain.NationalID
	TaxIDs        int
	VoterRecords  int
	SimRecords    int
	BankAccounts  int
	CriminalCases int
}

// Of returns the count for one record kind.
func (c ServiceCounts) Of(kind domain.RecordKind) int {
	switch kind {
	case domain.KindTaxID:
		return c.TaxIDs
	case domain.KindVoterRecord:
		return c.VoterRecords
	case domain.KindSimRecord:
		return c.SimRecords
	case domain.KindBankAccount:
		return c.BankAccounts
	case domain.KindCriminalCase:
		return c.CriminalCases
	}
	return 0
}

// IdentityCount is one row of a threshold report: an identity and how many
// records of the queried kind it holds.
type IdentityCount struct {
	NationalID domain.NationalID
	Name       string
	Count      int
}

// CombinedCount is one row of a two-kind report.
type CombinedCount struct {
	NationalID     domain.NationalID
	Name           string
	PrimaryCount   int
	SecondaryCount int
}

// Combined is the value the maximum-combined query ranks by.
func (c CombinedCount) Combined() int { return c.PrimaryCount + c.SecondaryCount }

// Totals backs the administrative statistics screen.
type Totals struct {
	Identities      int
	CitizenAccounts int
	AdminAccounts   int
	Records         map[domain.RecordKind]int
}
