package audit

import (
	"time"

	"github.com/google/uuid"

	"civreg/pkg/domain"
)

// Operation kinds recorded in the log. Every state-changing operation in the
// registry writes exactly one entry before its transaction commits.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpSubmit  = "submit"
	OpApprove = "approve"
	OpReject  = "reject"
	OpLink    = "link"
	OpUnlink  = "unlink"
	OpLogin   = "login"
)

// Table names referenced by audit entries.
const (
	TableIdentities    = "identities"
	TableBiometrics    = "biometrics"
	TableTaxIDs        = "tax_ids"
	TableVoterRecords  = "voter_records"
	TableSimRecords    = "sim_records"
	TableBankAccounts  = "bank_accounts"
	TableCriminalCases = "criminal_cases"
	TableCaseLinks     = "case_links"
	TableAccounts      = "citizen_accounts"
	TableRegistrations = "registration_requests"
)

// Entry is one immutable audit record. Entries are only ever appended; the
// schema refuses updates and deletes.
type Entry struct {
	ID        int64
	EventID   uuid.UUID
	Operation string
	Table     string
	RecordID  string
	Actor     string
	Role      domain.ActorRole
	Detail    string
	CreatedAt time.Time
}
