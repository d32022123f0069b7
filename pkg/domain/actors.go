package domain

import (
	"strings"

	dErrors "civreg/pkg/domain-errors"
)

// ActorRole attributes a state-changing call for audit purposes.
type ActorRole string

const (
	RoleAdmin   ActorRole = "Admin"
	RoleCitizen ActorRole = "Citizen"
	RoleSystem  ActorRole = "System"
)

var validActorRoles = map[ActorRole]bool{
	RoleAdmin:   true,
	RoleCitizen: true,
	RoleSystem:  true,
}

// ParseActorRole validates an audit actor role.
func ParseActorRole(s string) (ActorRole, error) {
	r := ActorRole(strings.TrimSpace(s))
	if !validActorRoles[r] {
		return "", dErrors.New(dErrors.CodeBadRequest, "role must be Admin, Citizen, or System")
	}
	return r, nil
}

func (r ActorRole) String() string { return string(r) }

// AccountStatus is the lifecycle state of a citizen login account.
type AccountStatus string

const (
	AccountActive    AccountStatus = "Active"
	AccountSuspended AccountStatus = "Suspended"
	AccountInactive  AccountStatus = "Inactive"
)

var validAccountStatuses = map[AccountStatus]bool{
	AccountActive:    true,
	AccountSuspended: true,
	AccountInactive:  true,
}

// ParseAccountStatus validates a citizen account status.
func ParseAccountStatus(s string) (AccountStatus, error) {
	st := AccountStatus(strings.TrimSpace(s))
	if !validAccountStatuses[st] {
		return "", dErrors.New(dErrors.CodeBadRequest, "account status must be Active, Suspended, or Inactive")
	}
	return st, nil
}

func (s AccountStatus) String() string { return string(s) }

// RequestStatus is the registration workflow state. Pending transitions to
// Approved or Rejected exactly once; both are terminal.
type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusApproved RequestStatus = "Approved"
	StatusRejected RequestStatus = "Rejected"
)

func (s RequestStatus) String() string { return string(s) }

// Terminal reports whether the workflow state admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}
