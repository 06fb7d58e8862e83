package domain

import (
	"time"
)

// DelegationType scopes what a delegate may do on the delegator's behalf
type DelegationType string

const (
	DelegationTypeFull               DelegationType = "full"
	DelegationTypeApprovalOnly       DelegationType = "approval_only"
	DelegationTypeViewOnly           DelegationType = "view_only"
	DelegationTypeDepartmentSpecific DelegationType = "department_specific"
)

// UserDelegation is a time-bounded grant of authority from one user to another
type UserDelegation struct {
	ID             string         `json:"id" db:"id"`
	FromUserID     string         `json:"from_user_id" db:"from_user_id"`
	ToUserID       string         `json:"to_user_id" db:"to_user_id"`
	DelegationType DelegationType `json:"delegation_type" db:"delegation_type"`
	StartDate      time.Time      `json:"start_date" db:"start_date"`
	EndDate        time.Time      `json:"end_date" db:"end_date"`
	Reason         *string        `json:"reason,omitempty" db:"reason"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	RevokedAt      *time.Time     `json:"revoked_at,omitempty" db:"revoked_at"`
	RevokedBy      *string        `json:"revoked_by,omitempty" db:"revoked_by"`
}

// IsCurrentlyActive reports whether the delegation is in force at the given time
func (d *UserDelegation) IsCurrentlyActive(now time.Time) bool {
	return d.IsActive && !now.Before(d.StartDate) && !now.After(d.EndDate)
}

// PermitsDecisions reports whether the delegation type covers approval decisions.
// Department-specific delegations additionally require the resolver to verify
// the delegate and delegator share a department.
func (t DelegationType) PermitsDecisions() bool {
	switch t {
	case DelegationTypeFull, DelegationTypeApprovalOnly, DelegationTypeDepartmentSpecific:
		return true
	}
	return false
}

// PermitsViewing reports whether the delegation type covers read access
func (t DelegationType) PermitsViewing() bool {
	return t != ""
}
