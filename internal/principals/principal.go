// Package principals maps a verified identity onto exactly one Member or Administrator.
package principals

import (
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/angelmondragon/churchhub-backend/pkg/visibility"
	"github.com/google/uuid"
)

// Principal is the tagged union carried through a request. Exactly one of Member and
// Administrator is set, matching Kind.
type Principal struct {
	Kind          enums.PrincipalKind
	Member        *models.Member
	Administrator *models.Administrator
}

func FromMember(m *models.Member) Principal {
	return Principal{Kind: enums.PrincipalKindMember, Member: m}
}

func FromAdministrator(a *models.Administrator) Principal {
	return Principal{Kind: enums.PrincipalKindAdministrator, Administrator: a}
}

func (p Principal) IsMember() bool {
	return p.Kind == enums.PrincipalKindMember && p.Member != nil
}

func (p Principal) IsAdministrator() bool {
	return p.Kind == enums.PrincipalKindAdministrator && p.Administrator != nil
}

func (p Principal) ID() uuid.UUID {
	switch {
	case p.IsMember():
		return p.Member.ID
	case p.IsAdministrator():
		return p.Administrator.ID
	}
	return uuid.Nil
}

// IsApproved is true for administrators and for approved, active members.
func (p Principal) IsApproved() bool {
	if p.IsAdministrator() {
		return p.Administrator.Active
	}
	return p.IsMember() && p.Member.IsApproved()
}

// HasPermission is always false for members.
func (p Principal) HasPermission(perm enums.AdminPermission) bool {
	return p.IsAdministrator() && p.Administrator.HasPermission(perm)
}

// BranchFilter is unrestricted for administrators and scoped to the home branch for members.
func (p Principal) BranchFilter() visibility.BranchFilter {
	if p.IsMember() {
		return visibility.ForMember(p.Member.Branch)
	}
	return visibility.Unrestricted()
}

// ResolutionKind tells the login caller what just happened so it can redirect.
type ResolutionKind string

const (
	ResolutionMember                   ResolutionKind = "member"
	ResolutionAdministrator            ResolutionKind = "administrator"
	ResolutionCreatedAdministrator     ResolutionKind = "created-administrator"
	ResolutionCreatedMemberNeedsBranch ResolutionKind = "created-member-needs-branch"
)

type Resolution struct {
	Kind      ResolutionKind
	Principal Principal
}

// RedirectHint names the client flow the principal should land on.
func (r Resolution) RedirectHint() string {
	p := r.Principal
	if p.IsAdministrator() {
		return "admin-dashboard"
	}
	if !p.IsMember() {
		return "login"
	}
	switch {
	case !p.Member.Active:
		return "account-disabled"
	case p.Member.Branch == enums.BranchUnset:
		return "select-branch"
	case p.Member.ApprovalStatus == enums.ApprovalStatusApproved:
		return "dashboard"
	case p.Member.ApprovalStatus == enums.ApprovalStatusRejected:
		return "account-rejected"
	default:
		return "pending-approval"
	}
}
