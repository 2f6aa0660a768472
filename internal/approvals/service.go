// Package approvals owns every write to a member's approval_status.
package approvals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgdb "github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultRejectionReason = "No reason provided"

var (
	ErrAlreadyApproved = errors.New("member already approved")
	ErrAlreadyRejected = errors.New("member already rejected")
	ErrInvalidBranch   = errors.New("branch must be branch1 or branch2")
)

type Transition string

const (
	TransitionApprove      Transition = "approve"
	TransitionReject       Transition = "reject"
	TransitionRevoke       Transition = "revoke"
	TransitionChangeBranch Transition = "change_branch"
)

type transitionRecorder interface {
	IncTransition(transition string)
}

type ServiceParams struct {
	DB      *gorm.DB
	Logger  *logger.Logger
	Metrics transitionRecorder
}

type Service struct {
	db      *gorm.DB
	logg    *logger.Logger
	metrics transitionRecorder
	now     func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	return &Service{
		db:      params.DB,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Approve moves any non-approved member to approved.
func (s *Service) Approve(ctx context.Context, memberID, adminID uuid.UUID) (*models.Member, error) {
	now := s.now()
	return s.transition(ctx, TransitionApprove, memberID, adminID,
		"approval_status <> ?", []any{enums.ApprovalStatusApproved},
		map[string]any{
			"approval_status":  enums.ApprovalStatusApproved,
			"approved_by":      adminID,
			"approved_at":      now,
			"rejection_reason": nil,
			"updated_at":       now,
		},
		pkgerrors.Wrap(pkgerrors.CodeConflict, ErrAlreadyApproved, "member already approved"),
	)
}

// Reject moves any non-rejected member to rejected.
func (s *Service) Reject(ctx context.Context, memberID, adminID uuid.UUID, reason string) (*models.Member, error) {
	return s.transition(ctx, TransitionReject, memberID, adminID,
		"approval_status <> ?", []any{enums.ApprovalStatusRejected},
		s.rejection(adminID, reason),
		pkgerrors.Wrap(pkgerrors.CodeConflict, ErrAlreadyRejected, "member already rejected"),
	)
}

// Revoke forces a member to rejected regardless of the current state.
func (s *Service) Revoke(ctx context.Context, memberID, adminID uuid.UUID, reason string) (*models.Member, error) {
	return s.transition(ctx, TransitionRevoke, memberID, adminID, "", nil, s.rejection(adminID, reason), nil)
}

// ChangeBranch is the member's own branch selection. It always resets the approval
// cycle to pending.
func (s *Service) ChangeBranch(ctx context.Context, memberID uuid.UUID, raw string) (*models.Member, error) {
	branch, err := enums.ParseBranch(strings.TrimSpace(raw))
	if err != nil || !branch.IsSelectable() {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidBranch, "invalid branch").
			WithDetails([]pkgerrors.FieldError{{Field: "branch", Message: "must be one of [branch1 branch2]"}})
	}
	return s.transition(ctx, TransitionChangeBranch, memberID, uuid.Nil, "", nil,
		map[string]any{
			"branch":           branch,
			"approval_status":  enums.ApprovalStatusPending,
			"approved_by":      nil,
			"approved_at":      nil,
			"rejection_reason": nil,
			"updated_at":       s.now(),
		},
		nil,
	)
}

func (s *Service) rejection(adminID uuid.UUID, reason string) map[string]any {
	now := s.now()
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectionReason
	}
	return map[string]any{
		"approval_status":  enums.ApprovalStatusRejected,
		"rejection_reason": reason,
		"approved_by":      adminID,
		"approved_at":      now,
		"updated_at":       now,
	}
}

// transition runs one guarded UPDATE. When no row matches, a follow-up read tells a
// missing member apart from a failed guard.
func (s *Service) transition(
	ctx context.Context,
	name Transition,
	memberID, actorID uuid.UUID,
	guard string, guardArgs []any,
	columns map[string]any,
	guardErr error,
) (*models.Member, error) {
	query := s.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", memberID)
	if guard != "" {
		query = query.Where(guard, guardArgs...)
	}
	result := query.UpdateColumns(columns)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "update approval state")
	}

	var member models.Member
	if err := s.db.WithContext(ctx).First(&member, "id = ?", memberID).Error; err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload member")
	}
	if result.RowsAffected == 0 {
		if guardErr != nil {
			return nil, guardErr
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}

	if s.metrics != nil {
		s.metrics.IncTransition(string(name))
	}
	if s.logg != nil {
		fields := map[string]any{
			"event":           "approval.transition",
			"transition":      string(name),
			"member_id":       memberID.String(),
			"approval_status": string(member.ApprovalStatus),
			"branch":          string(member.Branch),
		}
		if actorID != uuid.Nil {
			fields["admin_id"] = actorID.String()
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "approval transition applied")
	}
	return &member, nil
}

// NotApprovedDetails is echoed to members blocked by the approval gate.
type NotApprovedDetails struct {
	ApprovalStatus  enums.ApprovalStatus `json:"approval_status"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	Branch          enums.Branch         `json:"branch"`
	Active          bool                 `json:"active"`
}

// NotApproved builds the typed error returned by the approval gate.
func NotApproved(m *models.Member) error {
	details := NotApprovedDetails{}
	message := "account not approved"
	if m != nil {
		details = NotApprovedDetails{
			ApprovalStatus:  m.ApprovalStatus,
			RejectionReason: m.RejectionReason,
			Branch:          m.Branch,
			Active:          m.Active,
		}
		switch {
		case !m.Active:
			message = "account is disabled"
		case m.Branch == enums.BranchUnset:
			message = "select a branch to continue"
		case m.ApprovalStatus == enums.ApprovalStatusRejected:
			message = "account was rejected"
		case m.ApprovalStatus == enums.ApprovalStatusPending:
			message = "account is pending approval"
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotApproved, message).WithDetails(details)
}
