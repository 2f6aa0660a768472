package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/churchhub-backend/api/responses"
	"github.com/angelmondragon/churchhub-backend/api/validators"
	"github.com/angelmondragon/churchhub-backend/internal/members"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
)

type memberDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Member, error)
	List(ctx context.Context, filter members.ListFilter, page pagination.Params) (pagination.Page[members.MemberDTO], error)
	PreRegister(ctx context.Context, req members.PreRegisterRequest) (*models.Member, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type approvalService interface {
	Approve(ctx context.Context, memberID, adminID uuid.UUID) (*models.Member, error)
	Reject(ctx context.Context, memberID, adminID uuid.UUID, reason string) (*models.Member, error)
	Revoke(ctx context.Context, memberID, adminID uuid.UUID, reason string) (*models.Member, error)
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func AdminUserList(svc memberDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enumQuery(r, "status", enums.ParseApprovalStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branch, err := branchQuery(r, "branch")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		active, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := members.ListFilter{
			Status: status,
			Branch: branch,
			Search: searchParam(r, "search"),
			Active: active,
		}
		result, err := svc.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "members", result.Items, result.Pagination)
	}
}

func AdminUserGet(svc memberDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "member", members.FromModel(member))
	}
}

// AdminUserPreRegister creates a pending member that binds to an identity on first login.
func AdminUserPreRegister(svc memberDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req members.PreRegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.PreRegister(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "member pre-registered", members.FromModel(member))
	}
}

func AdminUserDeactivate(svc memberDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "member deactivated", nil)
	}
}

func AdminUserApprove(svc approvalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requireAdministrator(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.Approve(r.Context(), id, p.ID())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "member approved", members.FromModel(member))
	}
}

func AdminUserReject(svc approvalService, logg *logger.Logger) http.HandlerFunc {
	return reasonTransition(svc.Reject, "member rejected", logg)
}

func AdminUserRevoke(svc approvalService, logg *logger.Logger) http.HandlerFunc {
	return reasonTransition(svc.Revoke, "member approval revoked", logg)
}

func reasonTransition(
	apply func(context.Context, uuid.UUID, uuid.UUID, string) (*models.Member, error),
	message string,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requireAdministrator(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req reasonRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := apply(r.Context(), id, p.ID(), validators.SanitizeString(req.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, message, members.FromModel(member))
	}
}
