package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/churchhub-backend/api/responses"
	"github.com/angelmondragon/churchhub-backend/api/validators"
	"github.com/angelmondragon/churchhub-backend/internal/administrators"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
)

type administratorService interface {
	List(ctx context.Context, search string, page pagination.Params) (pagination.Page[administrators.AdministratorDTO], error)
	Create(ctx context.Context, creator *models.Administrator, req administrators.CreateRequest) (*administrators.CreateResult, error)
	SetPermissions(ctx context.Context, actor *models.Administrator, targetID uuid.UUID, raw []string) (*models.Administrator, error)
}

func AdminAdministratorList(svc administratorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), searchParam(r, "search"), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "administrators", result.Items, result.Pagination)
	}
}

func AdminAdministratorCreate(svc administratorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requireAdministrator(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req administrators.CreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), p.Administrator, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "administrator created", result)
	}
}

func AdminAdministratorPermissions(svc administratorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requireAdministrator(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "adminId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req administrators.PermissionsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		admin, err := svc.SetPermissions(r.Context(), p.Administrator, id, req.Permissions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "permissions updated", administrators.FromModel(admin))
	}
}
