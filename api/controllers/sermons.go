package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/churchhub-backend/api/responses"
	"github.com/angelmondragon/churchhub-backend/api/validators"
	"github.com/angelmondragon/churchhub-backend/internal/sermons"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
)

type sermonService interface {
	List(ctx context.Context, filter sermons.ListFilter, page pagination.Params) (pagination.Page[sermons.SermonDTO], error)
	View(ctx context.Context, id uuid.UUID) (*models.Sermon, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, adminID uuid.UUID, req sermons.CreateRequest) (*models.Sermon, error)
	Update(ctx context.Context, id uuid.UUID, req sermons.UpdateRequest) (*models.Sermon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func SermonList(svc sermonService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := sermons.ListFilter{
			Category: searchParam(r, "category"),
			Search:   searchParam(r, "search"),
			Tag:      searchParam(r, "tag"),
		}
		result, err := svc.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "sermons", result.Items, result.Pagination)
	}
}

// SermonGet returns a sermon and counts the view.
func SermonGet(svc sermonService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "sermonId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sermon, err := svc.View(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "sermon", sermons.FromModel(sermon))
	}
}

func SermonCategories(svc sermonService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if categories == nil {
			categories = []string{}
		}
		responses.WriteSuccess(w, "sermon categories", categories)
	}
}

func SermonCreate(svc sermonService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requireAdministrator(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req sermons.CreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sermon, err := svc.Create(r.Context(), p.ID(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "sermon created", sermons.FromModel(sermon))
	}
}

func SermonUpdate(svc sermonService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "sermonId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req sermons.UpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sermon, err := svc.Update(r.Context(), id, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "sermon updated", sermons.FromModel(sermon))
	}
}

func SermonDelete(svc sermonService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "sermonId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "sermon deleted", nil)
	}
}
