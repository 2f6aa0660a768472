package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/churchhub-backend/api/responses"
	"github.com/angelmondragon/churchhub-backend/api/validators"
	"github.com/angelmondragon/churchhub-backend/internal/blogs"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
)

type blogService interface {
	List(ctx context.Context, p principals.Principal, filter blogs.ListFilter, page pagination.Params) (pagination.Page[blogs.BlogDTO], error)
	View(ctx context.Context, p principals.Principal, id uuid.UUID) (*models.Blog, error)
	Create(ctx context.Context, authorID uuid.UUID, req blogs.CreateRequest) (*models.Blog, error)
	Update(ctx context.Context, id uuid.UUID, req blogs.UpdateRequest) (*models.Blog, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlogList shows published posts to members. Administrators may filter by ?status=.
func BlogList(svc blogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enumQuery(r, "status", enums.ParseBlogStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := blogs.ListFilter{
			Status: status,
			Search: searchParam(r, "search"),
			Tag:    searchParam(r, "tag"),
		}
		result, err := svc.List(r.Context(), p, filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "blogs", result.Items, result.Pagination)
	}
}

func BlogGet(svc blogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "blogId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		blog, err := svc.View(r.Context(), p, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "blog", blogs.FromModel(blog))
	}
}

func BlogCreate(svc blogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requireAdministrator(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req blogs.CreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		blog, err := svc.Create(r.Context(), p.ID(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "blog created", blogs.FromModel(blog))
	}
}

func BlogUpdate(svc blogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "blogId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req blogs.UpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		blog, err := svc.Update(r.Context(), id, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "blog updated", blogs.FromModel(blog))
	}
}

func BlogDelete(svc blogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "blogId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "blog deleted", nil)
	}
}
