package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/churchhub-backend/api/responses"
	"github.com/angelmondragon/churchhub-backend/api/validators"
	"github.com/angelmondragon/churchhub-backend/internal/prayers"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
)

type prayerService interface {
	Submit(ctx context.Context, p principals.Principal, req prayers.SubmitRequest) (*models.PrayerRequest, error)
	List(ctx context.Context, p principals.Principal, filter prayers.ListFilter, page pagination.Params) (pagination.Page[prayers.PrayerDTO], error)
	Get(ctx context.Context, p principals.Principal, id uuid.UUID) (prayers.PrayerDTO, error)
	Update(ctx context.Context, p principals.Principal, id uuid.UUID, req prayers.UpdateRequest) (*models.PrayerRequest, error)
	Delete(ctx context.Context, p principals.Principal, id uuid.UUID) error
	TogglePray(ctx context.Context, p principals.Principal, id uuid.UUID) (prayers.ToggleResult, error)
	MarkAnswered(ctx context.Context, p principals.Principal, id uuid.UUID, description string) (*models.PrayerRequest, error)
	Archive(ctx context.Context, id uuid.UUID) (*models.PrayerRequest, error)
}

func PrayerSubmit(svc prayerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req prayers.SubmitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		prayer, err := svc.Submit(r.Context(), p, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "prayer request submitted", prayers.FromModel(prayer, p.ID()))
	}
}

func PrayerList(svc prayerService, logg *logger.Logger) http.HandlerFunc {
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
		status, err := enumQuery(r, "status", enums.ParsePrayerStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priority, err := enumQuery(r, "priority", enums.ParsePrayerPriority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branch, err := branchQuery(r, "branch")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := prayers.ListFilter{Status: status, Branch: branch, Priority: priority}
		result, err := svc.List(r.Context(), p, filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "prayer requests", result.Items, result.Pagination)
	}
}

func PrayerGet(svc prayerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "prayerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		prayer, err := svc.Get(r.Context(), p, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "prayer request", prayer)
	}
}

func PrayerUpdate(svc prayerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "prayerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req prayers.UpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		prayer, err := svc.Update(r.Context(), p, id, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "prayer request updated", prayers.FromModel(prayer, p.ID()))
	}
}

func PrayerDelete(svc prayerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "prayerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), p, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "prayer request deleted", nil)
	}
}

// PrayerToggle flips the caller's "I prayed" mark.
func PrayerToggle(svc prayerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "prayerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.TogglePray(r.Context(), p, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "prayer toggled", result)
	}
}

func PrayerMarkAnswered(svc prayerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "prayerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req prayers.AnsweredRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		prayer, err := svc.MarkAnswered(r.Context(), p, id, req.Description)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "prayer marked answered", prayers.FromModel(prayer, p.ID()))
	}
}

func AdminPrayerArchive(svc prayerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requireAdministrator(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "prayerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		prayer, err := svc.Archive(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "prayer request archived", prayers.FromModel(prayer, p.ID()))
	}
}
