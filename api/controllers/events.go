package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/churchhub-backend/api/responses"
	"github.com/angelmondragon/churchhub-backend/api/validators"
	"github.com/angelmondragon/churchhub-backend/internal/events"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
)

type eventService interface {
	List(ctx context.Context, p principals.Principal, filter events.ListFilter, page pagination.Params) (pagination.Page[events.EventDTO], error)
	Get(ctx context.Context, p principals.Principal, id uuid.UUID) (events.EventDTO, error)
	Create(ctx context.Context, p principals.Principal, req events.CreateRequest) (*models.Event, error)
	Update(ctx context.Context, p principals.Principal, id uuid.UUID, req events.UpdateRequest) (*models.Event, error)
	Delete(ctx context.Context, p principals.Principal, id uuid.UUID) error
	Register(ctx context.Context, p principals.Principal, id uuid.UUID) (events.RegistrationResult, error)
	Unregister(ctx context.Context, p principals.Principal, id uuid.UUID) (events.RegistrationResult, error)
	ListCrossBranchRequests(ctx context.Context, page pagination.Params) (pagination.Page[events.EventDTO], error)
	ApproveCrossBranch(ctx context.Context, eventID, adminID uuid.UUID) (*models.Event, error)
	RejectCrossBranch(ctx context.Context, eventID, adminID uuid.UUID) (*models.Event, error)
}

func EventList(svc eventService, logg *logger.Logger) http.HandlerFunc {
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
		branch, err := branchQuery(r, "branch")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		upcoming, err := validators.ParseQueryBool(r, "upcoming")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := events.ListFilter{Branch: branch, Upcoming: upcoming != nil && *upcoming}
		result, err := svc.List(r.Context(), p, filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "events", result.Items, result.Pagination)
	}
}

func EventGet(svc eventService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := svc.Get(r.Context(), p, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "event", event)
	}
}

func EventCreate(svc eventService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req events.CreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := svc.Create(r.Context(), p, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "event created", events.FromModel(event))
	}
}

func EventUpdate(svc eventService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req events.UpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := svc.Update(r.Context(), p, id, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "event updated", events.FromModel(event))
	}
}

func EventDelete(svc eventService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), p, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "event deleted", nil)
	}
}

// EventRegister and EventUnregister are idempotent from the caller's point of view.
func EventRegister(svc eventService, logg *logger.Logger) http.HandlerFunc {
	return registrationHandler(svc.Register, "registered for event", logg)
}

func EventUnregister(svc eventService, logg *logger.Logger) http.HandlerFunc {
	return registrationHandler(svc.Unregister, "unregistered from event", logg)
}

func registrationHandler(
	action func(context.Context, principals.Principal, uuid.UUID) (events.RegistrationResult, error),
	message string,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := action(r.Context(), p, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, message, result)
	}
}

func AdminCrossBranchList(svc eventService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListCrossBranchRequests(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "cross-branch requests", result.Items, result.Pagination)
	}
}

func AdminCrossBranchApprove(svc eventService, logg *logger.Logger) http.HandlerFunc {
	return crossBranchDecision(svc.ApproveCrossBranch, "cross-branch request approved", logg)
}

func AdminCrossBranchReject(svc eventService, logg *logger.Logger) http.HandlerFunc {
	return crossBranchDecision(svc.RejectCrossBranch, "cross-branch request rejected", logg)
}

func crossBranchDecision(
	decide func(context.Context, uuid.UUID, uuid.UUID) (*models.Event, error),
	message string,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requireAdministrator(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := decide(r.Context(), id, p.ID())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, message, events.FromModel(event))
	}
}
