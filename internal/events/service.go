// Package events schedules branch-scoped gatherings and guards their capacity.
package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/principals"
	pkgdb "github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAlreadyRegistered  = errors.New("already registered for event")
	ErrEventFull          = errors.New("event is full")
	ErrEventEnded         = errors.New("event has ended")
	ErrCrossBranchDecided = errors.New("cross-branch request already decided")
	ErrCapacityBelowCount = errors.New("max attendees below current attendee count")
)

const notFoundMessage = "event not found"

type ServiceParams struct {
	DB     *gorm.DB
	Logger *logger.Logger
}

type Service struct {
	db   *gorm.DB
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("db required")
	}
	return &Service{
		db:   params.DB,
		repo: NewRepository(params.DB),
		logg: params.Logger,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Service) List(ctx context.Context, p principals.Principal, filter ListFilter, page pagination.Params) (pagination.Page[EventDTO], error) {
	rows, total, err := s.repo.List(ctx, p.BranchFilter(), filter, s.now(), page)
	if err != nil {
		return pagination.Page[EventDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list events")
	}
	items := make([]EventDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return pagination.Page[EventDTO]{Items: items, Pagination: pagination.Build(page, total)}, nil
}

// Get returns the event as seen by p. Members also learn whether they are registered.
func (s *Service) Get(ctx context.Context, p principals.Principal, id uuid.UUID) (EventDTO, error) {
	event, err := s.visible(ctx, s.repo, p, id)
	if err != nil {
		return EventDTO{}, err
	}
	dto := FromModel(event)
	if p.IsMember() {
		registered, err := s.repo.IsRegistered(ctx, event.ID, p.Member.ID)
		if err != nil {
			return EventDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load registration")
		}
		dto.Registered = &registered
	}
	return dto, nil
}

func (s *Service) Create(ctx context.Context, p principals.Principal, req CreateRequest) (*models.Event, error) {
	now := s.now()
	if !req.StartsAt.After(now) {
		return nil, pkgerrors.Validation("invalid event", pkgerrors.FieldError{Field: "starts_at", Message: "must be in the future"})
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, pkgerrors.Validation("invalid event", pkgerrors.FieldError{Field: "ends_at", Message: "must be after starts_at"})
	}

	event := &models.Event{
		Title:                strings.TrimSpace(req.Title),
		Description:          strings.TrimSpace(req.Description),
		StartsAt:             req.StartsAt.UTC(),
		EndsAt:               req.EndsAt.UTC(),
		Location:             strings.TrimSpace(req.Location),
		CreatedByPrincipalID: p.ID(),
		CreatorKind:          p.Kind,
		MaxAttendees:         req.MaxAttendees,
		Active:               true,
	}
	requested := enums.Branch(strings.TrimSpace(req.Branch))

	switch {
	case p.IsAdministrator():
		if !requested.IsEventBranch() {
			return nil, pkgerrors.Validation("invalid event", pkgerrors.FieldError{Field: "branch", Message: "must be one of [branch1 branch2 both]"})
		}
		adminID := p.Administrator.ID
		event.Branch = requested
		event.ApprovedByAdminID = &adminID
	case p.IsMember():
		home := p.Member.Branch
		if !home.IsSelectable() {
			return nil, pkgerrors.Validation("select a branch before creating events")
		}
		event.Branch = home
		if requested != "" && requested != home {
			event.CrossBranchRequested = true
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal required")
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create event")
	}
	s.log(ctx, "event.created", event.ID, map[string]any{
		"branch":                 string(event.Branch),
		"cross_branch_requested": event.CrossBranchRequested,
	})
	return event, nil
}

func (s *Service) Update(ctx context.Context, p principals.Principal, id uuid.UUID, req UpdateRequest) (*models.Event, error) {
	event, err := s.editable(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		event.Location = strings.TrimSpace(*req.Location)
	}
	if req.StartsAt != nil {
		event.StartsAt = req.StartsAt.UTC()
	}
	if req.EndsAt != nil {
		event.EndsAt = req.EndsAt.UTC()
	}
	if !event.EndsAt.After(event.StartsAt) {
		return nil, pkgerrors.Validation("invalid event", pkgerrors.FieldError{Field: "ends_at", Message: "must be after starts_at"})
	}
	if req.Branch != nil {
		if !p.IsAdministrator() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can move events between branches")
		}
		event.Branch = enums.Branch(*req.Branch)
	}
	switch {
	case req.ClearMaxAttendees:
		event.MaxAttendees = nil
	case req.MaxAttendees != nil:
		if *req.MaxAttendees < event.AttendeeCount {
			return nil, capacityError()
		}
		event.MaxAttendees = req.MaxAttendees
	}
	event.UpdatedAt = s.now()

	ok, err := s.repo.Save(ctx, event)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update event")
	}
	if !ok {
		return nil, capacityError()
	}
	return event, nil
}

// Delete soft-deletes the event.
func (s *Service) Delete(ctx context.Context, p principals.Principal, id uuid.UUID) error {
	event, err := s.editable(ctx, p, id)
	if err != nil {
		return err
	}
	ok, err := s.repo.Deactivate(ctx, event.ID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete event")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	s.log(ctx, "event.deleted", event.ID, nil)
	return nil
}

// Register adds the member to the attendee list. The insert and the capacity-guarded
// counter bump share one transaction.
func (s *Service) Register(ctx context.Context, p principals.Principal, id uuid.UUID) (RegistrationResult, error) {
	if !p.IsMember() {
		return RegistrationResult{}, pkgerrors.New(pkgerrors.CodeForbidden, "only members can register for events")
	}
	memberID := p.Member.ID

	var result RegistrationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		event, err := s.visible(ctx, txRepo, p, id)
		if err != nil {
			return err
		}
		if !event.EndsAt.After(s.now()) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrEventEnded, "event has ended")
		}

		attendee := &models.EventAttendee{EventID: event.ID, MemberID: memberID, RegisteredAt: s.now()}
		if err := txRepo.InsertAttendee(ctx, attendee); err != nil {
			if pkgdb.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrAlreadyRegistered, "already registered for this event")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert attendee")
		}

		claimed, err := txRepo.ClaimSeat(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim seat")
		}
		if !claimed {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrEventFull, "event is full")
		}

		count, err := txRepo.AttendeeCount(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load attendee count")
		}
		result = RegistrationResult{EventID: event.ID, Registered: true, AttendeeCount: count}
		return nil
	})
	if err != nil {
		return RegistrationResult{}, err
	}
	s.log(ctx, "event.registered", id, map[string]any{"member_id": memberID.String(), "attendee_count": result.AttendeeCount})
	return result, nil
}

// Unregister is idempotent. The counter only moves when a row was removed.
func (s *Service) Unregister(ctx context.Context, p principals.Principal, id uuid.UUID) (RegistrationResult, error) {
	if !p.IsMember() {
		return RegistrationResult{}, pkgerrors.New(pkgerrors.CodeForbidden, "only members can register for events")
	}
	memberID := p.Member.ID

	var result RegistrationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		event, err := s.visible(ctx, txRepo, p, id)
		if err != nil {
			return err
		}
		removed, err := txRepo.DeleteAttendee(ctx, event.ID, memberID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete attendee")
		}
		if removed {
			if err := txRepo.ReleaseSeat(ctx, event.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release seat")
			}
		}
		count, err := txRepo.AttendeeCount(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load attendee count")
		}
		result = RegistrationResult{EventID: event.ID, Registered: false, AttendeeCount: count}
		return nil
	})
	if err != nil {
		return RegistrationResult{}, err
	}
	return result, nil
}

func (s *Service) ListCrossBranchRequests(ctx context.Context, page pagination.Params) (pagination.Page[EventDTO], error) {
	rows, total, err := s.repo.ListPendingCrossBranch(ctx, page)
	if err != nil {
		return pagination.Page[EventDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cross-branch requests")
	}
	items := make([]EventDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return pagination.Page[EventDTO]{Items: items, Pagination: pagination.Build(page, total)}, nil
}

func (s *Service) ApproveCrossBranch(ctx context.Context, eventID, adminID uuid.UUID) (*models.Event, error) {
	return s.decideCrossBranch(ctx, eventID, adminID, true)
}

func (s *Service) RejectCrossBranch(ctx context.Context, eventID, adminID uuid.UUID) (*models.Event, error) {
	return s.decideCrossBranch(ctx, eventID, adminID, false)
}

func (s *Service) decideCrossBranch(ctx context.Context, eventID, adminID uuid.UUID, approve bool) (*models.Event, error) {
	ok, err := s.repo.DecideCrossBranch(ctx, eventID, adminID, approve, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decide cross-branch request")
	}
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload event")
	}
	if !ok {
		if !event.Active {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		if !event.CrossBranchRequested {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "event has no cross-branch request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ErrCrossBranchDecided, "cross-branch request already decided")
	}
	s.log(ctx, "event.cross_branch_decided", event.ID, map[string]any{"approved": approve, "admin_id": adminID.String()})
	return event, nil
}

func (s *Service) visible(ctx context.Context, r *Repository, p principals.Principal, id uuid.UUID) (*models.Event, error) {
	event, err := r.FindVisible(ctx, id, p.BranchFilter())
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	return event, nil
}

// editable loads an event the principal may change: its creator or a content admin.
func (s *Service) editable(ctx context.Context, p principals.Principal, id uuid.UUID) (*models.Event, error) {
	event, err := s.visible(ctx, s.repo, p, id)
	if err != nil {
		return nil, err
	}
	if p.HasPermission(enums.PermissionManageContent) {
		return event, nil
	}
	if event.CreatedByPrincipalID == p.ID() && event.CreatorKind == p.Kind {
		return event, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the creator or a content administrator can change this event")
}

func capacityError() error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrCapacityBelowCount, "invalid event").
		WithDetails([]pkgerrors.FieldError{{Field: "max_attendees", Message: "cannot be lower than the current attendee count"}})
}

func (s *Service) log(ctx context.Context, event string, id uuid.UUID, fields map[string]any) {
	if s.logg == nil {
		return
	}
	all := map[string]any{"event": event, "event_id": id.String()}
	for k, v := range fields {
		all[k] = v
	}
	s.logg.Info(s.logg.WithFields(ctx, all), event)
}
