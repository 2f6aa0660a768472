// Package prayers runs the prayer board: submissions, the pray toggle and answers.
package prayers

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
	ErrPrayerNotActive = errors.New("prayer request is not active")
	ErrConcurrentPray  = errors.New("concurrent prayer toggle")
)

const notFoundMessage = "prayer request not found"

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

func (s *Service) Submit(ctx context.Context, p principals.Principal, req SubmitRequest) (*models.PrayerRequest, error) {
	if !p.IsMember() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only members can submit prayer requests")
	}
	priority := enums.PrayerPriorityNormal
	if req.Priority != "" {
		parsed, err := enums.ParsePrayerPriority(req.Priority)
		if err != nil {
			return nil, invalidPriority()
		}
		priority = parsed
	}

	memberID := p.Member.ID
	displayName := strings.TrimSpace(p.Member.Name)
	if displayName == "" {
		displayName = "Member"
	}
	if req.IsAnonymous {
		displayName = anonymousDisplayName
	}
	prayer := &models.PrayerRequest{
		Title:                strings.TrimSpace(req.Title),
		Description:          strings.TrimSpace(req.Description),
		SubmittedByMemberID:  &memberID,
		SubmitterBranch:      p.Member.Branch,
		SubmitterDisplayName: displayName,
		IsAnonymous:          req.IsAnonymous,
		Status:               enums.PrayerStatusActive,
		Visible:              true,
		Priority:             priority,
	}
	if err := s.repo.Create(ctx, prayer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create prayer request")
	}
	return prayer, nil
}

func (s *Service) List(ctx context.Context, p principals.Principal, filter ListFilter, page pagination.Params) (pagination.Page[PrayerDTO], error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return pagination.Page[PrayerDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list prayer requests")
	}
	items := make([]PrayerDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i], p.ID()))
	}
	return pagination.Page[PrayerDTO]{Items: items, Pagination: pagination.Build(page, total)}, nil
}

// Get renders a visible prayer. Members also learn whether they have prayed for it.
func (s *Service) Get(ctx context.Context, p principals.Principal, id uuid.UUID) (PrayerDTO, error) {
	prayer, err := s.visible(ctx, s.repo, id)
	if err != nil {
		return PrayerDTO{}, err
	}
	dto := FromModel(prayer, p.ID())
	if p.IsMember() {
		prayed, err := s.repo.HasPrayed(ctx, prayer.ID, p.Member.ID)
		if err != nil {
			return PrayerDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load prayer interaction")
		}
		dto.PrayedByMe = &prayed
	}
	return dto, nil
}

// Update lets the submitter edit an active request.
func (s *Service) Update(ctx context.Context, p principals.Principal, id uuid.UUID, req UpdateRequest) (*models.PrayerRequest, error) {
	prayer, err := s.visible(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !isSubmitter(prayer, p.ID()) || !p.IsMember() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the submitter can edit this prayer request")
	}

	columns := map[string]any{"updated_at": s.now()}
	if req.Title != nil {
		columns["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		columns["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Priority != nil {
		priority, err := enums.ParsePrayerPriority(*req.Priority)
		if err != nil {
			return nil, invalidPriority()
		}
		columns["priority"] = priority
	}

	ok, err := s.repo.UpdateActive(ctx, id, columns)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update prayer request")
	}
	if !ok {
		return nil, s.guardFailure(ctx, s.repo, id)
	}
	return s.visible(ctx, s.repo, id)
}

// Delete hides the request from the board.
func (s *Service) Delete(ctx context.Context, p principals.Principal, id uuid.UUID) error {
	prayer, err := s.visible(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if !p.IsAdministrator() && !isSubmitter(prayer, p.ID()) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the submitter or an administrator can delete this prayer request")
	}
	ok, err := s.repo.Hide(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete prayer request")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return nil
}

// TogglePray flips the member's interaction and keeps prayer_count in step, all in
// one transaction. The guarded touch serialises concurrent toggles on the row.
func (s *Service) TogglePray(ctx context.Context, p principals.Principal, id uuid.UUID) (ToggleResult, error) {
	if !p.IsMember() {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeForbidden, "only members can pray for requests")
	}
	memberID := p.Member.ID

	var result ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		now := s.now()

		touched, err := txRepo.UpdateActive(ctx, id, map[string]any{"updated_at": now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock prayer request")
		}
		if !touched {
			return s.guardFailure(ctx, txRepo, id)
		}

		removed, err := txRepo.DeleteInteraction(ctx, id, memberID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete prayer interaction")
		}
		delta := -1
		if !removed {
			delta = 1
			interaction := &models.PrayerInteraction{PrayerID: id, MemberID: memberID, PrayedAt: now}
			if err := txRepo.InsertInteraction(ctx, interaction); err != nil {
				if pkgdb.IsUniqueViolation(err, "") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrConcurrentPray, "prayer toggled concurrently, retry")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert prayer interaction")
			}
		}

		count, err := txRepo.AdjustCount(ctx, id, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update prayer count")
		}
		result = ToggleResult{PrayerID: id, Prayed: !removed, PrayerCount: count}
		return nil
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return result, nil
}

// MarkAnswered is open to the submitter and to administrators.
func (s *Service) MarkAnswered(ctx context.Context, p principals.Principal, id uuid.UUID, description string) (*models.PrayerRequest, error) {
	prayer, err := s.visible(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdministrator() && !isSubmitter(prayer, p.ID()) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the submitter or an administrator can mark this prayer answered")
	}

	now := s.now()
	ok, err := s.repo.UpdateActive(ctx, id, map[string]any{
		"status":               enums.PrayerStatusAnswered,
		"answered_description": strings.TrimSpace(description),
		"answered_at":          now,
		"updated_at":           now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark prayer answered")
	}
	if !ok {
		return nil, s.guardFailure(ctx, s.repo, id)
	}
	s.logInfo(ctx, "prayer.answered", id)
	return s.visible(ctx, s.repo, id)
}

func (s *Service) Archive(ctx context.Context, id uuid.UUID) (*models.PrayerRequest, error) {
	ok, err := s.repo.Archive(ctx, id, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "archive prayer request")
	}
	prayer, err := s.visible(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "prayer request already archived")
	}
	s.logInfo(ctx, "prayer.archived", id)
	return prayer, nil
}

// ArchiveAnsweredBefore is the batch used by the cron worker.
func (s *Service) ArchiveAnsweredBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	return s.repo.ArchiveAnsweredBefore(ctx, cutoff, limit, s.now())
}

func (s *Service) visible(ctx context.Context, r *Repository, id uuid.UUID) (*models.PrayerRequest, error) {
	prayer, err := r.FindVisible(ctx, id)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load prayer request")
	}
	return prayer, nil
}

// guardFailure explains why an active-only update matched no row.
func (s *Service) guardFailure(ctx context.Context, r *Repository, id uuid.UUID) error {
	if _, err := s.visible(ctx, r, id); err != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrPrayerNotActive, "prayer request is no longer active")
}

func (s *Service) logInfo(ctx context.Context, event string, id uuid.UUID) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"event": event, "prayer_id": id.String()}), event)
}

func isSubmitter(p *models.PrayerRequest, principalID uuid.UUID) bool {
	return p.SubmittedByMemberID != nil && principalID != uuid.Nil && *p.SubmittedByMemberID == principalID
}

func invalidPriority() error {
	return pkgerrors.Validation("invalid prayer request", pkgerrors.FieldError{Field: "priority", Message: "must be one of [low normal high urgent]"})
}
