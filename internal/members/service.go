package members

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgdb "github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
)

var ErrEmailTaken = errors.New("email already registered")

type repository interface {
	Create(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	UpdateProfile(ctx context.Context, member *models.Member) error
	Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Member, int64, error)
}

// Service implements the member-facing and admin-facing member operations that sit
// outside the approval state machine.
type Service struct {
	repo repository
	now  func() time.Time
}

func NewService(repo repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("members repository required")
	}
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load member")
	}
	return member, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, page pagination.Params) (pagination.Page[MemberDTO], error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return pagination.Page[MemberDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list members")
	}
	items := make([]MemberDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return pagination.Page[MemberDTO]{Items: items, Pagination: pagination.Build(page, total)}, nil
}

// PreRegister creates an unlinked pending member that will be claimed on first login.
func (s *Service) PreRegister(ctx context.Context, req PreRegisterRequest) (*models.Member, error) {
	branch := enums.BranchUnset
	if req.Branch != "" {
		parsed, err := enums.ParseBranch(req.Branch)
		if err != nil || !parsed.IsSelectable() {
			return nil, pkgerrors.Validation("invalid branch", pkgerrors.FieldError{Field: "branch", Message: "must be branch1 or branch2"})
		}
		branch = parsed
	}

	member := &models.Member{
		Email:  NormalizeEmail(req.Email),
		Name:   strings.TrimSpace(req.Name),
		Branch: branch,
		Active: true,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ErrEmailTaken, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create member")
	}
	return member, nil
}

// UpdateProfile applies a member's own profile edit. Approval and branch are untouched.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.Member, error) {
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, pkgerrors.Validation("invalid profile", pkgerrors.FieldError{Field: "name", Message: "must not be blank"})
		}
		member.Name = name
	}
	if update.Bio != nil {
		member.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.AvatarURL != nil {
		avatar := strings.TrimSpace(*update.AvatarURL)
		if avatar == "" {
			member.AvatarURL = nil
		} else {
			member.AvatarURL = &avatar
		}
	}
	member.UpdatedAt = s.now()
	if err := s.repo.UpdateProfile(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return member, nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Deactivate(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate member")
	}
	if !ok {
		// already inactive is fine; only a missing row is an error
		_, err := s.Get(ctx, id)
		return err
	}
	return nil
}
