package principals

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
	"github.com/angelmondragon/churchhub-backend/pkg/identity"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/google/uuid"
)

// maxResolveAttempts bounds re-lookups after losing a creation race.
const maxResolveAttempts = 3

var ErrNotRegistered = errors.New("principal not registered")

type memberStore interface {
	FindBySubject(ctx context.Context, subjectID string) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	Create(ctx context.Context, member *models.Member) error
	LinkSubject(ctx context.Context, id uuid.UUID, subjectID string, now time.Time) (bool, error)
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type administratorStore interface {
	FindBySubject(ctx context.Context, subjectID string) (*models.Administrator, error)
	FindByEmail(ctx context.Context, email string) (*models.Administrator, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Administrator, error)
	Create(ctx context.Context, admin *models.Administrator) error
	LinkSubject(ctx context.Context, id uuid.UUID, subjectID string, now time.Time) (bool, error)
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type seedList interface {
	IsSeedEmail(email string) bool
}

type ResolverParams struct {
	Members        memberStore
	Administrators administratorStore
	Seeds          seedList
	Logger         *logger.Logger
}

// Resolver is the only place that decides which principal a subject maps to.
type Resolver struct {
	members memberStore
	admins  administratorStore
	seeds   seedList
	logg    *logger.Logger
	now     func() time.Time
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Members == nil {
		return nil, fmt.Errorf("members store required")
	}
	if params.Administrators == nil {
		return nil, fmt.Errorf("administrators store required")
	}
	if params.Seeds == nil {
		return nil, fmt.Errorf("seed list required")
	}
	return &Resolver{
		members: params.Members,
		admins:  params.Administrators,
		seeds:   params.Seeds,
		logg:    params.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Resolve returns the principal for a verified identity, creating one on first login.
// Repeated or concurrent calls with the same subject converge on the same row.
func (r *Resolver) Resolve(ctx context.Context, id identity.Identity) (Resolution, error) {
	if strings.TrimSpace(id.SubjectID) == "" {
		return Resolution{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credential")
	}

	var lastErr error
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		res, retry, err := r.resolveOnce(ctx, id)
		if !retry {
			return res, err
		}
		lastErr = err
	}
	return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "concurrent principal creation")
}

// Lookup is the non-creating variant used by the auth middleware.
func (r *Resolver) Lookup(ctx context.Context, subjectID string) (Principal, error) {
	if p, found, err := r.bySubject(ctx, subjectID); err != nil || found {
		return p, err
	}
	return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrNotRegistered, "principal not registered")
}

// LookupAdministrator loads a password-session administrator by id.
func (r *Resolver) LookupAdministrator(ctx context.Context, id uuid.UUID) (Principal, error) {
	admin, err := r.admins.FindByID(ctx, id)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrNotRegistered, "principal not registered")
		}
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load administrator")
	}
	if !admin.Active {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "administrator disabled")
	}
	return FromAdministrator(admin), nil
}

// resolveOnce reports retry=true when a unique violation means another request won
// the race and a fresh lookup will find its row.
func (r *Resolver) resolveOnce(ctx context.Context, id identity.Identity) (Resolution, bool, error) {
	now := r.now()

	p, found, err := r.bySubject(ctx, id.SubjectID)
	if err != nil {
		return Resolution{}, false, err
	}
	if found {
		if err := r.touch(ctx, p, now); err != nil {
			return Resolution{}, false, err
		}
		return Resolution{Kind: kindOf(p), Principal: p}, false, nil
	}

	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return Resolution{}, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "credential carries no email")
	}

	// a known administrator email is linked instead of duplicated
	admin, err := r.admins.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if admin.ExternalSubjectID != nil {
			return Resolution{}, false, pkgerrors.New(pkgerrors.CodeConflict, "email is linked to another identity")
		}
		linked, err := r.admins.LinkSubject(ctx, admin.ID, id.SubjectID, now)
		if err != nil {
			return Resolution{}, isRace(err), wrapStore(err, "link administrator")
		}
		if !linked {
			return Resolution{}, true, errors.New("administrator linked concurrently")
		}
		admin.ExternalSubjectID = &id.SubjectID
		admin.LastLoginAt = &now
		r.log(ctx, "principal.linked", admin.ID, enums.PrincipalKindAdministrator)
		return Resolution{Kind: ResolutionAdministrator, Principal: FromAdministrator(admin)}, false, nil
	case !pkgdb.IsNotFound(err):
		return Resolution{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup administrator")
	}

	if r.seeds.IsSeedEmail(email) {
		subject := id.SubjectID
		admin := &models.Administrator{
			ExternalSubjectID: &subject,
			Email:             email,
			Name:              id.DisplayName(),
			AvatarURL:         optional(id.PictureURL),
			AdminLevel:        enums.AdminLevelStandard,
			Permissions:       models.PermissionsFrom(enums.DefaultAdminPermissions),
			Active:            true,
			LastLoginAt:       &now,
		}
		if err := r.admins.Create(ctx, admin); err != nil {
			return Resolution{}, isRace(err), wrapStore(err, "create administrator")
		}
		r.log(ctx, "principal.created", admin.ID, enums.PrincipalKindAdministrator)
		return Resolution{Kind: ResolutionCreatedAdministrator, Principal: FromAdministrator(admin)}, false, nil
	}

	member, err := r.members.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if member.ExternalSubjectID != nil {
			return Resolution{}, false, pkgerrors.New(pkgerrors.CodeConflict, "email is linked to another identity")
		}
		linked, err := r.members.LinkSubject(ctx, member.ID, id.SubjectID, now)
		if err != nil {
			return Resolution{}, isRace(err), wrapStore(err, "link member")
		}
		if !linked {
			return Resolution{}, true, errors.New("member linked concurrently")
		}
		member.ExternalSubjectID = &id.SubjectID
		member.LastLoginAt = &now
		r.log(ctx, "principal.linked", member.ID, enums.PrincipalKindMember)
		kind := ResolutionMember
		if member.Branch == enums.BranchUnset {
			kind = ResolutionCreatedMemberNeedsBranch
		}
		return Resolution{Kind: kind, Principal: FromMember(member)}, false, nil
	case !pkgdb.IsNotFound(err):
		return Resolution{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup member")
	}

	subject := id.SubjectID
	member = &models.Member{
		ExternalSubjectID: &subject,
		Email:             email,
		Name:              id.DisplayName(),
		AvatarURL:         optional(id.PictureURL),
		Branch:            enums.BranchUnset,
		Active:            true,
		LastLoginAt:       &now,
	}
	if err := r.members.Create(ctx, member); err != nil {
		return Resolution{}, isRace(err), wrapStore(err, "create member")
	}
	r.log(ctx, "principal.created", member.ID, enums.PrincipalKindMember)
	return Resolution{Kind: ResolutionCreatedMemberNeedsBranch, Principal: FromMember(member)}, false, nil
}

func (r *Resolver) bySubject(ctx context.Context, subjectID string) (Principal, bool, error) {
	member, err := r.members.FindBySubject(ctx, subjectID)
	if err == nil {
		return FromMember(member), true, nil
	}
	if !pkgdb.IsNotFound(err) {
		return Principal{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup member")
	}

	admin, err := r.admins.FindBySubject(ctx, subjectID)
	if err == nil {
		return FromAdministrator(admin), true, nil
	}
	if !pkgdb.IsNotFound(err) {
		return Principal{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup administrator")
	}
	return Principal{}, false, nil
}

func (r *Resolver) touch(ctx context.Context, p Principal, now time.Time) error {
	var err error
	if p.IsMember() {
		err = r.members.TouchLogin(ctx, p.Member.ID, now)
		p.Member.LastLoginAt = &now
	} else {
		err = r.admins.TouchLogin(ctx, p.Administrator.ID, now)
		p.Administrator.LastLoginAt = &now
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	return nil
}

func (r *Resolver) log(ctx context.Context, event string, id uuid.UUID, kind enums.PrincipalKind) {
	if r.logg == nil {
		return
	}
	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"event":          event,
		"principal_id":   id.String(),
		"principal_kind": string(kind),
	}), event)
}

func kindOf(p Principal) ResolutionKind {
	if p.IsAdministrator() {
		return ResolutionAdministrator
	}
	return ResolutionMember
}

func isRace(err error) bool {
	return pkgdb.IsUniqueViolation(err, "")
}

func wrapStore(err error, msg string) error {
	if isRace(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
