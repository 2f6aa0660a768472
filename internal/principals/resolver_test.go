package principals

import (
	"context"
	"testing"

	"github.com/angelmondragon/churchhub-backend/internal/administrators"
	"github.com/angelmondragon/churchhub-backend/internal/members"
	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/angelmondragon/churchhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	members  *members.Repository
	admins   *administrators.Repository
	resolver *Resolver
}

func newFixture(t *testing.T, seeds ...string) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{db: db, members: members.NewRepository(db), admins: administrators.NewRepository(db)}
	r, err := NewResolver(ResolverParams{
		Members:        f.members,
		Administrators: f.admins,
		Seeds:          config.AdminConfig{SeedEmails: seeds},
	})
	require.NoError(t, err)
	f.resolver = r
	return f
}

func TestResolveCreatesPendingMemberOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := identity.Identity{SubjectID: "sub-a", Email: "A@X.com", Name: "A"}

	first, err := f.resolver.Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, ResolutionCreatedMemberNeedsBranch, first.Kind)
	require.True(t, first.Principal.IsMember())
	require.Equal(t, enums.ApprovalStatusPending, first.Principal.Member.ApprovalStatus)
	require.Equal(t, enums.BranchUnset, first.Principal.Member.Branch)
	require.Equal(t, "a@x.com", first.Principal.Member.Email)
	require.Equal(t, "select-branch", first.RedirectHint())

	second, err := f.resolver.Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, ResolutionMember, second.Kind)
	require.Equal(t, first.Principal.ID(), second.Principal.ID())
	require.NotNil(t, second.Principal.Member.LastLoginAt)

	var count int64
	require.NoError(t, f.db.Model(&models.Member{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestResolveSeedEmailCreatesAdministrator(t *testing.T) {
	f := newFixture(t, "pastor@church.org")
	ctx := context.Background()
	id := identity.Identity{SubjectID: "sub-p", Email: "Pastor@Church.org", Name: "Pastor"}

	res, err := f.resolver.Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, ResolutionCreatedAdministrator, res.Kind)
	require.True(t, res.Principal.IsAdministrator())
	require.Equal(t, enums.AdminLevelStandard, res.Principal.Administrator.AdminLevel)
	require.True(t, res.Principal.HasPermission(enums.PermissionManageContent))
	require.True(t, res.Principal.HasPermission(enums.PermissionManageSermons))
	require.False(t, res.Principal.HasPermission(enums.PermissionManageUsers))
	require.Equal(t, "admin-dashboard", res.RedirectHint())

	again, err := f.resolver.Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, ResolutionAdministrator, again.Kind)
	require.Equal(t, res.Principal.ID(), again.Principal.ID())
}

func TestResolveLinksExistingAdministratorByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &models.Administrator{Email: "staff@church.org", Name: "Staff", AdminLevel: enums.AdminLevelSuper, Active: true}
	require.NoError(t, f.admins.Create(ctx, admin))

	res, err := f.resolver.Resolve(ctx, identity.Identity{SubjectID: "sub-s", Email: "staff@church.org"})
	require.NoError(t, err)
	require.Equal(t, ResolutionAdministrator, res.Kind)
	require.Equal(t, admin.ID, res.Principal.ID())

	p, err := f.resolver.Lookup(ctx, "sub-s")
	require.NoError(t, err)
	require.True(t, p.IsAdministrator())
	require.True(t, p.IsApproved())
	require.False(t, p.BranchFilter().Restricted())
}

func TestResolveLinksPreRegisteredMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := &models.Member{Email: "pre@x.com", Name: "Pre", Branch: enums.BranchTwo, Active: true}
	require.NoError(t, f.members.Create(ctx, member))

	res, err := f.resolver.Resolve(ctx, identity.Identity{SubjectID: "sub-pre", Email: "pre@x.com"})
	require.NoError(t, err)
	require.Equal(t, ResolutionMember, res.Kind)
	require.Equal(t, member.ID, res.Principal.ID())
	require.Equal(t, "pending-approval", res.RedirectHint())

	filter := res.Principal.BranchFilter()
	require.True(t, filter.Restricted())
	require.Equal(t, enums.BranchTwo, filter.Branch())

	// the email is now bound; a different subject cannot claim it
	_, err = f.resolver.Resolve(ctx, identity.Identity{SubjectID: "sub-other", Email: "pre@x.com"})
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestLookupUnknownSubject(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.Lookup(context.Background(), "nobody")
	require.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestResolveRequiresSubjectAndEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.Resolve(context.Background(), identity.Identity{Email: "x@y.z"})
	require.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
	_, err = f.resolver.Resolve(context.Background(), identity.Identity{SubjectID: "s"})
	require.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
}

// racingMembers inserts a competing row just before the resolver's own insert, as a
// concurrent first login would.
type racingMembers struct {
	*members.Repository
	raced bool
}

func (r *racingMembers) Create(ctx context.Context, member *models.Member) error {
	if !r.raced {
		r.raced = true
		winner := *member
		winner.ID = uuid.Nil
		if err := r.Repository.Create(ctx, &winner); err != nil {
			return err
		}
	}
	return r.Repository.Create(ctx, member)
}

func TestResolveConvergesAfterLostRace(t *testing.T) {
	db := dbtest.Open(t)
	repo := members.NewRepository(db)
	racing := &racingMembers{Repository: repo}
	r, err := NewResolver(ResolverParams{
		Members:        racing,
		Administrators: administrators.NewRepository(db),
		Seeds:          config.AdminConfig{},
	})
	require.NoError(t, err)

	res, err := r.Resolve(context.Background(), identity.Identity{SubjectID: "sub-race", Email: "race@x.com"})
	require.NoError(t, err)
	require.Equal(t, ResolutionMember, res.Kind)

	winner, err := repo.FindBySubject(context.Background(), "sub-race")
	require.NoError(t, err)
	require.Equal(t, winner.ID, res.Principal.ID())

	var count int64
	require.NoError(t, db.Model(&models.Member{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestPrincipalApproval(t *testing.T) {
	approved := FromMember(&models.Member{Active: true, ApprovalStatus: enums.ApprovalStatusApproved})
	pending := FromMember(&models.Member{Active: true, ApprovalStatus: enums.ApprovalStatusPending})
	inactive := FromMember(&models.Member{Active: false, ApprovalStatus: enums.ApprovalStatusApproved})
	require.True(t, approved.IsApproved())
	require.False(t, pending.IsApproved())
	require.False(t, inactive.IsApproved())
	require.False(t, approved.HasPermission(enums.PermissionManageUsers))
	require.False(t, Principal{}.IsApproved())
}
