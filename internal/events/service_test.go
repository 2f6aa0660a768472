package events

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	svc, err := NewService(ServiceParams{DB: db})
	require.NoError(t, err)
	return svc, db
}

func member(branch enums.Branch) principals.Principal {
	return principals.FromMember(&models.Member{
		ID:             uuid.New(),
		Email:          uuid.NewString() + "@example.org",
		Branch:         branch,
		ApprovalStatus: enums.ApprovalStatusApproved,
		Active:         true,
	})
}

func admin(perms ...enums.AdminPermission) principals.Principal {
	return principals.FromAdministrator(&models.Administrator{
		ID:          uuid.New(),
		AdminLevel:  enums.AdminLevelStandard,
		Permissions: models.PermissionsFrom(perms),
		Active:      true,
	})
}

func intPtr(v int) *int { return &v }

func futureRequest(branch string) CreateRequest {
	start := time.Now().UTC().Add(48 * time.Hour)
	return CreateRequest{
		Title:    "Sunday Picnic",
		StartsAt: start,
		EndsAt:   start.Add(3 * time.Hour),
		Location: "Main hall",
		Branch:   branch,
	}
}

func TestCreateValidatesTimes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pastor := admin(enums.PermissionManageContent)

	req := futureRequest("branch1")
	req.StartsAt = time.Now().Add(-time.Hour)
	_, err := svc.Create(ctx, pastor, req)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	req = futureRequest("branch1")
	req.EndsAt = req.StartsAt.Add(-time.Minute)
	_, err = svc.Create(ctx, pastor, req)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Create(ctx, pastor, futureRequest(""))
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	event, err := svc.Create(ctx, pastor, futureRequest("both"))
	require.NoError(t, err)
	require.Equal(t, enums.BranchBoth, event.Branch)
	require.False(t, event.CrossBranchRequested)
	require.NotNil(t, event.ApprovedByAdminID)
	require.Equal(t, pastor.ID(), *event.ApprovedByAdminID)
}

func TestBranchVisibility(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pastor := admin(enums.PermissionManageContent)

	branchOnly, err := svc.Create(ctx, pastor, futureRequest("branch1"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, pastor, futureRequest("both"))
	require.NoError(t, err)

	outsider := member(enums.BranchTwo)
	_, err = svc.Get(ctx, outsider, branchOnly.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	page, err := svc.List(ctx, outsider, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, int64(1), page.Pagination.TotalCount)

	insider := member(enums.BranchOne)
	dto, err := svc.Get(ctx, insider, branchOnly.ID)
	require.NoError(t, err)
	require.NotNil(t, dto.Registered)
	require.False(t, *dto.Registered)

	page, err = svc.List(ctx, pastor, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
}

func TestRegistrationCapacity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pastor := admin(enums.PermissionManageContent)

	req := futureRequest("branch1")
	req.MaxAttendees = intPtr(1)
	event, err := svc.Create(ctx, pastor, req)
	require.NoError(t, err)

	alice := member(enums.BranchOne)
	bob := member(enums.BranchOne)

	res, err := svc.Register(ctx, alice, event.ID)
	require.NoError(t, err)
	require.True(t, res.Registered)
	require.Equal(t, 1, res.AttendeeCount)

	_, err = svc.Register(ctx, bob, event.ID)
	require.ErrorIs(t, err, ErrEventFull)
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = svc.Register(ctx, alice, event.ID)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	registered, err := svc.repo.IsRegistered(ctx, event.ID, bob.ID())
	require.NoError(t, err)
	require.False(t, registered, "rolled back registration must not leave an attendee row")

	res, err = svc.Unregister(ctx, alice, event.ID)
	require.NoError(t, err)
	require.False(t, res.Registered)
	require.Equal(t, 0, res.AttendeeCount)

	res, err = svc.Unregister(ctx, alice, event.ID)
	require.NoError(t, err)
	require.Equal(t, 0, res.AttendeeCount)

	res, err = svc.Register(ctx, bob, event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, res.AttendeeCount)

	_, err = svc.Register(ctx, pastor, event.ID)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = svc.Register(ctx, member(enums.BranchTwo), event.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestRegisterRejectsEndedEvent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-72 * time.Hour)
	event := &models.Event{
		Title:                "Yesterday",
		StartsAt:             past,
		EndsAt:               past.Add(time.Hour),
		Branch:               enums.BranchBoth,
		CreatedByPrincipalID: uuid.New(),
		CreatorKind:          enums.PrincipalKindAdministrator,
		Active:               true,
	}
	require.NoError(t, db.Create(event).Error)

	_, err := svc.Register(ctx, member(enums.BranchOne), event.ID)
	require.ErrorIs(t, err, ErrEventEnded)

	page, err := svc.List(ctx, member(enums.BranchOne), ListFilter{Upcoming: true}, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestUpdateCapacityAndPermissions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	creator := member(enums.BranchOne)
	req := futureRequest("")
	req.MaxAttendees = intPtr(5)
	event, err := svc.Create(ctx, creator, req)
	require.NoError(t, err)
	require.Equal(t, enums.BranchOne, event.Branch)
	require.False(t, event.CrossBranchRequested)

	for i := 0; i < 2; i++ {
		_, err := svc.Register(ctx, member(enums.BranchOne), event.ID)
		require.NoError(t, err)
	}

	_, err = svc.Update(ctx, creator, event.ID, UpdateRequest{MaxAttendees: intPtr(1)})
	require.ErrorIs(t, err, ErrCapacityBelowCount)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	title := "Renamed"
	updated, err := svc.Update(ctx, creator, event.ID, UpdateRequest{Title: &title, MaxAttendees: intPtr(2)})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)

	_, err = svc.Update(ctx, member(enums.BranchOne), event.ID, UpdateRequest{Title: &title})
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	branch := "both"
	_, err = svc.Update(ctx, creator, event.ID, UpdateRequest{Branch: &branch})
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	moderator := admin(enums.PermissionManageContent)
	moved, err := svc.Update(ctx, moderator, event.ID, UpdateRequest{Branch: &branch, ClearMaxAttendees: true})
	require.NoError(t, err)
	require.Equal(t, enums.BranchBoth, moved.Branch)
	require.Nil(t, moved.MaxAttendees)

	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(svc.Delete(ctx, admin(), event.ID)))
	require.NoError(t, svc.Delete(ctx, creator, event.ID))
	_, err = svc.Get(ctx, creator, event.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestCrossBranchWorkflow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	creator := member(enums.BranchOne)
	event, err := svc.Create(ctx, creator, futureRequest("both"))
	require.NoError(t, err)
	require.Equal(t, enums.BranchOne, event.Branch)
	require.True(t, event.CrossBranchRequested)

	other := member(enums.BranchTwo)
	_, err = svc.Get(ctx, other, event.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	pending, err := svc.ListCrossBranchRequests(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)

	reviewer := admin(enums.PermissionManageBothBranches)
	approved, err := svc.ApproveCrossBranch(ctx, event.ID, reviewer.ID())
	require.NoError(t, err)
	require.True(t, approved.CrossBranchApproved)

	_, err = svc.Get(ctx, other, event.ID)
	require.NoError(t, err)

	_, err = svc.RejectCrossBranch(ctx, event.ID, reviewer.ID())
	require.ErrorIs(t, err, ErrCrossBranchDecided)

	pending, err = svc.ListCrossBranchRequests(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, pending.Items)

	_, err = svc.ApproveCrossBranch(ctx, uuid.New(), reviewer.ID())
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
