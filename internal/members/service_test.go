package members

import (
	"context"
	"testing"

	"github.com/angelmondragon/churchhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func TestPreRegister(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member, err := svc.PreRegister(ctx, PreRegisterRequest{Email: "New@Example.org", Name: " New ", Branch: "branch2"})
	require.NoError(t, err)
	require.Equal(t, "new@example.org", member.Email)
	require.Equal(t, "New", member.Name)
	require.Equal(t, enums.BranchTwo, member.Branch)
	require.Equal(t, enums.ApprovalStatusPending, member.ApprovalStatus)

	_, err = svc.PreRegister(ctx, PreRegisterRequest{Email: "new@example.org", Name: "Dup"})
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.PreRegister(ctx, PreRegisterRequest{Email: "x@example.org", Name: "X", Branch: "both"})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member, err := svc.PreRegister(ctx, PreRegisterRequest{Email: "p@example.org", Name: "P"})
	require.NoError(t, err)

	name, bio, avatar := "Paula", "Choir", "https://cdn.example.org/p.png"
	updated, err := svc.UpdateProfile(ctx, member.ID, ProfileUpdate{Name: &name, Bio: &bio, AvatarURL: &avatar})
	require.NoError(t, err)
	require.Equal(t, "Paula", updated.Name)
	require.Equal(t, "Choir", updated.Bio)
	require.NotNil(t, updated.AvatarURL)

	blank := "  "
	_, err = svc.UpdateProfile(ctx, member.ID, ProfileUpdate{Name: &blank})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.UpdateProfile(ctx, uuid.New(), ProfileUpdate{Name: &name})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeactivateIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member, err := svc.PreRegister(ctx, PreRegisterRequest{Email: "d@example.org", Name: "D"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, member.ID))
	require.NoError(t, svc.Deactivate(ctx, member.ID))
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.Deactivate(ctx, uuid.New())))

	active := false
	page, err := svc.List(ctx, ListFilter{Active: &active}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.False(t, page.Items[0].Active)
}
