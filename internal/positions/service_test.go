package positions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/pkg/db/dbtest"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

func setup(t *testing.T) (Service, *gorm.DB, *access.Grant, models.User) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(client, NewRepository(client.DB()))
	require.NoError(t, err)

	venue := dbtest.Venue(t, client.DB(), "Bar")
	owner := dbtest.User(t, client.DB(), "owner", enums.SystemRoleNone)
	dbtest.Member(t, client.DB(), venue.ID, owner.ID, enums.VenueRoleOwner)
	staff := dbtest.User(t, client.DB(), "staff", enums.SystemRoleNone)
	dbtest.Member(t, client.DB(), venue.ID, staff.ID, enums.VenueRoleStaff)

	role := enums.VenueRoleOwner
	return svc, client.DB(), &access.Grant{UserID: owner.ID, VenueID: venue.ID, VenueRole: &role}, staff
}

func boolPtr(v bool) *bool { return &v }

func TestCreateIsUpsertByMember(t *testing.T) {
	svc, conn, grant, staff := setup(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, grant, CreatePositionInput{
		MemberUserID: staff.ID,
		Title:        "Bartender",
		Rate:         1000,
		Percent:      5,
		Flags:        FlagsInput{CanEditSchedule: boolPtr(true)},
	})
	require.NoError(t, err)
	assert.True(t, first.Flags.CanEditSchedule)

	second, err := svc.Create(ctx, grant, CreatePositionInput{
		MemberUserID: staff.ID,
		Title:        "Senior bartender",
		Rate:         1500,
		Percent:      7,
		Flags:        FlagsInput{CanMakeReports: boolPtr(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.Flags.CanEditSchedule, "create overwrites flags")
	assert.True(t, second.Flags.CanViewRevenue, "make_reports implies view_revenue")

	var count int64
	require.NoError(t, conn.Model(&models.VenuePosition{}).Where("member_user_id = ?", staff.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateReactivatesDeletedPosition(t *testing.T) {
	svc, _, grant, staff := setup(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, grant, CreatePositionInput{MemberUserID: staff.ID, Title: "Cook"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, grant, created.ID))

	items, err := svc.List(ctx, grant)
	require.NoError(t, err)
	assert.Empty(t, items)

	again, err := svc.Create(ctx, grant, CreatePositionInput{MemberUserID: staff.ID, Title: "Cook"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, enums.LifecycleActive, again.Status)

	items, err = svc.List(ctx, grant)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "@staff", items[0].MemberName)
}

func TestCreateValidation(t *testing.T) {
	svc, _, grant, staff := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, grant, CreatePositionInput{MemberUserID: staff.ID, Title: "X", Percent: 101})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Create(ctx, grant, CreatePositionInput{MemberUserID: staff.ID, Title: " ", Rate: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Create(ctx, grant, CreatePositionInput{MemberUserID: uuid.New(), Title: "Ghost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateKeepsUnsetFlags(t *testing.T) {
	svc, _, grant, staff := setup(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, grant, CreatePositionInput{
		MemberUserID: staff.ID,
		Title:        "Host",
		Flags:        FlagsInput{CanViewAdjustments: boolPtr(true)},
	})
	require.NoError(t, err)

	rate := int64(700)
	updated, err := svc.Update(ctx, grant, created.ID, UpdatePositionInput{
		Rate:  &rate,
		Flags: FlagsInput{CanResolveDisputes: boolPtr(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(700), updated.Rate)
	assert.True(t, updated.Flags.CanViewAdjustments)
	assert.True(t, updated.Flags.CanResolveDisputes)
}

func TestStaffCannotMutatePositions(t *testing.T) {
	svc, _, grant, staff := setup(t)
	role := enums.VenueRoleStaff
	staffGrant := &access.Grant{UserID: staff.ID, VenueID: grant.VenueID, VenueRole: &role}

	_, err := svc.Create(context.Background(), staffGrant, CreatePositionInput{MemberUserID: staff.ID, Title: "Me"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = svc.List(context.Background(), staffGrant)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
