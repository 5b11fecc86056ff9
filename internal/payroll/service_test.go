package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/dbtest"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

type fixture struct {
	conn   *gorm.DB
	svc    Service
	venue  models.Venue
	first  models.User
	second models.User
	day    calendar.Date
	report models.DailyReport
}

// newFixture reproduces the reference day: revenue 1000, tips 100, one
// member at 500 + 10% and one at 0 + 5%.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	conn := client.DB()

	venue := dbtest.Venue(t, conn, "Bar")
	first := dbtest.User(t, conn, "first", enums.SystemRoleNone)
	second := dbtest.User(t, conn, "second", enums.SystemRoleNone)
	dbtest.Member(t, conn, venue.ID, first.ID, enums.VenueRoleStaff)
	dbtest.Member(t, conn, venue.ID, second.ID, enums.VenueRoleStaff)
	p1 := dbtest.Position(t, conn, venue.ID, first.ID, 500, 10, nil)
	p2 := dbtest.Position(t, conn, venue.ID, second.ID, 0, 5, nil)

	day := calendar.NewDate(2025, time.June, 10)
	morning := dbtest.Interval(t, conn, venue.ID, "Morning", "08:00", "14:00")
	evening := dbtest.Interval(t, conn, venue.ID, "Evening", "14:00", "22:00")
	s1 := dbtest.Shift(t, conn, venue.ID, morning.ID, day)
	s2 := dbtest.Shift(t, conn, venue.ID, evening.ID, day)
	dbtest.Assign(t, conn, s1.ID, p1)
	dbtest.Assign(t, conn, s2.ID, p2)

	report := models.DailyReport{VenueID: venue.ID, Date: day, RevenueTotal: 1000, TipsTotal: 100, CreatedByUserID: first.ID}
	require.NoError(t, conn.Create(&report).Error)

	return &fixture{conn: conn, svc: svc, venue: venue, first: first, second: second, day: day, report: report}
}

func (f *fixture) adjust(t *testing.T, member uuid.UUID, kind enums.AdjustmentType, amount int64) {
	t.Helper()
	adj := models.Adjustment{
		VenueID:         f.venue.ID,
		Type:            kind,
		MemberUserID:    &member,
		Date:            f.day,
		Amount:          amount,
		Status:          enums.LifecycleActive,
		CreatedByUserID: member,
	}
	require.NoError(t, f.conn.Create(&adj).Error)
}

func TestMyShiftsReferenceDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.svc.MyShifts(ctx, f.first.ID, f.day.Month())
	require.NoError(t, err)
	require.Len(t, mine, 1, "only the caller's own assignments")
	assert.True(t, mine[0].HasReport)
	assert.Equal(t, int64(600), mine[0].MySalary)
	assert.Equal(t, int64(50), mine[0].TipsShare)
	assert.Equal(t, "Bar", mine[0].Venue.Name)
	assert.Equal(t, "Morning", mine[0].Interval.Title)

	theirs, err := f.svc.MyShifts(ctx, f.second.ID, f.day.Month())
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, int64(50), theirs[0].MySalary)
	assert.Equal(t, int64(50), theirs[0].TipsShare)
}

func TestNoReportMeansZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.conn.Delete(&f.report).Error)

	for _, user := range []uuid.UUID{f.first.ID, f.second.ID} {
		mine, err := f.svc.MyShifts(ctx, user, f.day.Month())
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.False(t, mine[0].HasReport)
		assert.Zero(t, mine[0].MySalary)
		assert.Zero(t, mine[0].TipsShare)

		summary, err := f.svc.MySalarySummary(ctx, user, f.day.Month())
		require.NoError(t, err)
		require.Len(t, summary.Items, 1)
		assert.Zero(t, summary.Items[0].Earned)
		assert.Zero(t, summary.Items[0].Tips)
	}
}

func TestSalarySummaryNet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.adjust(t, f.first.ID, enums.AdjustmentTypeBonus, 100)
	f.adjust(t, f.first.ID, enums.AdjustmentTypePenalty, 30)
	f.adjust(t, f.first.ID, enums.AdjustmentTypeWriteoff, 20)

	other := dbtest.Venue(t, f.conn, "Annex")
	member := f.first.ID
	require.NoError(t, f.conn.Create(&models.Adjustment{
		VenueID: other.ID, Type: enums.AdjustmentTypeBonus, MemberUserID: &member,
		Date: f.day, Amount: 5, Status: enums.LifecycleActive, CreatedByUserID: member,
	}).Error)

	summary, err := f.svc.MySalarySummary(ctx, f.first.ID, f.day.Month())
	require.NoError(t, err)
	assert.Equal(t, "2025-06", summary.Month)
	require.Len(t, summary.Items, 2, "venues with only adjustments are included")
	assert.Equal(t, "Annex", summary.Items[0].Venue.Name)

	bar := summary.Items[1]
	assert.Equal(t, int64(600), bar.Earned)
	assert.Equal(t, int64(50), bar.Tips)
	assert.Equal(t, int64(100), bar.Bonuses)
	assert.Equal(t, int64(50), bar.Penalties)
	assert.Equal(t, int64(650), bar.Net)
	assert.Equal(t, bar.Earned+bar.Bonuses-bar.Penalties, bar.Net)

	assert.Equal(t, int64(655), summary.Totals.Net)
	assert.Equal(t, int64(105), summary.Totals.Bonuses)
}

func TestOtherMonthsAndDeletedAdjustmentsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.first.ID
	require.NoError(t, f.conn.Create(&models.Adjustment{
		VenueID: f.venue.ID, Type: enums.AdjustmentTypePenalty, MemberUserID: &member,
		Date: f.day, Amount: 999, Status: enums.LifecycleDeleted, CreatedByUserID: member,
	}).Error)

	summary, err := f.svc.MySalarySummary(ctx, f.first.ID, f.day.Month())
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Zero(t, summary.Items[0].Penalties)

	next, err := f.svc.MySalarySummary(ctx, f.first.ID, f.day.Month().Next())
	require.NoError(t, err)
	assert.Empty(t, next.Items)
	assert.Zero(t, next.Totals.Net)
}

func TestVenuePayroll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.adjust(t, f.second.ID, enums.AdjustmentTypePenalty, 10)

	staffRole := enums.VenueRoleStaff
	_, err := f.svc.VenuePayroll(ctx, &access.Grant{UserID: f.first.ID, VenueID: f.venue.ID, VenueRole: &staffRole}, f.day.Month())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	sheet, err := f.svc.VenuePayroll(ctx, &access.Grant{UserID: uuid.New(), VenueID: f.venue.ID, SystemRole: enums.SystemRoleSuperAdmin}, f.day.Month())
	require.NoError(t, err)
	require.Len(t, sheet.Items, 2)
	byMember := map[uuid.UUID]MemberPayrollDTO{}
	for _, item := range sheet.Items {
		byMember[item.MemberUserID] = item
	}
	assert.Equal(t, int64(600), byMember[f.first.ID].Earned)
	assert.Equal(t, int64(50), byMember[f.first.ID].Tips)
	assert.Equal(t, 1, byMember[f.first.ID].Shifts)
	assert.Equal(t, int64(50), byMember[f.second.ID].Earned)
	assert.Equal(t, int64(40), byMember[f.second.ID].Net)
	assert.Equal(t, int64(640), sheet.Totals.Net, "net excludes tips")
	assert.Equal(t, int64(100), sheet.Totals.Tips)
	var net int64
	for _, item := range sheet.Items {
		net += item.Net
	}
	assert.Equal(t, net, sheet.Totals.Net)
}
