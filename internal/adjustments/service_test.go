package adjustments

import (
	"context"
	"strings"
	"sync"
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

type recordingNotifier struct {
	mu   sync.Mutex
	sent []int64
	fail bool
}

func (r *recordingNotifier) Send(_ context.Context, chatID int64, _ string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, chatID)
	return !r.fail
}

func (r *recordingNotifier) take() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent
	r.sent = nil
	return out
}

type fixture struct {
	conn     *gorm.DB
	svc      Service
	notifier *recordingNotifier
	venue    models.Venue
	owner    models.User
	manager  models.User
	staff    models.User
	other    models.User
	day      calendar.Date
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	notifier := &recordingNotifier{}
	svc, err := NewService(client, NewRepository(conn), notifier, nil)
	require.NoError(t, err)

	f := &fixture{conn: conn, svc: svc, notifier: notifier, day: calendar.NewDate(2025, time.June, 10)}
	f.venue = dbtest.Venue(t, conn, "Bar")
	f.owner = dbtest.User(t, conn, "owner", enums.SystemRoleNone)
	f.manager = dbtest.User(t, conn, "manager", enums.SystemRoleNone)
	f.staff = dbtest.User(t, conn, "staff", enums.SystemRoleNone)
	f.other = dbtest.User(t, conn, "other", enums.SystemRoleNone)
	dbtest.Member(t, conn, f.venue.ID, f.owner.ID, enums.VenueRoleOwner)
	dbtest.Member(t, conn, f.venue.ID, f.manager.ID, enums.VenueRoleStaff)
	dbtest.Member(t, conn, f.venue.ID, f.staff.ID, enums.VenueRoleStaff)
	dbtest.Member(t, conn, f.venue.ID, f.other.ID, enums.VenueRoleStaff)
	dbtest.Position(t, conn, f.venue.ID, f.manager.ID, 0, 0, func(p *models.VenuePosition) {
		p.CanManageAdjustments = true
	})
	dbtest.Position(t, conn, f.venue.ID, f.staff.ID, 500, 10, nil)
	return f
}

func (f *fixture) grant(user models.User, role enums.VenueRole, flags access.Flags) *access.Grant {
	r := role
	return &access.Grant{UserID: user.ID, VenueID: f.venue.ID, VenueRole: &r, Flags: flags}
}

func (f *fixture) ownerGrant() *access.Grant {
	return f.grant(f.owner, enums.VenueRoleOwner, access.Flags{})
}

func (f *fixture) managerGrant() *access.Grant {
	return f.grant(f.manager, enums.VenueRoleStaff, access.Flags{CanManageAdjustments: true})
}

func (f *fixture) staffGrant() *access.Grant {
	return f.grant(f.staff, enums.VenueRoleStaff, access.Flags{})
}

func (f *fixture) otherGrant() *access.Grant {
	return f.grant(f.other, enums.VenueRoleStaff, access.Flags{})
}

func (f *fixture) penalty(t *testing.T, amount int64) *AdjustmentDTO {
	t.Helper()
	member := f.staff.ID
	adj, err := f.svc.Create(context.Background(), f.managerGrant(), CreateInput{
		Type:         enums.AdjustmentTypePenalty,
		MemberUserID: &member,
		Date:         f.day,
		Amount:       amount,
	})
	require.NoError(t, err)
	f.notifier.take()
	return adj
}

func TestCreateValidationAndGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.staff.ID
	stranger := uuid.New()
	long := strings.Repeat("x", maxReasonLen+1)

	_, err := f.svc.Create(ctx, f.staffGrant(), CreateInput{Type: enums.AdjustmentTypeBonus, MemberUserID: &member, Date: f.day, Amount: 10})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	cases := []CreateInput{
		{Type: enums.AdjustmentTypePenalty, Date: f.day, Amount: 10},
		{Type: "fine", MemberUserID: &member, Date: f.day, Amount: 10},
		{Type: enums.AdjustmentTypeBonus, MemberUserID: &member, Date: f.day, Amount: -1},
		{Type: enums.AdjustmentTypeBonus, MemberUserID: &member, Date: f.day, Amount: 1, Reason: &long},
		{Type: enums.AdjustmentTypeBonus, MemberUserID: &stranger, Date: f.day, Amount: 1},
		{Type: enums.AdjustmentTypeBonus, MemberUserID: &member, Amount: 1},
	}
	for i, input := range cases {
		_, err := f.svc.Create(ctx, f.ownerGrant(), input)
		assert.Truef(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "case %d: %v", i, err)
	}

	writeoff, err := f.svc.Create(ctx, f.ownerGrant(), CreateInput{Type: enums.AdjustmentTypeWriteoff, Date: f.day, Amount: 40})
	require.NoError(t, err)
	assert.Nil(t, writeoff.MemberUserID)
	assert.Nil(t, writeoff.MemberName)
	assert.Empty(t, f.notifier.take(), "venue-level writeoff has nobody to tell")
}

func TestCreateNotifiesTargetButNotActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.staff.ID
	reason := "  late  "

	adj, err := f.svc.Create(ctx, f.managerGrant(), CreateInput{
		Type: enums.AdjustmentTypePenalty, MemberUserID: &member, Date: f.day, Amount: 100, Reason: &reason,
	})
	require.NoError(t, err)
	require.NotNil(t, adj.Reason)
	assert.Equal(t, "late", *adj.Reason)
	assert.Equal(t, "@staff", *adj.MemberName)
	assert.Equal(t, []int64{f.staff.TgUserID}, f.notifier.take())

	self := f.manager.ID
	_, err = f.svc.Create(ctx, f.managerGrant(), CreateInput{Type: enums.AdjustmentTypeBonus, MemberUserID: &self, Date: f.day, Amount: 5})
	require.NoError(t, err)
	assert.Empty(t, f.notifier.take())
}

func TestListVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.penalty(t, 100)
	otherMember := f.other.ID
	_, err := f.svc.Create(ctx, f.ownerGrant(), CreateInput{Type: enums.AdjustmentTypeBonus, MemberUserID: &otherMember, Date: f.day, Amount: 50})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.ownerGrant(), CreateInput{Type: enums.AdjustmentTypeBonus, MemberUserID: &otherMember, Date: f.day.AddDays(30), Amount: 7})
	require.NoError(t, err)

	month := f.day.Month()
	all, err := f.svc.List(ctx, f.ownerGrant(), ListFilter{Month: month})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	viewer := f.grant(f.manager, enums.VenueRoleStaff, access.Flags{CanViewAdjustments: true})
	seen, err := f.svc.List(ctx, viewer, ListFilter{Month: month})
	require.NoError(t, err)
	assert.Len(t, seen, 2)

	own, err := f.svc.List(ctx, f.staffGrant(), ListFilter{Month: month})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, f.staff.ID, *own[0].MemberUserID)

	mine, err := f.svc.List(ctx, f.ownerGrant(), ListFilter{Month: month, Mine: true})
	require.NoError(t, err)
	assert.Empty(t, mine)

	bonus := enums.AdjustmentTypeBonus
	bonuses, err := f.svc.List(ctx, f.ownerGrant(), ListFilter{Month: month, Type: &bonus})
	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	assert.Equal(t, int64(50), bonuses[0].Amount)

	_, err = f.svc.Get(ctx, f.staffGrant(), bonuses[0].ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateAndSoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adj := f.penalty(t, 100)
	assert.Nil(t, adj.UpdatedByUserID)

	amount := int64(80)
	updated, err := f.svc.Update(ctx, f.ownerGrant(), adj.ID, UpdateInput{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, int64(80), updated.Amount)
	require.NotNil(t, updated.UpdatedByUserID)
	assert.Equal(t, f.owner.ID, *updated.UpdatedByUserID)

	_, err = f.svc.Update(ctx, f.ownerGrant(), adj.ID, UpdateInput{ClearMember: true})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "penalties keep their member")

	writeoff := enums.AdjustmentTypeWriteoff
	venueLevel, err := f.svc.Update(ctx, f.ownerGrant(), adj.ID, UpdateInput{Type: &writeoff, ClearMember: true})
	require.NoError(t, err)
	assert.Nil(t, venueLevel.MemberUserID)

	assert.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, f.staffGrant(), adj.ID), pkgerrors.CodeForbidden))
	require.NoError(t, f.svc.Delete(ctx, f.managerGrant(), adj.ID))
	_, err = f.svc.Get(ctx, f.ownerGrant(), adj.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, f.ownerGrant(), adj.ID), pkgerrors.CodeNotFound))

	var stored models.Adjustment
	require.NoError(t, f.conn.First(&stored, "id = ?", adj.ID).Error)
	assert.Equal(t, enums.LifecycleDeleted, stored.Status)
}

func TestOneOpenDisputeWithGrowingComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adj := f.penalty(t, 100)

	first, created, err := f.svc.OpenDispute(ctx, f.staffGrant(), enums.AdjustmentTypePenalty, adj.ID, "I was on time")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, enums.DisputeStatusOpen, first.Status)
	require.Len(t, first.Comments, 1)

	second, created, err := f.svc.OpenDispute(ctx, f.staffGrant(), enums.AdjustmentTypePenalty, adj.ID, "see the camera log")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Comments, 2)
	assert.Equal(t, "I was on time", second.Comments[0].Message)
	assert.Equal(t, "see the camera log", second.Comments[1].Message)

	var count int64
	require.NoError(t, f.conn.Model(&models.AdjustmentDispute{}).Where("adjustment_id = ?", adj.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	listed, err := f.svc.Get(ctx, f.staffGrant(), adj.ID)
	require.NoError(t, err)
	assert.True(t, listed.HasOpenDispute)
}

func TestOnlyTargetMayOpenDispute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adj := f.penalty(t, 100)

	_, _, err := f.svc.OpenDispute(ctx, f.ownerGrant(), enums.AdjustmentTypePenalty, adj.ID, "hm")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, _, err = f.svc.OpenDispute(ctx, f.staffGrant(), enums.AdjustmentTypeBonus, adj.ID, "wrong type in path")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, _, err = f.svc.OpenDispute(ctx, f.staffGrant(), enums.AdjustmentTypePenalty, adj.ID, "   ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDisputeCloseAndReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adj := f.penalty(t, 100)
	dispute, _, err := f.svc.OpenDispute(ctx, f.staffGrant(), enums.AdjustmentTypePenalty, adj.ID, "no")
	require.NoError(t, err)

	_, err = f.svc.SetDisputeStatus(ctx, f.staffGrant(), dispute.ID, enums.DisputeStatusClosed)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	resolver := f.grant(f.other, enums.VenueRoleStaff, access.Flags{CanResolveDisputes: true})
	closed, err := f.svc.SetDisputeStatus(ctx, resolver, dispute.ID, enums.DisputeStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusClosed, closed.Status)
	require.NotNil(t, closed.ResolvedByUserID)
	assert.Equal(t, f.other.ID, *closed.ResolvedByUserID)
	assert.NotNil(t, closed.ResolvedAt)

	reopened, err := f.svc.SetDisputeStatus(ctx, f.ownerGrant(), dispute.ID, enums.DisputeStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusOpen, reopened.Status)
	assert.Nil(t, reopened.ResolvedByUserID)
	assert.Nil(t, reopened.ResolvedAt)

	_, err = f.svc.SetDisputeStatus(ctx, f.ownerGrant(), dispute.ID, enums.DisputeStatusClosed)
	require.NoError(t, err)
	fresh, created, err := f.svc.OpenDispute(ctx, f.staffGrant(), enums.AdjustmentTypePenalty, adj.ID, "again")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, dispute.ID, fresh.ID)

	_, err = f.svc.SetDisputeStatus(ctx, f.managerGrant(), dispute.ID, enums.DisputeStatusOpen)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	current, err := f.svc.AdjustmentDispute(ctx, f.staffGrant(), enums.AdjustmentTypePenalty, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, current.ID)

	open := enums.DisputeStatusOpen
	openOnly, err := f.svc.ListDisputes(ctx, f.ownerGrant(), &open)
	require.NoError(t, err)
	require.Len(t, openOnly, 1)
	assert.Equal(t, fresh.ID, openOnly[0].ID)

	everything, err := f.svc.ListDisputes(ctx, f.ownerGrant(), nil)
	require.NoError(t, err)
	assert.Len(t, everything, 2)

	theirs, err := f.svc.ListDisputes(ctx, f.otherGrant(), nil)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestDisputeCommentPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adj := f.penalty(t, 100)
	dispute, _, err := f.svc.OpenDispute(ctx, f.staffGrant(), enums.AdjustmentTypePenalty, adj.ID, "why")
	require.NoError(t, err)

	_, err = f.svc.AddComment(ctx, f.otherGrant(), dispute.ID, "me too")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.GetDispute(ctx, f.otherGrant(), dispute.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	viewer := f.grant(f.other, enums.VenueRoleStaff, access.Flags{CanViewAdjustments: true})
	reply, err := f.svc.AddComment(ctx, viewer, dispute.ID, "  checked the log  ")
	require.NoError(t, err)
	assert.Equal(t, "checked the log", reply.Message)
	assert.Equal(t, "@other", reply.AuthorName)

	_, err = f.svc.AddComment(ctx, f.staffGrant(), dispute.ID, strings.Repeat("y", maxMessageLen+1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	thread, err := f.svc.GetDispute(ctx, f.staffGrant(), dispute.ID)
	require.NoError(t, err)
	require.Len(t, thread.Comments, 2)
	assert.Equal(t, f.staff.ID, thread.Comments[0].AuthorUserID)
	assert.Equal(t, f.other.ID, thread.Comments[1].AuthorUserID)
}

func TestDisputeFanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adj := f.penalty(t, 100)

	_, _, err := f.svc.OpenDispute(ctx, f.staffGrant(), enums.AdjustmentTypePenalty, adj.ID, "unfair")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{f.owner.TgUserID, f.manager.TgUserID}, f.notifier.take(),
		"owners and managers once each, never the actor")

	dispute, err := f.svc.AdjustmentDispute(ctx, f.ownerGrant(), enums.AdjustmentTypePenalty, adj.ID)
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, f.ownerGrant(), dispute.ID, "looking into it")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{f.manager.TgUserID, f.staff.TgUserID}, f.notifier.take())

	require.NoError(t, f.conn.Model(&models.User{}).Where("id = ?", f.manager.ID).Update("notify_adjustments", false).Error)
	require.NoError(t, f.conn.Model(&models.User{}).Where("id = ?", f.owner.ID).Update("notify_enabled", false).Error)
	_, err = f.svc.AddComment(ctx, f.staffGrant(), dispute.ID, "thanks")
	require.NoError(t, err)
	assert.Empty(t, f.notifier.take(), "muted recipients are skipped")
}

func TestNotifierFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.fail = true
	adj := f.penalty(t, 100)

	dispute, created, err := f.svc.OpenDispute(ctx, f.staffGrant(), enums.AdjustmentTypePenalty, adj.ID, "no")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, dispute.Comments, 1)
}
