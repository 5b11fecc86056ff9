package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

var tgSeq atomic.Int64

// User inserts a user with a unique Telegram id. An empty username leaves
// tg_username NULL.
func User(t testing.TB, conn *gorm.DB, username string, role enums.SystemRole) models.User {
	t.Helper()
	u := models.User{TgUserID: 1000 + tgSeq.Add(1), SystemRole: role}
	if username != "" {
		name := strings.ToLower(strings.TrimPrefix(username, "@"))
		u.TgUsername = &name
	}
	if err := conn.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func Venue(t testing.TB, conn *gorm.DB, name string) models.Venue {
	t.Helper()
	v := models.Venue{Name: name}
	if err := conn.Create(&v).Error; err != nil {
		t.Fatalf("create venue: %v", err)
	}
	return v
}

func Member(t testing.TB, conn *gorm.DB, venueID, userID uuid.UUID, role enums.VenueRole) models.VenueMember {
	t.Helper()
	m := models.VenueMember{VenueID: venueID, UserID: userID, VenueRole: role}
	if err := conn.Create(&m).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}

// Position inserts an active position; mutate lets callers flip flags.
func Position(t testing.TB, conn *gorm.DB, venueID, userID uuid.UUID, rate int64, percent int, mutate func(*models.VenuePosition)) models.VenuePosition {
	t.Helper()
	p := models.VenuePosition{
		VenueID:      venueID,
		MemberUserID: userID,
		Title:        fmt.Sprintf("pos-%d", tgSeq.Add(1)),
		Rate:         rate,
		Percent:      percent,
	}
	if mutate != nil {
		mutate(&p)
	}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("create position: %v", err)
	}
	return p
}

func Interval(t testing.TB, conn *gorm.DB, venueID uuid.UUID, title, start, end string) models.ShiftInterval {
	t.Helper()
	startTime, err := calendar.ParseTimeOfDay(start)
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}
	endTime, err := calendar.ParseTimeOfDay(end)
	if err != nil {
		t.Fatalf("parse end: %v", err)
	}
	i := models.ShiftInterval{VenueID: venueID, Title: title, StartTime: startTime, EndTime: endTime}
	if err := conn.Create(&i).Error; err != nil {
		t.Fatalf("create interval: %v", err)
	}
	return i
}

func Shift(t testing.TB, conn *gorm.DB, venueID, intervalID uuid.UUID, date calendar.Date) models.Shift {
	t.Helper()
	s := models.Shift{VenueID: venueID, IntervalID: intervalID, Date: date}
	if err := conn.Create(&s).Error; err != nil {
		t.Fatalf("create shift: %v", err)
	}
	return s
}

// Assign snapshots the position's rate and percent like the scheduler does.
func Assign(t testing.TB, conn *gorm.DB, shiftID uuid.UUID, position models.VenuePosition) models.ShiftAssignment {
	t.Helper()
	positionID := position.ID
	a := models.ShiftAssignment{
		ShiftID:         shiftID,
		MemberUserID:    position.MemberUserID,
		VenuePositionID: &positionID,
		Rate:            position.Rate,
		Percent:         position.Percent,
	}
	if err := conn.Create(&a).Error; err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return a
}
