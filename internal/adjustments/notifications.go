package adjustments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

const previewLen = 200

// disputeEvent is a committed dispute message to announce. targetID is set
// for replies so the adjusted member hears about them.
type disputeEvent struct {
	venueID   uuid.UUID
	kind      enums.AdjustmentType
	amount    int64
	date      calendar.Date
	creatorID uuid.UUID
	targetID  *uuid.UUID
	opened    bool
	message   string
}

// fanOut notifies owners, adjustment managers and the adjustment creator.
// It runs after commit and never fails the caller.
func (s *service) fanOut(ctx context.Context, actorID uuid.UUID, ev disputeEvent) {
	ctx = context.WithoutCancel(ctx)
	overseers, err := s.repo.Overseers(ctx, ev.venueID)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "venue_id", ev.venueID.String()), "dispute.notify_recipients_failed", err)
		return
	}
	ids := make([]uuid.UUID, 0, len(overseers)+2)
	for _, u := range overseers {
		ids = append(ids, u.ID)
	}
	ids = append(ids, ev.creatorID)
	if ev.targetID != nil {
		ids = append(ids, *ev.targetID)
	}

	recipients := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}
	s.deliver(ctx, recipients, s.disputeText(ctx, actorID, ev))
}

// deliver sends text to each distinct user who accepts adjustment messages.
func (s *service) deliver(ctx context.Context, userIDs []uuid.UUID, text string) {
	ctx = context.WithoutCancel(ctx)
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	sent, failed := 0, 0
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		user, err := s.repo.FindUser(ctx, id)
		if err != nil {
			failed++
			continue
		}
		if !user.WantsAdjustmentNotifications() || user.TgUserID == 0 {
			continue
		}
		if s.notifier.Send(ctx, user.TgUserID, text) {
			sent++
		} else {
			failed++
		}
	}
	if failed > 0 {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"sent":   sent,
			"failed": failed,
		}), "adjustment.notify_partial")
	}
}

func (s *service) venueName(ctx context.Context, venueID uuid.UUID) string {
	venue, err := s.repo.FindVenue(ctx, venueID)
	if err != nil {
		return "venue"
	}
	return venue.Name
}

func (s *service) actorName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return "someone"
	}
	return user.DisplayName()
}

func (s *service) adjustmentText(ctx context.Context, adj *models.Adjustment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: new %s of %d on %s", s.venueName(ctx, adj.VenueID), adj.Type, adj.Amount, adj.Date)
	if adj.Reason != nil {
		fmt.Fprintf(&b, "\nReason: %s", *adj.Reason)
	}
	return b.String()
}

func (s *service) disputeText(ctx context.Context, actorID uuid.UUID, ev disputeEvent) string {
	verb := "replied in the dispute about"
	if ev.opened {
		verb = "disputed"
	}
	return fmt.Sprintf("%s: %s %s the %s of %d on %s\n%s",
		s.venueName(ctx, ev.venueID), s.actorName(ctx, actorID), verb, ev.kind, ev.amount, ev.date, preview(ev.message))
}

func preview(message string) string {
	runes := []rune(message)
	if len(runes) <= previewLen {
		return message
	}
	return string(runes[:previewLen]) + "…"
}
