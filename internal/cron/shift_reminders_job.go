package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/internal/notify"
	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/metrics"
)

const (
	ShiftRemindersJobName = "shift-reminders"

	defaultReminderLead   = 18 * time.Hour
	defaultReminderWindow = 15 * time.Minute
)

type ShiftRemindersJobParams struct {
	Logger   *logger.Logger
	DB       *gorm.DB
	Notifier notify.Notifier
	Location *time.Location
	Lead     time.Duration
	Window   time.Duration
	Metrics  *metrics.CronJobMetrics
}

// ReminderStats summarizes one pass over due assignments.
type ReminderStats struct {
	Due     int `json:"due"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ShiftRemindersJob messages members whose shift starts roughly Lead from
// now. Each assignment is reminded at most once.
type ShiftRemindersJob struct {
	logg     *logger.Logger
	db       *gorm.DB
	notifier notify.Notifier
	loc      *time.Location
	lead     time.Duration
	window   time.Duration
	metrics  *metrics.CronJobMetrics
	now      func() time.Time
}

func NewShiftRemindersJob(params ShiftRemindersJobParams) (*ShiftRemindersJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	lead := params.Lead
	if lead <= 0 {
		lead = defaultReminderLead
	}
	window := params.Window
	if window <= 0 {
		window = defaultReminderWindow
	}
	return &ShiftRemindersJob{
		logg:     params.Logger,
		db:       params.DB,
		notifier: params.Notifier,
		loc:      loc,
		lead:     lead,
		window:   window,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

func (j *ShiftRemindersJob) Name() string { return ShiftRemindersJobName }

func (j *ShiftRemindersJob) Run(ctx context.Context) error {
	stats, err := j.SendDue(ctx)
	if err != nil {
		return err
	}
	j.metrics.AddItems(ShiftRemindersJobName, "sent", stats.Sent)
	j.metrics.AddItems(ShiftRemindersJobName, "skipped", stats.Skipped)
	j.metrics.AddItems(ShiftRemindersJobName, "failed", stats.Failed)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"due":     stats.Due,
		"sent":    stats.Sent,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	}), "reminders.pass_complete")
	return nil
}

type reminderRow struct {
	AssignmentID  uuid.UUID          `gorm:"column:assignment_id"`
	Date          calendar.Date      `gorm:"column:shift_date"`
	IntervalTitle string             `gorm:"column:interval_title"`
	StartTime     calendar.TimeOfDay `gorm:"column:start_time"`
	VenueName     string             `gorm:"column:venue_name"`
	TgUserID      int64              `gorm:"column:tg_user_id"`
	NotifyEnabled bool               `gorm:"column:notify_enabled"`
	NotifyShifts  bool               `gorm:"column:notify_shifts"`
}

func (r reminderRow) text() string {
	return fmt.Sprintf("Reminder: your shift at %s starts soon (%s · %s, %s).",
		r.VenueName, r.Date, r.IntervalTitle, r.StartTime)
}

// SendDue sends every reminder whose shift start lies within ±window of
// now+lead and stamps reminder_sent_at per row right after a successful send.
func (j *ShiftRemindersJob) SendDue(ctx context.Context) (ReminderStats, error) {
	var stats ReminderStats
	target := j.now().In(j.loc).Add(j.lead)
	winStart, winEnd := target.Add(-j.window), target.Add(j.window)

	rows, err := j.candidates(ctx, calendar.DateOf(winStart, j.loc), calendar.DateOf(winEnd, j.loc))
	if err != nil {
		return stats, fmt.Errorf("load reminder candidates: %w", err)
	}
	for _, row := range rows {
		start := row.Date.At(row.StartTime, j.loc)
		if start.Before(winStart) || start.After(winEnd) {
			continue
		}
		stats.Due++
		if !row.NotifyEnabled || !row.NotifyShifts || row.TgUserID == 0 {
			stats.Skipped++
			continue
		}
		if !j.notifier.Send(ctx, row.TgUserID, row.text()) {
			stats.Failed++
			continue
		}
		if err := j.markSent(ctx, row.AssignmentID); err != nil {
			j.logg.Error(j.logg.WithField(ctx, "assignment_id", row.AssignmentID.String()), "reminders.mark_failed", err)
			stats.Failed++
			continue
		}
		stats.Sent++
	}
	return stats, nil
}

func (j *ShiftRemindersJob) candidates(ctx context.Context, from, to calendar.Date) ([]reminderRow, error) {
	var rows []reminderRow
	err := j.db.WithContext(ctx).
		Table("shift_assignments").
		Select(`shift_assignments.id AS assignment_id, shifts.date AS shift_date,
			shift_intervals.title AS interval_title, shift_intervals.start_time,
			venues.name AS venue_name,
			users.tg_user_id, users.notify_enabled, users.notify_shifts`).
		Joins("JOIN shifts ON shifts.id = shift_assignments.shift_id").
		Joins("JOIN shift_intervals ON shift_intervals.id = shifts.interval_id").
		Joins("JOIN venues ON venues.id = shifts.venue_id").
		Joins("JOIN users ON users.id = shift_assignments.member_user_id").
		Where("shifts.status = ?", enums.LifecycleActive).
		Where("venues.status = ?", enums.LifecycleActive).
		Where("shift_assignments.reminder_sent_at IS NULL").
		Where("shifts.date >= ? AND shifts.date <= ?", from, to).
		Scan(&rows).Error
	return rows, err
}

func (j *ShiftRemindersJob) markSent(ctx context.Context, assignmentID uuid.UUID) error {
	return j.db.WithContext(ctx).
		Model(&models.ShiftAssignment{}).
		Where("id = ? AND reminder_sent_at IS NULL", assignmentID).
		Update("reminder_sent_at", j.now().UTC()).Error
}
