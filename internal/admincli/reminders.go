package admincli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/venueops-backend/internal/cron"
	"github.com/angelmondragon/venueops-backend/internal/notify"
)

// RemindersCmd returns the reminders command group.
func RemindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Shift reminder tooling",
	}
	cmd.AddCommand(remindersSendCmd())
	return cmd
}

func remindersSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Run one reminder pass without the worker lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			loc, err := e.cfg.App.Location()
			if err != nil {
				return err
			}
			job, err := cron.NewShiftRemindersJob(cron.ShiftRemindersJobParams{
				Logger:   e.logg,
				DB:       e.db.DB(),
				Notifier: notify.NewTelegramSender(e.cfg.Notify, e.cfg.Telegram, notify.WithLogger(e.logg)),
				Location: loc,
				Lead:     time.Duration(e.cfg.Cron.ReminderLeadHours) * time.Hour,
				Window:   time.Duration(e.cfg.Cron.ReminderWindowMinutes) * time.Minute,
			})
			if err != nil {
				return err
			}
			stats, err := job.SendDue(cmd.Context())
			if err != nil {
				return err
			}
			printReminderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func printReminderStats(w io.Writer, stats cron.ReminderStats) {
	failed := fmt.Sprint(stats.Failed)
	if stats.Failed > 0 {
		failed = color.New(color.FgRed).Sprint(stats.Failed)
	}
	fmt.Fprintf(w, "due=%d sent=%s skipped=%d failed=%s\n",
		stats.Due, color.New(color.FgGreen).Sprint(stats.Sent), stats.Skipped, failed)
}
