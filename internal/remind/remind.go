// Package remind decides whether to nudge the user to write today's entry.
package remind

import (
	"fmt"
	"time"

	"github.com/idilsaglam/journal/internal/config"
	"github.com/idilsaglam/journal/internal/model"
)

// Reminder describes a missing entry for today.
type Reminder struct {
	// Streak is the number of consecutive days before today with at least
	// one log.
	Streak int
	// LastEntry is the creation time of the newest log, zero when none.
	LastEntry time.Time
}

func (r Reminder) Message() string {
	switch {
	case r.LastEntry.IsZero():
		return "You have not written any logs yet. Start with `journal new`."
	case r.Streak == 0:
		return "No log yet today. Last entry was " + r.LastEntry.Local().Format("Mon Jan 2") + "."
	case r.Streak == 1:
		return "No log yet today. Keep yesterday's entry company."
	default:
		return fmt.Sprintf("No log yet today. Don't break your %d-day streak!", r.Streak)
	}
}

// Check returns a reminder when notifications are on, it is at or past the
// reminder hour, and no log was created on now's calendar day. Days are
// taken in now's location.
func Check(now time.Time, logs []*model.Log, p config.Preferences) (Reminder, bool) {
	if !p.NotificationsEnabled || now.Hour() < p.ReminderHour {
		return Reminder{}, false
	}
	loc := now.Location()
	days := make(map[string]bool, len(logs))
	var r Reminder
	for _, l := range logs {
		created := l.CreatedAt.In(loc)
		days[dayKey(created)] = true
		if created.After(r.LastEntry) {
			r.LastEntry = created
		}
	}
	if days[dayKey(now)] {
		return Reminder{}, false
	}
	for d := now.AddDate(0, 0, -1); days[dayKey(d)]; d = d.AddDate(0, 0, -1) {
		r.Streak++
	}
	return r, true
}

func dayKey(t time.Time) string { return t.Format(time.DateOnly) }
