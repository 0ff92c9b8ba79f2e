package remind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/journal/internal/config"
	"github.com/idilsaglam/journal/internal/model"
)

var prefs = config.Preferences{NotificationsEnabled: true, ReminderHour: 20}

func logAt(t time.Time) *model.Log { return &model.Log{ID: t.String(), CreatedAt: t} }

func TestCheckStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)
	logs := []*model.Log{
		logAt(now.AddDate(0, 0, -1)),
		logAt(now.AddDate(0, 0, -2).Add(-5 * time.Hour)),
		logAt(now.AddDate(0, 0, -3)),
		logAt(now.AddDate(0, 0, -5)),
	}
	r, ok := Check(now, logs, prefs)
	require.True(t, ok)
	assert.Equal(t, 3, r.Streak)
	assert.Equal(t, now.AddDate(0, 0, -1), r.LastEntry)
	assert.Contains(t, r.Message(), "3-day streak")
}

func TestCheckQuiet(t *testing.T) {
	now := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)

	_, ok := Check(now, []*model.Log{logAt(now.Add(-20 * time.Hour))}, prefs)
	assert.False(t, ok, "already wrote today")

	_, ok = Check(now.Add(-2*time.Hour), nil, prefs)
	assert.False(t, ok, "before reminder hour")

	off := prefs
	off.NotificationsEnabled = false
	_, ok = Check(now, nil, off)
	assert.False(t, ok, "disabled")
}

func TestCheckUsesLocalDay(t *testing.T) {
	tz := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2026, 3, 10, 20, 30, 0, 0, tz)
	// 01:00 UTC on the 11th is still the 10th in UTC-5.
	l := logAt(time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC))
	_, ok := Check(now, []*model.Log{l}, prefs)
	assert.False(t, ok)
}

func TestMessages(t *testing.T) {
	assert.Contains(t, Reminder{}.Message(), "journal new")
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, Reminder{LastEntry: last}.Message(), "Last entry was")
	assert.Contains(t, Reminder{LastEntry: last, Streak: 1}.Message(), "yesterday")
}
