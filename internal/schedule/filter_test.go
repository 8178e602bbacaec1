package schedule

import (
	"testing"
	"time"

	"bistrobytes/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDay(t *testing.T) (time.Time, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return time.Date(2025, 6, 2, 0, 0, 0, 0, loc), loc // a Monday
}

func availableByTime(slots []models.TimeSlot) map[string]bool {
	m := make(map[string]bool, len(slots))
	for _, s := range slots {
		m[s.Time] = s.IsAvailable
	}
	return m
}

func TestFilterSingleEventBlocksOneSlot(t *testing.T) {
	day, loc := testDay(t)
	logger := zerolog.Nop()

	events := []models.CalendarEvent{
		{Title: "Standup", Start: "20250602T100000", End: "20250602T103000"},
	}

	slots := Filter(Slots(SlotConfig{}), events, day, SlotConfig{}, loc, &logger)
	require.Len(t, slots, 16)

	avail := availableByTime(slots)
	assert.False(t, avail["10:00"])

	free := 0
	for _, s := range slots {
		if s.IsAvailable {
			free++
		}
	}
	assert.Equal(t, 15, free)
}

func TestFilterTouchingEndpointsDoNotConflict(t *testing.T) {
	day, loc := testDay(t)
	logger := zerolog.Nop()

	// Event ends exactly when the 10:30 slot starts and begins exactly when
	// the 09:30 slot ends.
	events := []models.CalendarEvent{
		{Title: "Call", Start: "20250602T100000", End: "20250602T103000"},
	}

	avail := availableByTime(Filter(Slots(SlotConfig{}), events, day, SlotConfig{}, loc, &logger))
	assert.True(t, avail["09:30"])
	assert.False(t, avail["10:00"])
	assert.True(t, avail["10:30"])
}

func TestFilterSpanningEventBlocksEverySlotItCovers(t *testing.T) {
	day, loc := testDay(t)
	logger := zerolog.Nop()

	events := []models.CalendarEvent{
		{Title: "Workshop", Start: "20250602T094500", End: "20250602T111500"},
	}

	avail := availableByTime(Filter(Slots(SlotConfig{}), events, day, SlotConfig{}, loc, &logger))
	assert.False(t, avail["09:30"])
	assert.False(t, avail["10:00"])
	assert.False(t, avail["10:30"])
	assert.False(t, avail["11:00"])
	assert.True(t, avail["09:00"])
	assert.True(t, avail["11:30"])
}

func TestFilterAllDayEventNeverConflicts(t *testing.T) {
	day, loc := testDay(t)
	logger := zerolog.Nop()

	events := []models.CalendarEvent{
		{Title: "Holiday", IsAllDay: true, Start: "20250602T000000", End: "20250602T235959"},
	}

	for _, s := range Filter(Slots(SlotConfig{}), events, day, SlotConfig{}, loc, &logger) {
		assert.True(t, s.IsAvailable, "slot %s", s.Time)
	}
}

func TestFilterDifferentDayEventIgnored(t *testing.T) {
	day, loc := testDay(t)
	logger := zerolog.Nop()

	events := []models.CalendarEvent{
		{Title: "Tomorrow", Start: "20250603T100000", End: "20250603T103000"},
	}

	for _, s := range Filter(Slots(SlotConfig{}), events, day, SlotConfig{}, loc, &logger) {
		assert.True(t, s.IsAvailable, "slot %s", s.Time)
	}
}

func TestFilterUnparseableEventFailsOpen(t *testing.T) {
	day, loc := testDay(t)
	logger := zerolog.Nop()

	events := []models.CalendarEvent{
		{Title: "Broken", Start: "garbage", End: "also-garbage"},
		{Title: "No fields"},
	}

	for _, s := range Filter(Slots(SlotConfig{}), events, day, SlotConfig{}, loc, &logger) {
		assert.True(t, s.IsAvailable, "slot %s", s.Time)
	}
}

func TestFilterDateAndTimeTakesPrecedence(t *testing.T) {
	day, loc := testDay(t)
	logger := zerolog.Nop()

	// Plain fields say 14:00, the timezone-aware pair says 10:00; the pair
	// wins.
	events := []models.CalendarEvent{
		{
			Title: "Conflicting representations",
			DateAndTime: &models.EventDateAndTime{
				Timezone: "America/Chicago",
				Start:    "20250602T100000-0500",
				End:      "20250602T103000-0500",
			},
			Start: "20250602T140000",
			End:   "20250602T143000",
		},
	}

	avail := availableByTime(Filter(Slots(SlotConfig{}), events, day, SlotConfig{}, loc, &logger))
	assert.False(t, avail["10:00"])
	assert.True(t, avail["14:00"])
}

func TestFilterOverlapProperty(t *testing.T) {
	day, loc := testDay(t)
	logger := zerolog.Nop()

	events := []models.CalendarEvent{
		{Title: "Busy", Start: "20250602T131000", End: "20250602T134000"},
	}

	slots := Filter(Slots(SlotConfig{}), events, day, SlotConfig{}, loc, &logger)
	evStart := time.Date(2025, 6, 2, 13, 10, 0, 0, loc)
	evEnd := time.Date(2025, 6, 2, 13, 40, 0, 0, loc)

	for _, s := range slots {
		h, m, err := splitClock(s.Time)
		require.NoError(t, err)
		slotStart := time.Date(2025, 6, 2, h, m, 0, 0, loc)
		slotEnd := slotStart.Add(30 * time.Minute)

		wantAvailable := !(slotStart.Before(evEnd) && slotEnd.After(evStart))
		assert.Equal(t, wantAvailable, s.IsAvailable, "slot %s", s.Time)
	}
}
