package schedule

import (
	"fmt"
	"time"

	"bistrobytes/internal/models"

	"github.com/rs/zerolog"
)

// Filter marks slots unavailable where they overlap an event on the same
// calendar day. Interval semantics are half-open: a slot conflicts iff
// slotStart < eventEnd && slotEnd > eventStart, so touching endpoints do
// not conflict. All-day events never conflict. Events that cannot be
// parsed are logged and skipped — one malformed upstream record must not
// hide the whole day's availability.
func Filter(slots []models.TimeSlot, events []models.CalendarEvent, day time.Time, cfg SlotConfig, loc *time.Location, logger *zerolog.Logger) []models.TimeSlot {
	cfg = cfg.normalized()
	if loc == nil {
		loc = time.Local
	}

	type interval struct{ start, end time.Time }
	intervals := make([]interval, 0, len(events))

	for _, ev := range events {
		if ev.IsAllDay {
			continue
		}

		start, end, err := eventInterval(ev, loc)
		if err != nil {
			logger.Warn().Err(err).Str("event", ev.Title).Msg("skipping unparseable event")
			continue
		}

		// Only events on the slot's calendar day count.
		if !sameDay(start, day, loc) {
			continue
		}

		intervals = append(intervals, interval{start: start, end: end})
	}

	out := make([]models.TimeSlot, len(slots))
	slotDur := time.Duration(cfg.SlotMinutes) * time.Minute

	for i, slot := range slots {
		hour, minute, err := splitClock(slot.Time)
		if err != nil {
			out[i] = slot
			continue
		}

		slotStart := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
		slotEnd := slotStart.Add(slotDur)

		available := true
		for _, iv := range intervals {
			if slotStart.Before(iv.end) && slotEnd.After(iv.start) {
				available = false
				break
			}
		}

		out[i] = models.TimeSlot{Time: slot.Time, IsAvailable: available}
	}

	return out
}

// eventInterval resolves the event's start/end. The timezone-aware
// dateandtime pair wins over the plain start/end fields when both exist.
func eventInterval(ev models.CalendarEvent, loc *time.Location) (time.Time, time.Time, error) {
	var rawStart, rawEnd string

	switch {
	case ev.DateAndTime != nil && ev.DateAndTime.Start != "" && ev.DateAndTime.End != "":
		rawStart, rawEnd = ev.DateAndTime.Start, ev.DateAndTime.End
	case ev.Start != "" && ev.End != "":
		rawStart, rawEnd = ev.Start, ev.End
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("event %q has no usable start/end", ev.Title)
	}

	start, err := ParseEventTime(rawStart, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseEventTime(rawEnd, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func splitClock(clock string) (int, int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(clock, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	return hour, minute, nil
}
