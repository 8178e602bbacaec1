package schedule

import (
	"fmt"

	"bistrobytes/internal/models"
)

// SlotConfig is the business-hours grid: [StartHour:00, EndHour:00) tiled by
// SlotMinutes. The zero value normalizes to 09:00–17:00 in 30-minute steps.
type SlotConfig struct {
	StartHour   int
	EndHour     int
	SlotMinutes int
}

func (c SlotConfig) normalized() SlotConfig {
	if c.StartHour == 0 && c.EndHour == 0 {
		c.StartHour = 9
		c.EndHour = 17
	}
	if c.SlotMinutes <= 0 {
		c.SlotMinutes = 30
	}
	return c
}

// Slots produces the ordered grid of candidate slots, every one initially
// available. Pure: no clock, no calendar, same config in, same grid out.
func Slots(cfg SlotConfig) []models.TimeSlot {
	cfg = cfg.normalized()

	total := (cfg.EndHour - cfg.StartHour) * 60
	slots := make([]models.TimeSlot, 0, (total+cfg.SlotMinutes-1)/cfg.SlotMinutes)

	for offset := 0; offset < total; offset += cfg.SlotMinutes {
		hour := cfg.StartHour + offset/60
		minute := offset % 60
		slots = append(slots, models.TimeSlot{
			Time:        fmt.Sprintf("%02d:%02d", hour, minute),
			IsAvailable: true,
		})
	}

	return slots
}
