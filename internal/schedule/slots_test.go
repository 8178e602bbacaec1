package schedule

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotsDefaultGrid(t *testing.T) {
	slots := Slots(SlotConfig{})

	require.Len(t, slots, 16)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "09:30", slots[1].Time)
	assert.Equal(t, "16:30", slots[15].Time)

	for _, s := range slots {
		assert.True(t, s.IsAvailable, "slot %s should start available", s.Time)
	}
}

func TestSlotsStrictlyIncreasingNoGaps(t *testing.T) {
	cases := []SlotConfig{
		{StartHour: 9, EndHour: 17, SlotMinutes: 30},
		{StartHour: 10, EndHour: 12, SlotMinutes: 15},
		{StartHour: 8, EndHour: 20, SlotMinutes: 60},
		{StartHour: 9, EndHour: 10, SlotMinutes: 10},
	}

	for _, cfg := range cases {
		t.Run(fmt.Sprintf("%d-%d-%dm", cfg.StartHour, cfg.EndHour, cfg.SlotMinutes), func(t *testing.T) {
			slots := Slots(cfg)

			want := (cfg.EndHour - cfg.StartHour) * 60 / cfg.SlotMinutes
			require.Len(t, slots, want)

			for i, s := range slots {
				offset := i * cfg.SlotMinutes
				expected := fmt.Sprintf("%02d:%02d", cfg.StartHour+offset/60, offset%60)
				assert.Equal(t, expected, s.Time)
			}
		})
	}
}

func TestSlotsDeterministic(t *testing.T) {
	cfg := SlotConfig{StartHour: 9, EndHour: 17, SlotMinutes: 30}
	assert.Equal(t, Slots(cfg), Slots(cfg))
}
