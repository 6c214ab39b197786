package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepDuration(t *testing.T) {
	tests := []struct {
		name    string
		bedtime string
		wakeup  string
		want    string
	}{
		{name: "overnight", bedtime: "22:15", wakeup: "07:00", want: "8 hr 45 min"},
		{name: "same day nap", bedtime: "13:00", wakeup: "14:30", want: "1 hr 30 min"},
		{name: "equal times", bedtime: "07:00", wakeup: "07:00", want: "0 hr 0 min"},
		{name: "after midnight", bedtime: "00:30", wakeup: "06:05", want: "5 hr 35 min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := SleepDuration(tt.bedtime, tt.wakeup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatSleepDuration(d))
		})
	}
}

func TestSleepDurationRejectsBadInput(t *testing.T) {
	_, err := SleepDuration("10pm", "07:00")
	assert.ErrorIs(t, err, ErrInvalidClock)
	assert.Equal(t, "0 hr 0 min", FormatSleepDuration(-time.Minute))
}
