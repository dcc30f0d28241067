package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
		check     func(error) bool
	}{
		{
			name:      "single day",
			start:     "2024-02-01",
			end:       "2024-02-01",
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "month end rolls over",
			start:     " 2024-01-15 ",
			end:       "2024-02-29",
			wantStart: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "missing start", end: "2024-02-01", check: IsDateRangeRequired},
		{name: "missing end", start: "2024-02-01", check: IsDateRangeRequired},
		{name: "bad start", start: "2024/02/01", end: "2024-02-01", check: IsInvalidDateFormat},
		{name: "bad end", start: "2024-02-01", end: "2024-02-30", check: IsInvalidDateFormat},
		{name: "reversed", start: "2024-02-02", end: "2024-02-01", check: IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dr, err := ParseDateRange(tt.start, tt.end)
			if tt.check != nil {
				require.Error(t, err)
				assert.True(t, tt.check(err))
				assert.True(t, IsBadRequest(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, dr.Start)
			assert.Equal(t, tt.wantEnd, dr.End)
		})
	}
}

func TestDateRangeLastDay(t *testing.T) {
	dr, err := ParseDateRange("2024-02-01", "2024-02-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), dr.LastDay())

	single, err := ParseDateRange("2024-02-29", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, single.Start, single.LastDay())
}
