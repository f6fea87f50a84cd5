package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT30M", 30 * time.Minute},
		{"PT1H", time.Hour},
		{"PT1H30M", 90 * time.Minute},
		{"P1D", 24 * time.Hour},
		{"P1DT2H", 26 * time.Hour},
		{"PT45S", 45 * time.Second},
	}
	for _, tt := range tests {
		got, err := ParseISODuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "P", "PT", "30M", "PT-5M", "1h30m"} {
		_, err := ParseISODuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatISODuration(t *testing.T) {
	assert.Equal(t, "PT30M", FormatISODuration(30*time.Minute))
	assert.Equal(t, "PT1H", FormatISODuration(time.Hour))
	assert.Equal(t, "PT1H30M", FormatISODuration(90*time.Minute))
	assert.Equal(t, "PT0M", FormatISODuration(0))
}

func TestParseEventTime(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)

	got, err := ParseEventTime("2026-08-25T09:30:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())

	got, err = ParseEventTime("2026-08-25T09:30:00", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 9, got.Hour())

	got, err = ParseEventTime("2026-08-25", loc)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Hour())

	_, err = ParseEventTime("yesterday", loc)
	assert.Error(t, err)
}

func at(t *testing.T, hhmm string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02T15:04", "2026-08-25T"+hhmm)
	require.NoError(t, err)
	return parsed
}

func TestMergeIntervals(t *testing.T) {
	merged := MergeIntervals([]Interval{
		{Start: at(t, "13:00"), End: at(t, "14:00")},
		{Start: at(t, "09:00"), End: at(t, "10:00")},
		{Start: at(t, "09:30"), End: at(t, "11:00")},
		{Start: at(t, "12:00"), End: at(t, "12:00")}, // empty, dropped
	})
	require.Len(t, merged, 2)
	assert.Equal(t, at(t, "09:00"), merged[0].Start)
	assert.Equal(t, at(t, "11:00"), merged[0].End)
	assert.Equal(t, at(t, "13:00"), merged[1].Start)
}

func TestFreeSlots(t *testing.T) {
	busy := []Interval{
		{Start: at(t, "10:00"), End: at(t, "11:00")},
		{Start: at(t, "13:00"), End: at(t, "14:30")},
	}
	free := FreeSlots(busy, at(t, "09:00"), at(t, "17:00"), 30*time.Minute)

	require.Len(t, free, 3)
	assert.Equal(t, Interval{Start: at(t, "09:00"), End: at(t, "10:00")}, free[0])
	assert.Equal(t, Interval{Start: at(t, "11:00"), End: at(t, "13:00")}, free[1])
	assert.Equal(t, Interval{Start: at(t, "14:30"), End: at(t, "17:00")}, free[2])
}

func TestFreeSlotsMinDurationFiltersShortGaps(t *testing.T) {
	busy := []Interval{
		{Start: at(t, "09:15"), End: at(t, "12:00")},
	}
	free := FreeSlots(busy, at(t, "09:00"), at(t, "13:00"), 30*time.Minute)
	// The 15 minute gap before the meeting is too short.
	require.Len(t, free, 1)
	assert.Equal(t, at(t, "12:00"), free[0].Start)
}

func TestFreeSlotsEmptyBusyDay(t *testing.T) {
	free := FreeSlots(nil, at(t, "09:00"), at(t, "17:00"), time.Hour)
	require.Len(t, free, 1)
	assert.Equal(t, 8*time.Hour, free[0].Duration())
}

func TestFreeSlotsBusyOutsideWindowIgnored(t *testing.T) {
	busy := []Interval{
		{Start: at(t, "06:00"), End: at(t, "07:00")},
		{Start: at(t, "18:00"), End: at(t, "19:00")},
	}
	free := FreeSlots(busy, at(t, "09:00"), at(t, "17:00"), time.Hour)
	require.Len(t, free, 1)
	assert.Equal(t, at(t, "09:00"), free[0].Start)
	assert.Equal(t, at(t, "17:00"), free[0].End)
}
