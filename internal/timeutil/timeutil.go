// Package timeutil holds the calendar arithmetic shared by the availability
// and scheduling paths: timezone discovery, the API's ISO 8601 duration and
// timestamp formats, and free-slot computation over busy intervals.
package timeutil

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LocalTimeZone returns the system's IANA timezone name. The API rejects
// events without an explicit zone, and Go's time.Local stringifies as
// "Local", so the name is recovered from the environment instead: $TZ first,
// then the /etc/localtime symlink. Falls back to UTC.
func LocalTimeZone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			return tz
		}
	}
	if target, err := os.Readlink("/etc/localtime"); err == nil {
		if idx := strings.Index(target, "zoneinfo/"); idx >= 0 {
			name := target[idx+len("zoneinfo/"):]
			if _, err := time.LoadLocation(name); err == nil {
				return name
			}
		}
	}
	return "UTC"
}

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration parses the duration subset the API emits (PnDTnHnMnS,
// e.g. "PT30M", "PT1H30M", "P1D").
func ParseISODuration(s string) (time.Duration, error) {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil || s == "P" {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}
	var d time.Duration
	parts := []struct {
		value string
		unit  time.Duration
	}{
		{m[1], 24 * time.Hour},
		{m[2], time.Hour},
		{m[3], time.Minute},
		{m[4], time.Second},
	}
	matched := false
	for _, p := range parts {
		if p.value == "" {
			continue
		}
		n, err := strconv.Atoi(p.value)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
		}
		d += time.Duration(n) * p.unit
		matched = true
	}
	if !matched {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}
	return d, nil
}

// FormatISODuration renders a duration in the API's PT#H#M form, dropping
// zero components. Sub-minute precision is rounded away.
func FormatISODuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	h, m := minutes/60, minutes%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("PT%dH%dM", h, m)
	case h > 0:
		return fmt.Sprintf("PT%dH", h)
	default:
		return fmt.Sprintf("PT%dM", m)
	}
}

// eventTimeLayouts are the timestamp shapes seen in event payloads, tried in
// order: full RFC 3339, a zone-less local timestamp, and a bare date for
// all-day events.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseEventTime parses an event timestamp. Zone-less timestamps are
// interpreted in loc.
func ParseEventTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized event time %q", s)
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval's length.
func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// MergeIntervals sorts and coalesces overlapping or touching intervals.
// Empty and inverted intervals are dropped.
func MergeIntervals(intervals []Interval) []Interval {
	var valid []Interval
	for _, iv := range intervals {
		if iv.End.After(iv.Start) {
			valid = append(valid, iv)
		}
	}
	sort.Slice(valid, func(a, b int) bool { return valid[a].Start.Before(valid[b].Start) })

	var merged []Interval
	for _, iv := range valid {
		if len(merged) > 0 && !iv.Start.After(merged[len(merged)-1].End) {
			if iv.End.After(merged[len(merged)-1].End) {
				merged[len(merged)-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// FreeSlots returns the gaps within [windowStart, windowEnd) not covered by
// busy, keeping only gaps of at least minDuration. Busy time outside the
// window is ignored.
func FreeSlots(busy []Interval, windowStart, windowEnd time.Time, minDuration time.Duration) []Interval {
	if !windowEnd.After(windowStart) {
		return nil
	}

	var clamped []Interval
	for _, iv := range busy {
		start, end := iv.Start, iv.End
		if start.Before(windowStart) {
			start = windowStart
		}
		if end.After(windowEnd) {
			end = windowEnd
		}
		if end.After(start) {
			clamped = append(clamped, Interval{Start: start, End: end})
		}
	}
	merged := MergeIntervals(clamped)

	var free []Interval
	cursor := windowStart
	for _, iv := range merged {
		if iv.Start.Sub(cursor) >= minDuration {
			free = append(free, Interval{Start: cursor, End: iv.Start})
		}
		cursor = iv.End
	}
	if windowEnd.Sub(cursor) >= minDuration {
		free = append(free, Interval{Start: cursor, End: windowEnd})
	}
	return free
}
