package domain

import "time"

// DefaultLocalOffset is the fixed UTC+5:30 offset the shift report uses.
// It is applied as plain arithmetic; no timezone database is consulted.
const DefaultLocalOffset = 5*time.Hour + 30*time.Minute

type Shift int

const (
	ShiftOne Shift = iota + 1
	ShiftTwo
	ShiftThree
)

var shiftNames = [...]string{
	ShiftOne:   "Shift 1 (12 AM - 8 AM)",
	ShiftTwo:   "Shift 2 (8 AM - 4 PM)",
	ShiftThree: "Shift 3 (4 PM - 12 AM)",
}

func (s Shift) Name() string {
	if s < ShiftOne || s > ShiftThree {
		return shiftNames[ShiftThree]
	}
	return shiftNames[s]
}

// ShiftForHour maps a local hour to its shift. Anything outside the first
// two windows lands in ShiftThree, including out-of-range hours.
func ShiftForHour(hour int) Shift {
	switch {
	case hour >= 0 && hour < 8:
		return ShiftOne
	case hour >= 8 && hour < 16:
		return ShiftTwo
	default:
		return ShiftThree
	}
}

// LocalTime shifts a stored UTC instant by offset. The result is still
// tagged UTC; only its wall clock fields are meaningful.
func LocalTime(t time.Time, offset time.Duration) time.Time {
	return t.UTC().Add(offset)
}

// LocalDayWindow returns the UTC half-open range [start, end) that covers
// the local calendar day containing now.
func LocalDayWindow(now time.Time, offset time.Duration) (time.Time, time.Time) {
	local := LocalTime(now, offset)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	start := dayStart.Add(-offset)
	return start, start.Add(24 * time.Hour)
}

// BucketShifts counts the timestamps whose local date equals the local date
// of now, grouped by shift. All three shifts are always present.
func BucketShifts(now time.Time, createdAt []time.Time, offset time.Duration) ShiftStats {
	today := LocalTime(now, offset)
	ty, tm, td := today.Date()

	var counts [ShiftThree + 1]int64
	for _, ts := range createdAt {
		local := LocalTime(ts, offset)
		if y, m, d := local.Date(); y != ty || m != tm || d != td {
			continue
		}
		counts[ShiftForHour(local.Hour())]++
	}

	stats := ShiftStats{Shifts: make([]ShiftCount, 0, 3)}
	for s := ShiftOne; s <= ShiftThree; s++ {
		stats.Shifts = append(stats.Shifts, ShiftCount{
			Shift: s,
			Name:  s.Name(),
			Count: counts[s],
		})
	}
	return stats
}
