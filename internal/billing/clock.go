package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time stored as seconds since midnight.
// The date component never takes part in comparisons.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour, minute and second.
func NewTimeOfDay(h, m, s int) TimeOfDay {
	return TimeOfDay(h*3600 + m*60 + s)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	limits := []int{23, 59, 59}
	var vals [3]int
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 || !allDigits(p) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		if n < 0 || n > limits[i] {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTime, s)
		}
		vals[i] = n
	}

	return NewTimeOfDay(vals[0], vals[1], vals[2]), nil
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// MustParseTimeOfDay is ParseTimeOfDay for literals; it panics on bad input.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 3600 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }

// Second returns the second component.
func (t TimeOfDay) Second() int { return int(t) % 60 }

// String formats as HH:MM, or HH:MM:SS when seconds are present.
func (t TimeOfDay) String() string {
	if t.Second() != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
	}
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// minutesBetween returns end-start rounded to the nearest whole minute.
func minutesBetween(start, end TimeOfDay) (int, error) {
	if end < start {
		return 0, fmt.Errorf("%w: end %s before start %s", ErrInvalidDuration, end, start)
	}
	secs := int(end - start)
	return (secs + 30) / 60, nil
}

// DateLayout is the calendar date format used for visits and schedules.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

// civilDate strips the clock and zone so dates compare by calendar day.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
