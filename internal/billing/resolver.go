package billing

import (
	"sort"
	"strings"
	"time"
)

// ResolveRate returns the schedule that applies to v, or false if none does.
//
// Candidates are considered in descending Priority; within equal priority the
// caller's order is kept, so with no priorities set the first match wins.
func ResolveRate(v Visit, rates []RateSchedule) (*RateSchedule, bool) {
	for _, i := range byPriority(rates) {
		r := &rates[i]
		if !r.IsActive {
			continue
		}
		if !ValidOn(*r, v.Date) {
			continue
		}
		if !CoversVisitDay(*r, v) {
			continue
		}
		if !InTimeWindow(*r, v.PlannedStart) {
			continue
		}
		return r, true
	}
	return nil, false
}

// byPriority returns indexes into rates ordered by descending priority,
// stable for ties.
func byPriority(rates []RateSchedule) []int {
	idx := make([]int, len(rates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rates[idx[a]].Priority > rates[idx[b]].Priority
	})
	return idx
}

// ValidOn reports whether date is within [StartDate, EndDate].
func ValidOn(r RateSchedule, date time.Time) bool {
	d := civilDate(date)
	if d.Before(civilDate(r.StartDate)) {
		return false
	}
	if r.EndDate != nil && d.After(civilDate(*r.EndDate)) {
		return false
	}
	return true
}

// CoversVisitDay reports whether the schedule's days include the visit's
// weekday (full or abbreviated), or bank holidays when the visit is on one.
func CoversVisitDay(r RateSchedule, v Visit) bool {
	full, short := dayNames(v.Date.Weekday())
	if r.CoversDay(full) || r.CoversDay(short) {
		return true
	}
	return v.IsBankHoliday && r.CoversDay(BankHolidayToken)
}

// InTimeWindow reports whether start falls within [TimeFrom, TimeUntil]
// inclusive. A window whose end is before its start is empty; it does not
// wrap past midnight.
func InTimeWindow(r RateSchedule, start TimeOfDay) bool {
	return start >= r.TimeFrom && start <= r.TimeUntil
}

func dayNames(wd time.Weekday) (full, short string) {
	full = strings.ToLower(wd.String())
	return full, full[:3]
}

// Overlap is a pair of schedules that can both match the same visit.
type Overlap struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// OverlappingSchedules finds active schedule pairs with equal priority whose
// validity periods, days and time windows intersect. Such pairs make the
// result of ResolveRate depend on list order.
func OverlappingSchedules(rates []RateSchedule) []Overlap {
	var out []Overlap
	for i := 0; i < len(rates); i++ {
		for j := i + 1; j < len(rates); j++ {
			a, b := rates[i], rates[j]
			if !a.IsActive || !b.IsActive || a.Priority != b.Priority {
				continue
			}
			if periodsOverlap(a, b) && daysOverlap(a, b) && windowsOverlap(a, b) {
				out = append(out, Overlap{First: a.ID, Second: b.ID})
			}
		}
	}
	return out
}

func periodsOverlap(a, b RateSchedule) bool {
	if a.EndDate != nil && civilDate(*a.EndDate).Before(civilDate(b.StartDate)) {
		return false
	}
	if b.EndDate != nil && civilDate(*b.EndDate).Before(civilDate(a.StartDate)) {
		return false
	}
	return true
}

// daysOverlap treats the bank holiday token as covering every weekday,
// since a bank holiday visit on a covered weekday matches both schedules.
func daysOverlap(a, b RateSchedule) bool {
	if hasBankHoliday(a) && len(b.Days) > 0 || hasBankHoliday(b) && len(a.Days) > 0 {
		return true
	}
	for _, d := range a.Days {
		if b.CoversDay(canonicalDay(d)) || b.CoversDay(shortDay(d)) {
			return true
		}
	}
	return false
}

func hasBankHoliday(r RateSchedule) bool {
	return r.CoversDay(BankHolidayToken)
}

// canonicalDay expands an abbreviation to the full lowercase name.
func canonicalDay(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full, short := dayNames(wd)
		if d == short {
			return full
		}
	}
	return d
}

func shortDay(d string) string {
	full := canonicalDay(d)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		f, short := dayNames(wd)
		if f == full {
			return short
		}
	}
	return full
}

// windowsOverlap reports whether two inclusive windows share a time. Empty
// (inverted) windows overlap nothing.
func windowsOverlap(a, b RateSchedule) bool {
	if a.TimeFrom > a.TimeUntil || b.TimeFrom > b.TimeUntil {
		return false
	}
	return a.TimeFrom <= b.TimeUntil && b.TimeFrom <= a.TimeUntil
}

// IsKnownDay reports whether d is a weekday name, abbreviation or the bank
// holiday token.
func IsKnownDay(d string) bool {
	d = strings.ToLower(strings.TrimSpace(d))
	if d == BankHolidayToken {
		return true
	}
	return canonicalDay(d) != d || shortDay(d) != d
}
