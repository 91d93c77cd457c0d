package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultSlotMinutes is the slot length used when a doctor has not
// configured one. The fallback is silent, so callers relying on it should
// pin the value in tests rather than assume a stored setting exists.
const DefaultSlotMinutes = 15

// Range is a half-open [Start, End) window of a single day.
type Range struct {
	Start Clock `json:"start_time"`
	End   Clock `json:"end_time"`
}

// Overlaps reports whether two half-open windows intersect. Back-to-back
// windows (End == other.Start) do not overlap.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// Ranges is a JSONB-backed list of windows.
type Ranges []Range

// Value implements the driver.Valuer interface
func (r Ranges) Value() (driver.Value, error) {
	jsonData, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil // Return as string for JSONB type
}

// Scan implements the sql.Scanner interface
func (r *Ranges) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal Ranges: unsupported type %T", value)
	}

	return json.Unmarshal(data, r)
}

// DayTemplate is one weekday's entry of a doctor's recurring weekly
// availability.
type DayTemplate struct {
	Available bool
	Windows   Ranges
}

// Week holds the recurring template indexed by time.Weekday (Sunday = 0).
type Week [7]DayTemplate

type ExceptionKind string

const (
	ExceptionHoliday  ExceptionKind = "holiday"
	ExceptionLeave    ExceptionKind = "leave"
	ExceptionOverride ExceptionKind = "override"
)

// Exception is a date-scoped deviation from the weekly template. For
// holiday and leave the day has no availability at all; for override the
// Windows list replaces the weekly template entirely.
type Exception struct {
	Kind    ExceptionKind
	Windows Ranges
}

// ResolveDay derives the bookable atomic slots for one calendar date from
// the weekly template and an optional exception for that date.
//
// Precedence: holiday/leave empty the day; override substitutes its own
// windows; otherwise the weekday's template applies. Each raw window is cut
// into consecutive slotMinutes-long slots starting at the window start, and
// a trailing partial slot is discarded. A window shorter than one slot
// yields nothing. slotMinutes <= 0 falls back to DefaultSlotMinutes.
//
// Slots come out ascending by start time regardless of how the windows are
// stored.
func ResolveDay(week Week, exc *Exception, slotMinutes int, date Date) ([]Range, error) {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}

	var windows Ranges
	if exc != nil {
		switch exc.Kind {
		case ExceptionHoliday, ExceptionLeave:
			return nil, nil
		case ExceptionOverride:
			windows = exc.Windows
		default:
			return nil, fmt.Errorf("unknown schedule exception kind %q", exc.Kind)
		}
	} else {
		day := week[date.Weekday()]
		if !day.Available {
			return nil, nil
		}
		windows = day.Windows
	}

	// stored order is not trusted
	ordered := make(Ranges, len(windows))
	copy(ordered, windows)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	slots := make([]Range, 0, len(ordered)*4)
	for _, w := range ordered {
		if w.Start < 0 || w.End > 24*60 || w.End < w.Start {
			return nil, fmt.Errorf("invalid availability window %s-%s", w.Start, w.End)
		}
		for start := w.Start; start.Add(slotMinutes) <= w.End; start = start.Add(slotMinutes) {
			slots = append(slots, Range{Start: start, End: start.Add(slotMinutes)})
		}
	}
	return slots, nil
}

// Subtract removes every slot that overlaps any of the busy intervals,
// preserving order. Exact back-to-back intervals do not conflict.
func Subtract(slots []Range, busy []Range) []Range {
	free := make([]Range, 0, len(slots))
	for _, slot := range slots {
		taken := false
		for _, b := range busy {
			if slot.Overlaps(b) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, slot)
		}
	}
	return free
}
