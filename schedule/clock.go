package schedule

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Clock is a wall-clock time of day expressed as minutes since midnight.
// Clinic-local time is assumed everywhere; no timezone conversion happens
// at this level.
type Clock int

// ParseClock parses a strict "HH:MM" 24h string. "24:00" is accepted as an
// end-of-day window boundary.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := atoi2(s[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %v", s, err)
	}
	m, err := atoi2(s[3:])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %v", s, err)
	}
	if h > 24 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return Clock(h*60 + m), nil
}

func atoi2(s string) (int, error) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, fmt.Errorf("non-numeric component %q", s)
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), nil
}

// Add returns the clock shifted forward by the given number of minutes.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements the driver.Valuer interface; clocks are stored as
// "HH:MM" strings.
func (c Clock) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements the sql.Scanner interface
func (c *Clock) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var s string
	switch v := value.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("failed to scan Clock: unsupported type %T", value)
	}

	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
