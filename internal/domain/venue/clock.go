package venue

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClockTime is a wall-clock time of day with minute precision, stored as
// "HH:MM".
type ClockTime struct {
	minutes int
}

// NewClockTime builds a ClockTime from hour and minute
func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	return ClockTime{minutes: hour*60 + minute}, nil
}

// MustClock is ParseClock that panics on malformed input
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseClock parses "HH:MM" or "HH:MM:SS". Seconds are dropped.
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewClockTime(t.Hour(), t.Minute())
		}
	}
	return ClockTime{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
}

// ParseClockLenient parses s and returns nil instead of an error for empty,
// "null" or malformed input.
func ParseClockLenient(s string) *ClockTime {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return nil
	}
	c, err := ParseClock(s)
	if err != nil {
		return nil
	}
	return &c
}

// Hour returns the hour
func (c ClockTime) Hour() int { return c.minutes / 60 }

// Minute returns the minute
func (c ClockTime) Minute() int { return c.minutes % 60 }

// Before reports whether c is earlier than o
func (c ClockTime) Before(o ClockTime) bool { return c.minutes < o.minutes }

// After reports whether c is later than o
func (c ClockTime) After(o ClockTime) bool { return c.minutes > o.minutes }

// On combines c with the calendar day of date in loc
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, loc)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalJSON encodes as "HH:MM"
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes "HH:MM" strictly
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer
func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements sql.Scanner
func (c *ClockTime) Scan(value any) error {
	switch v := value.(type) {
	case string:
		parsed, err := ParseClock(v)
		if err != nil {
			return err
		}
		*c = parsed
	case []byte:
		return c.Scan(string(v))
	case time.Time:
		*c = ClockTime{minutes: v.Hour()*60 + v.Minute()}
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", value)
	}
	return nil
}
