package storage

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a UTC calendar day in YYYY-MM-DD form. It is the persisted key of an
// edition, so lexical order equals calendar order.
type Day string

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(dayLayout))
}

// ParseDay accepts YYYY-MM-DD or an RFC 3339 timestamp, which is truncated to
// its UTC day.
func ParseDay(s string) (Day, error) {
	if t, err := time.Parse(dayLayout, s); err == nil {
		return DayOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return DayOf(t), nil
}

// Start returns UTC midnight of the day.
func (d Day) Start() time.Time {
	t, _ := time.Parse(dayLayout, string(d))
	return t
}

func (d Day) String() string {
	return string(d)
}
