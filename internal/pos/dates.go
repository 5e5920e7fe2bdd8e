package pos

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format accepted for report ranges.
const DateLayout = "2006-01-02"

// ErrInvalidRange is returned by DayRange for unparseable or reversed dates.
var ErrInvalidRange = errors.New("invalid date range")

// DayRange turns optional YYYY-MM-DD bounds into an inclusive range covering
// whole days in the manager's location. A blank bound is the zero time,
// which TransactionsBetween treats as open.
func (m *Manager) DayRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	if from != "" {
		d, err := time.ParseInLocation(DateLayout, from, m.loc)
		if err != nil {
			return start, end, fmt.Errorf("%w: from %q", ErrInvalidRange, from)
		}
		start = d
	}
	if to != "" {
		d, err := time.ParseInLocation(DateLayout, to, m.loc)
		if err != nil {
			return start, end, fmt.Errorf("%w: to %q", ErrInvalidRange, to)
		}
		end = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to, from)
	}
	return start, end, nil
}
