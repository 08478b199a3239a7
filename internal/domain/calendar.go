package domain

import (
	"fmt"
	"time"
)

// BusinessCalendar defines the working window used to count business time.
// WorkDayStart and WorkDayEnd are offsets from midnight in the calendar's
// timezone.
type BusinessCalendar struct {
	ID           string
	TenantID     string
	Name         string
	Description  string
	Timezone     string
	WorkDayStart time.Duration
	WorkDayEnd   time.Duration
	WorkDays     []time.Weekday
	IsDefault    bool
	IsActive     bool
	Holidays     []Holiday
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Holiday struct {
	ID         string
	CalendarID string
	Name       string
	Date       time.Time
	Recurring  bool
}

func (c BusinessCalendar) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCalendar)
	}
	if c.WorkDayStart < 0 || c.WorkDayEnd > 24*time.Hour {
		return fmt.Errorf("%w: work window outside the day", ErrInvalidCalendar)
	}
	if c.WorkDayStart >= c.WorkDayEnd {
		return fmt.Errorf("%w: work day start must precede end", ErrInvalidCalendar)
	}
	if len(c.WorkDays) == 0 {
		return fmt.Errorf("%w: at least one work day is required", ErrInvalidCalendar)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidCalendar, c.Timezone)
	}
	return nil
}

func (c BusinessCalendar) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c BusinessCalendar) isWorkDay(day time.Weekday) bool {
	for _, wd := range c.WorkDays {
		if wd == day {
			return true
		}
	}
	return false
}

// isHoliday re-evaluates recurrence against the candidate date on every call;
// recurring entries match month and day in any year.
func (c BusinessCalendar) isHoliday(t time.Time) bool {
	for _, h := range c.Holidays {
		hy, hm, hd := h.Date.Date()
		y, m, d := t.Date()
		if h.Recurring {
			if hm == m && hd == d {
				return true
			}
			continue
		}
		if hy == y && hm == m && hd == d {
			return true
		}
	}
	return false
}

// AddBusinessTime walks forward from start until d of business time has
// elapsed. Time advances only inside the work window on work days that are
// not holidays; a start outside the window is moved to the next window open
// before counting begins. A result landing exactly on the window close is
// normalized to the next window open. Zero duration returns start unchanged.
func (c BusinessCalendar) AddBusinessTime(start time.Time, d time.Duration) (time.Time, error) {
	if d < 0 {
		return time.Time{}, fmt.Errorf("%w: negative duration", ErrInvalidCalendar)
	}
	if d == 0 {
		return start, nil
	}
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidCalendar, c.Timezone)
	}

	cur := start.In(loc)
	remaining := d
	for {
		if !c.isWorkDay(cur.Weekday()) || c.isHoliday(cur) {
			cur = nextDayOpen(cur, c.WorkDayStart)
			continue
		}
		open := dayAt(cur, c.WorkDayStart)
		close := dayAt(cur, c.WorkDayEnd)
		if cur.Before(open) {
			cur = open
		}
		if !cur.Before(close) {
			cur = nextDayOpen(cur, c.WorkDayStart)
			continue
		}
		avail := close.Sub(cur)
		if remaining < avail {
			return cur.Add(remaining), nil
		}
		remaining -= avail
		cur = nextDayOpen(cur, c.WorkDayStart)
		if remaining == 0 {
			// The deadline fell exactly on the window close; advance it
			// across the closed window to the next open.
			for !c.isWorkDay(cur.Weekday()) || c.isHoliday(cur) {
				cur = nextDayOpen(cur, c.WorkDayStart)
			}
			return cur, nil
		}
	}
}

func dayAt(t time.Time, offset time.Duration) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(offset)
}

func nextDayOpen(t time.Time, start time.Duration) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(start)
}
