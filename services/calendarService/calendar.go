package calendarService

import (
	"fmt"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

// Calendar decides which calendar day a timestamp belongs to. Every day key in the
// app comes from one Calendar so catalog filtering, dashboard buckets and slip
// dates agree.
type Calendar struct {
	Loc *time.Location
}

func NewCalendar(zone string) (*Calendar, error) {
	if zone == "" {
		zone = "America/New_York"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("error loading time zone %q: %v", zone, err)
	}
	return &Calendar{Loc: loc}, nil
}

func (c *Calendar) location() *time.Location {
	if c == nil || c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}

// DayKey returns the YYYY-MM-DD day of t in the calendar's zone.
func (c *Calendar) DayKey(t time.Time) string {
	return t.In(c.location()).Format(DayLayout)
}

func (c *Calendar) Today(now time.Time) string {
	return c.DayKey(now)
}

// AddDays shifts a day key by delta days.
func (c *Calendar) AddDays(day string, delta int) (string, error) {
	d, err := time.ParseInLocation(DayLayout, day, c.location())
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, delta).Format(DayLayout), nil
}

// ParseGameDay resolves the API's date field. A bare date is already the local
// calendar day and is kept as is; a timestamp is converted into the zone.
func (c *Calendar) ParseGameDay(raw string) (string, time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", time.Time{}, fmt.Errorf("empty game date")
	}

	if len(raw) == len(DayLayout) {
		d, err := time.ParseInLocation(DayLayout, raw, c.location())
		if err != nil {
			return "", time.Time{}, err
		}
		return raw, d.UTC(), nil
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02T15:04:05"} {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return c.DayKey(t), t.UTC(), nil
		}
	}

	return "", time.Time{}, fmt.Errorf("unrecognised game date %q", raw)
}

// MonthOf parses a YYYY-MM month; an empty value means the month of now.
func (c *Calendar) MonthOf(raw string, now time.Time) (int, time.Month, error) {
	if raw == "" {
		local := now.In(c.location())
		return local.Year(), local.Month(), nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", raw)
	}
	return t.Year(), t.Month(), nil
}
