package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Month identifies a YYYY-MM payroll period.
type Month struct {
	Year  int
	Month time.Month
}

func ParseMonth(value string) (Month, error) {
	parsed, err := time.Parse(MonthLayout, strings.TrimSpace(value))
	if err != nil {
		return Month{}, fmt.Errorf("bad month format, expected YYYY-MM: %w", err)
	}
	return Month{Year: parsed.Year(), Month: parsed.Month()}, nil
}

// MonthOf returns the month containing ts in loc.
func MonthOf(ts time.Time, loc *time.Location) Month {
	return DateOf(ts, loc).Month()
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// First is the first day of the month.
func (m Month) First() Date {
	return NewDate(m.Year, m.Month, 1)
}

// Last is the last day of the month.
func (m Month) Last() Date {
	return m.Next().First().AddDays(-1)
}

func (m Month) Next() Month {
	next := m.First().Time().AddDate(0, 1, 0)
	return Month{Year: next.Year(), Month: next.Month()}
}

// Contains reports whether d falls inside the month.
func (m Month) Contains(d Date) bool {
	return d.Time().Year() == m.Year && d.Time().Month() == m.Month
}
