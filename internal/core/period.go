package core

import (
	"fmt"
	"time"
)

// Period is a (year, month) pair, the unit of revenue/expense aggregation.
// Event timestamps map to periods in UTC; the same convention applies on
// storage and display so an event never straddles a month boundary.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period the instant t belongs to.
func PeriodOf(t time.Time) Period {
	u := t.UTC()
	return Period{Year: u.Year(), Month: u.Month()}
}

// Shift moves the period by whole months, wrapping year boundaries.
// Any delta is valid, including zero and large negatives.
func (p Period) Shift(months int) Period {
	t := time.Date(p.Year, p.Month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: t.Year(), Month: t.Month()}
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	u := t.UTC()
	return u.Year() == p.Year && u.Month() == p.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
