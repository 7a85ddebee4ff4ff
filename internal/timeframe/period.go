package timeframe

import (
	"fmt"
	"time"
)

// Unit is the calendar unit a period is counted in.
type Unit int

const (
	Hour Unit = iota + 1
	Day
	Week
)

func (u Unit) String() string {
	switch u {
	case Hour:
		return "h"
	case Day:
		return "D"
	case Week:
		return "W"
	default:
		return "?"
	}
}

// Period is Count units of calendar time.
// Hours advance by elapsed time; days and weeks advance by calendar date in the
// time's location, so a day step across a DST change stays on local midnight.
type Period struct {
	Count int
	Unit  Unit
}

func Hours(n int) Period { return Period{Count: n, Unit: Hour} }
func Days(n int) Period  { return Period{Count: n, Unit: Day} }
func Weeks(n int) Period { return Period{Count: n, Unit: Week} }

// IsZero reports whether p is the empty period.
func (p Period) IsZero() bool { return p.Count == 0 }

// Add advances t by n periods (n may be negative).
func (p Period) Add(t time.Time, n int) time.Time {
	switch p.Unit {
	case Hour:
		return t.Add(time.Duration(n*p.Count) * time.Hour)
	case Day:
		return t.AddDate(0, 0, n*p.Count)
	case Week:
		return t.AddDate(0, 0, 7*n*p.Count)
	default:
		return t
	}
}

// Nominal returns the period length assuming 24-hour days.
func (p Period) Nominal() time.Duration {
	switch p.Unit {
	case Hour:
		return time.Duration(p.Count) * time.Hour
	case Day:
		return time.Duration(p.Count) * 24 * time.Hour
	case Week:
		return time.Duration(p.Count) * 7 * 24 * time.Hour
	default:
		return 0
	}
}

func (p Period) String() string {
	if p.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%d%s", p.Count, p.Unit)
}
