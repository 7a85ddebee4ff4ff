package collector

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
	"go.uber.org/zap"

	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

// TradingCalendar tells scheduled closures apart from missing provider data.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// NewTradingCalendar loads the exchange calendar for mic, falling back to xnys and
// then to a plain Mon-Fri week.
func NewTradingCalendar(mic string, log *zap.Logger) *TradingCalendar {
	mic = strings.ToLower(mic)
	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != "xnys" {
		log.Warn("unknown calendar, using xnys", zap.String("mic", mic))
		cal = calendar.GetCalendar("xnys")
	}
	if cal == nil {
		log.Warn("no exchange calendar available, using Mon-Fri fallback")
		nyLoc, err := time.LoadLocation("America/New_York")
		if err != nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{Fallback: true, Timezone: nyLoc}
	}
	return &TradingCalendar{Calendar: cal, Timezone: cal.Loc}
}

// IsTradingDay reports whether the exchange trades on the date of t.
func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}
	if tc.Fallback {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(t)
}

// IsOpen reports whether the exchange is in session at t.
func (tc *TradingCalendar) IsOpen(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}
	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		minute := t.Hour()*60 + t.Minute()
		return minute >= 9*60+30 && minute < 16*60
	}
	return tc.Calendar.IsOpen(t)
}

// Classify counts the filled bars of s and splits them into slots where the market
// was closed and slots where data is missing. Hourly slots are checked against the
// session at the start of the slot, daily and weekly ones against the label date.
func (tc *TradingCalendar) Classify(s model.IndicatedSeries, step timeframe.Period) model.GapReport {
	var r model.GapReport
	for _, b := range s {
		if !b.Filled {
			continue
		}
		r.Filled++
		var open bool
		if step.Unit == timeframe.Hour {
			open = tc.IsOpen(step.Add(b.Time, -1))
		} else {
			open = tc.IsTradingDay(b.Time)
		}
		if open {
			r.Missing++
		} else {
			r.MarketClosed++
		}
	}
	return r
}
