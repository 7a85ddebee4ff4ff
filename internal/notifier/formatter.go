package notifier

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func signed(v float64, places int32) string {
	d := decimal.NewFromFloat(v).Round(places)
	if d.IsPositive() {
		return "+" + d.StringFixed(places)
	}
	return d.StringFixed(places)
}

// StatsLine is the one-line summary of the newest bar.
func StatsLine(chart *model.Chart) string {
	last, ok := chart.Bars.Last()
	if !ok {
		return fmt.Sprintf("%s %s: no data", chart.Symbol, chart.Timeframe)
	}
	return fmt.Sprintf("Latest close: %s | MACD: %s | Signal: %s",
		price(last.Close), signed(last.MACD, 4), signed(last.Signal, 4))
}

// FormatChartSummary formats a computed chart into a Telegram message.
func FormatChartSummary(chart *model.Chart) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s %s</b> | last %dh\n\n", chart.Symbol, chart.Timeframe, chart.LookbackHrs))
	last, ok := chart.Bars.Last()
	if !ok {
		b.WriteString("No data in range\n")
		return b.String()
	}
	b.WriteString(StatsLine(chart) + "\n")
	b.WriteString(fmt.Sprintf("Histogram: %s\n", signed(last.Histogram, 4)))
	b.WriteString(fmt.Sprintf("EMA26: %s | EMA50: %s\n", price(last.EMA26), price(last.EMA50)))

	trend := "below"
	if last.EMA26 >= last.EMA50 {
		trend = "above"
	}
	momentum := "bearish"
	if last.Histogram >= 0 {
		momentum = "bullish"
	}
	b.WriteString(fmt.Sprintf("Trend: EMA26 %s EMA50, momentum %s\n", trend, momentum))

	if chart.Gaps.Filled > 0 {
		b.WriteString(fmt.Sprintf("\nFilled bars: %d (market closed %d, missing %d)\n",
			chart.Gaps.Filled, chart.Gaps.MarketClosed, chart.Gaps.Missing))
	}
	b.WriteString(fmt.Sprintf("\nBars: %d | Source: %s\n", len(chart.Bars), chart.Source))
	b.WriteString(fmt.Sprintf("Updated: %s", chart.ComputedAt.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatTimeframes lists the selectable timeframes.
func FormatTimeframes(tfs []timeframe.Timeframe) string {
	labels := make([]string, len(tfs))
	for i, tf := range tfs {
		labels[i] = string(tf)
	}
	return "⏱ <b>Timeframes</b>\n" + strings.Join(labels, " ")
}

// FormatError formats a command failure.
func FormatError(err error) string {
	return fmt.Sprintf("⚠️ %v", err)
}
