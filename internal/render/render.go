// Package render draws a chart as a terminal table.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"MacdView/internal/model"
)

var (
	primaryColor = lipgloss.Color("#0077cc")
	errorColor   = lipgloss.Color("#cc3300")
	successColor = lipgloss.Color("#33cc33")
	mutedColor   = lipgloss.Color("#999999")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

type column struct {
	title string
	width int
}

var columns = []column{
	{"time", 17},
	{"close", 11},
	{"ema26", 11},
	{"ema50", 11},
	{"macd", 10},
	{"signal", 10},
	{"hist", 10},
}

func cell(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Right).Render(s)
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// Chart renders the newest rows bars of chart. rows <= 0 renders every bar.
func Chart(chart *model.Chart, rows int) string {
	bars := chart.Bars
	if rows > 0 && len(bars) > rows {
		bars = bars[len(bars)-rows:]
	}

	title := titleStyle.Render(fmt.Sprintf("%s %s  last %dh", chart.Symbol, chart.Timeframe, chart.LookbackHrs))

	head := make([]string, len(columns))
	for i, c := range columns {
		head[i] = headerStyle.Render(cell(c.title, c.width))
	}
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, head...)}

	for _, b := range bars {
		histStyle := lipgloss.NewStyle().Foreground(successColor)
		if b.Histogram < 0 {
			histStyle = histStyle.Foreground(errorColor)
		}
		row := []string{
			cell(b.Time.Format("2006-01-02 15:04"), columns[0].width),
			cell(fixed(b.Close, 2), columns[1].width),
			cell(fixed(b.EMA26, 2), columns[2].width),
			cell(fixed(b.EMA50, 2), columns[3].width),
			cell(fixed(b.MACD, 4), columns[4].width),
			cell(fixed(b.Signal, 4), columns[5].width),
			histStyle.Render(cell(fixed(b.Histogram, 4), columns[6].width)),
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, row...)
		if b.Filled {
			line = footerStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if len(bars) == 0 {
		lines = append(lines, footerStyle.Render("no data"))
	}

	footer := footerStyle.Render(fmt.Sprintf("%d bars, %d filled | source %s | %s",
		len(chart.Bars), chart.Gaps.Filled, chart.Source, chart.ComputedAt.Format("2006-01-02 15:04")))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		boxStyle.Render(strings.Join(lines, "\n")),
		footer,
	)
}
