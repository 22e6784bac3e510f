package tui

import (
	"fmt"
	"strings"

	"github.com/olliecrow/kodiak_dashboard/internal/api"
)

// chart is the render input for one activity chart. Labels and series are
// the slices received from the API, untouched.
type chart struct {
	labels []string
	series []api.Series
}

func chartFromActivity(c api.Chart) chart {
	return chart{labels: c.ChartLabels(), series: c.ChartSeries()}
}

func (c chart) value(series, label int) int {
	values := c.series[series].Values
	if label >= len(values) {
		return 0
	}
	return values[label]
}

func (c chart) total(label int) int {
	sum := 0
	for i := range c.series {
		sum += c.value(i, label)
	}
	return sum
}

// render draws one row per label with a column per series and a bar sized
// against the busiest label.
func (c chart) render(st styles, width int) string {
	if len(c.labels) == 0 {
		return st.dim.Render("no activity recorded")
	}

	labelWidth := len("period")
	for _, l := range c.labels {
		labelWidth = max(labelWidth, len(l))
	}
	colWidths := make([]int, len(c.series))
	for i, s := range c.series {
		w := len(s.Name)
		for j := range c.labels {
			w = max(w, len(fmt.Sprint(c.value(i, j))))
		}
		colWidths[i] = w
	}

	used := labelWidth
	for _, w := range colWidths {
		used += 2 + w
	}
	barWidth := width - used - 2
	maxTotal := 0
	for j := range c.labels {
		maxTotal = max(maxTotal, c.total(j))
	}

	var b strings.Builder
	header := fmt.Sprintf("%-*s", labelWidth, "period")
	for i, s := range c.series {
		header += fmt.Sprintf("  %*s", colWidths[i], s.Name)
	}
	b.WriteString(st.label.Render(header))

	for j, label := range c.labels {
		row := fmt.Sprintf("%-*s", labelWidth, label)
		for i := range c.series {
			row += fmt.Sprintf("  %*d", colWidths[i], c.value(i, j))
		}
		b.WriteString("\n")
		b.WriteString(st.value.Render(row))
		if barWidth >= 4 && maxTotal > 0 {
			n := c.total(j) * barWidth / maxTotal
			if n == 0 && c.total(j) > 0 {
				n = 1
			}
			b.WriteString("  " + st.bar.Render(strings.Repeat("█", n)))
		}
	}
	return b.String()
}
