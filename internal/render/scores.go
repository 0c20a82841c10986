package render

import (
	"bytes"
	"fmt"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
)

// OverallBarChart renders one bar per graded row showing its Overall Score.
// Rows whose mean is NaN are left out of the chart.
func OverallBarChart(t *Table) ([]byte, error) {
	bars := make([]chart.Value, 0, len(t.Rows))
	for _, row := range t.Rows {
		v := float64(row.Overall)
		if math.IsNaN(v) {
			continue
		}
		bars = append(bars, chart.Value{Label: row.Label, Value: v})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("render scores: no scorable rows")
	}

	width := 80 * len(bars)
	if width < 480 {
		width = 480
	}

	ch := chart.BarChart{
		Title:    "Overall Scores",
		Width:    width,
		Height:   420,
		BarWidth: 48,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render scores: %w", err)
	}
	return buf.Bytes(), nil
}
