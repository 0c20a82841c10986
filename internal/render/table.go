// Package render builds the presentation artifacts for an aggregated rubric
// matrix: the labeled score table, the annotated heatmap PNG and the
// overall-score bar chart. Rendering is deterministic and never mutates its
// inputs.
package render

import (
	"encoding/json"
	"fmt"
	"math"
)

// Score is a float64 that serializes NaN as JSON null.
type Score float64

func (s Score) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(s)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(s))
}

type Row struct {
	Label   string  `json:"label"`
	Scores  []Score `json:"scores"`
	Overall Score   `json:"overall_score"`
}

type Table struct {
	Columns []string `json:"columns"` // criteria columns plus "Overall Score"
	Rows    []Row    `json:"rows"`
}

// ColumnLabels names the criteria columns: lettered up to four criteria,
// numbered beyond that.
func ColumnLabels(n int) []string {
	labels := make([]string, n)
	if n <= 4 {
		letters := []string{"A", "B", "C", "D"}
		for i := 0; i < n; i++ {
			labels[i] = "Criterion " + letters[i]
		}
		return labels
	}
	for i := 0; i < n; i++ {
		labels[i] = fmt.Sprintf("Criterion %d", i+1)
	}
	return labels
}

// BuildScoreTable derives the score table from an aggregated matrix. The
// Overall Score column is the row-wise arithmetic mean; any missing (NaN)
// cell makes the row's mean NaN rather than being treated as zero.
func BuildScoreTable(matrix [][]float64, rowLabels []string) *Table {
	cols := 0
	if len(matrix) > 0 {
		cols = len(matrix[0])
	}

	t := &Table{Columns: append(ColumnLabels(cols), "Overall Score")}
	for i, row := range matrix {
		label := ""
		if i < len(rowLabels) {
			label = rowLabels[i]
		}
		scores := make([]Score, len(row))
		for j, v := range row {
			scores[j] = Score(v)
		}
		t.Rows = append(t.Rows, Row{
			Label:   label,
			Scores:  scores,
			Overall: Score(mean(row)),
		})
	}
	return t
}

func mean(row []float64) float64 {
	if len(row) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range row {
		sum += v // NaN propagates
	}
	return sum / float64(len(row))
}
