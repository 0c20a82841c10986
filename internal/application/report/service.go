package report

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
	"github.com/bryanwahyu/medalyze/internal/infra/session"
)

// Report is the aggregation of every usable per-transcript matrix: one
// vertically-stacked rubric matrix plus the row labels in stacking order.
// Warnings record results that were skipped without aborting aggregation.
type Report struct {
	Matrix    [][]float64
	RowLabels []string
	Warnings  []string
}

// Service resolves session result sets into a single Report, fetching
// indirect results through the backend when needed.
type Service struct {
	Backend  analysis.Backend
	Sessions *session.Store
}

// BuildReport aggregates the current result set of a session.
func (s *Service) BuildReport(ctx context.Context, sessionID string) (*Report, error) {
	results, err := s.Sessions.Results(sessionID)
	if err != nil {
		return nil, err
	}
	return s.Aggregate(ctx, results)
}

// Aggregate normalizes heterogeneous results into one matrix. Results whose
// matrix cannot be obtained are skipped with a warning; zero usable matrices
// is a hard ErrNoData; disagreement on the criteria count is a hard
// ErrColumnMismatch, never a silent reshape.
func (s *Service) Aggregate(ctx context.Context, results []analysis.Result) (*Report, error) {
	rep := &Report{}
	cols := -1

	for _, res := range results {
		m, labels, ok := s.resolve(ctx, res, rep)
		if !ok {
			continue
		}

		w := width(m)
		if cols == -1 {
			cols = w
		} else if w != cols {
			return nil, fmt.Errorf("%w: %s has %d columns, expected %d",
				analysis.ErrColumnMismatch, res.FileName, w, cols)
		}

		if len(labels) != len(m) {
			labels = synthesizeLabels(res.FileName, len(m))
		}
		rep.Matrix = append(rep.Matrix, padRows(m, w)...)
		rep.RowLabels = append(rep.RowLabels, labels...)
	}

	if len(rep.Matrix) == 0 {
		return nil, analysis.ErrNoData
	}
	return rep, nil
}

// resolve returns the matrix and labels for one result, fetching by id when
// the matrix is not inline.
func (s *Service) resolve(ctx context.Context, res analysis.Result, rep *Report) ([][]float64, []string, bool) {
	if res.HasMatrix() {
		return res.Matrix, res.RowLabels, true
	}
	if res.AnalysisID == "" {
		rep.warnf("%s: result has neither matrix nor analysis id, skipped", res.FileName)
		return nil, nil, false
	}

	fetched, err := s.Backend.FetchAnalysis(ctx, res.AnalysisID)
	if err != nil {
		rep.warnf("%s: fetch of analysis %s failed: %v", res.FileName, res.AnalysisID, err)
		return nil, nil, false
	}
	if !fetched.HasMatrix() {
		rep.warnf("%s: analysis %s returned an empty matrix, skipped", res.FileName, res.AnalysisID)
		return nil, nil, false
	}

	labels := res.RowLabels
	if len(labels) == 0 {
		labels = fetched.RowLabels
	}
	return fetched.Matrix, labels, true
}

func (r *Report) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("aggregate: %s", msg)
	r.Warnings = append(r.Warnings, msg)
}

// width is the widest row of a matrix.
func width(m [][]float64) int {
	w := 0
	for _, row := range m {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// padRows NaN-fills short rows so missing cells propagate into derived means
// instead of being zero-filled.
func padRows(m [][]float64, w int) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		padded := make([]float64, w)
		copy(padded, row)
		for j := len(row); j < w; j++ {
			padded[j] = math.NaN()
		}
		out[i] = padded
	}
	return out
}

func synthesizeLabels(fileName string, rows int) []string {
	labels := make([]string, rows)
	for i := range labels {
		labels[i] = fmt.Sprintf("%s %d", fileName, i+1)
	}
	return labels
}
