package render

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heatmapMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = float64(i*cols+j) / float64(rows*cols)
		}
	}
	return m
}

func labelsFor(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "row"
	}
	return out
}

func TestHeatmapRendersPNG(t *testing.T) {
	m := heatmapMatrix(3, 4)
	data, err := Heatmap(m, labelsFor(3), ColumnLabels(4), "Rubric Heatmap")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
	assert.Positive(t, img.Bounds().Dy())
}

func TestHeatmapHeightFloorAndGrowth(t *testing.T) {
	small, err := Heatmap(heatmapMatrix(2, 3), labelsFor(2), ColumnLabels(3), "t")
	require.NoError(t, err)
	big, err := Heatmap(heatmapMatrix(40, 3), labelsFor(40), ColumnLabels(3), "t")
	require.NoError(t, err)

	smallImg, err := png.Decode(bytes.NewReader(small))
	require.NoError(t, err)
	bigImg, err := png.Decode(bytes.NewReader(big))
	require.NoError(t, err)

	// two rows sit on the height floor
	assert.Equal(t, topGutter+minPlotH+margin, smallImg.Bounds().Dy())
	// forty rows outgrow it linearly
	assert.Equal(t, topGutter+40*rowHeight+margin, bigImg.Bounds().Dy())
}

func TestHeatmapDeterministic(t *testing.T) {
	m := heatmapMatrix(4, 4)
	a, err := Heatmap(m, labelsFor(4), ColumnLabels(4), "t")
	require.NoError(t, err)
	b, err := Heatmap(m, labelsFor(4), ColumnLabels(4), "t")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHeatmapHandlesNaNAndFlatRange(t *testing.T) {
	// NaN cells stay blank, a flat value range still renders
	m := [][]float64{{0.5, math.NaN()}, {0.5, 0.5}}
	data, err := Heatmap(m, labelsFor(2), ColumnLabels(2), "t")
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestHeatmapEmptyMatrix(t *testing.T) {
	_, err := Heatmap(nil, nil, nil, "t")
	assert.Error(t, err)
}

func TestHeatColorEndpoints(t *testing.T) {
	low := heatColor(0, 0, 1)
	high := heatColor(1, 0, 1)
	assert.Equal(t, heatAnchors[0].R, low.R)
	assert.Equal(t, heatAnchors[len(heatAnchors)-1].R, high.R)

	// dark cells get light text and vice versa
	assert.Equal(t, uint8(255), textColorFor(low).R)
	assert.Equal(t, uint8(0), textColorFor(high).R)
}
