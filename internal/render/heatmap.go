package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cellWidth  = 96
	rowHeight  = 28
	minPlotH   = 240 // height floor; taller matrices grow linearly per row
	topGutter  = 48  // title + column labels
	margin     = 12
	maxLabelPx = 260
)

// viridis-style anchors, dark purple through yellow
var heatAnchors = []drawing.Color{
	{R: 68, G: 1, B: 84, A: 255},
	{R: 59, G: 82, B: 139, A: 255},
	{R: 33, G: 145, B: 140, A: 255},
	{R: 94, G: 201, B: 98, A: 255},
	{R: 253, G: 231, B: 37, A: 255},
}

// Heatmap renders the aggregated matrix as an annotated PNG. The color scale
// spans the data's own min..max; every cell carries its value formatted to
// two decimals; NaN cells stay blank.
func Heatmap(matrix [][]float64, rowLabels, colLabels []string, title string) ([]byte, error) {
	if len(matrix) == 0 {
		return nil, fmt.Errorf("render heatmap: empty matrix")
	}

	face := basicfont.Face7x13
	measure := &font.Drawer{Face: face}

	gutter := margin
	for _, l := range rowLabels {
		if w := measure.MeasureString(l).Ceil() + 2*margin; w > gutter {
			gutter = w
		}
	}
	if gutter > maxLabelPx {
		gutter = maxLabelPx
	}

	cols := len(matrix[0])
	plotW := cols * cellWidth
	plotH := len(matrix) * rowHeight
	if plotH < minPlotH {
		plotH = minPlotH
	}
	imgW := gutter + plotW + margin
	imgH := topGutter + plotH + margin

	img := image.NewRGBA(image.Rect(0, 0, imgW, imgH))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	lo, hi := dataRange(matrix)

	// cells laid out from the top; any floor slack stays below the matrix
	for i, row := range matrix {
		y0 := topGutter + i*rowHeight
		for j, v := range row {
			x0 := gutter + j*cellWidth
			rect := image.Rect(x0, y0, x0+cellWidth, y0+rowHeight)
			if math.IsNaN(v) {
				draw.Draw(img, rect, image.NewUniform(color.RGBA{238, 238, 238, 255}), image.Point{}, draw.Src)
				continue
			}
			cell := heatColor(v, lo, hi)
			draw.Draw(img, rect, image.NewUniform(cell), image.Point{}, draw.Src)
			annotate(img, face, rect, fmt.Sprintf("%.2f", v), textColorFor(cell))
		}
	}

	black := color.RGBA{0, 0, 0, 255}

	// title
	drawString(img, face, margin, margin+face.Metrics().Ascent.Ceil(), title, black)

	// column labels, centered over each column
	for j := 0; j < cols && j < len(colLabels); j++ {
		w := measure.MeasureString(colLabels[j]).Ceil()
		x := gutter + j*cellWidth + (cellWidth-w)/2
		drawString(img, face, x, topGutter-6, colLabels[j], black)
	}

	// row labels, right-aligned in the gutter
	for i := 0; i < len(matrix) && i < len(rowLabels); i++ {
		label := truncate(measure, rowLabels[i], gutter-2*margin)
		w := measure.MeasureString(label).Ceil()
		y := topGutter + i*rowHeight + (rowHeight+face.Metrics().Ascent.Ceil())/2
		drawString(img, face, gutter-margin-w, y, label, black)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render heatmap: %w", err)
	}
	return buf.Bytes(), nil
}

func dataRange(matrix [][]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range matrix {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

// heatColor maps v on lo..hi through the anchor gradient. A flat range maps
// to the middle anchor.
func heatColor(v, lo, hi float64) color.RGBA {
	t := 0.5
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	scaled := t * float64(len(heatAnchors)-1)
	idx := int(scaled)
	if idx >= len(heatAnchors)-1 {
		idx = len(heatAnchors) - 2
	}
	frac := scaled - float64(idx)
	a, b := heatAnchors[idx], heatAnchors[idx+1]
	return color.RGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 255,
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// textColorFor flips annotation color on cell luminance so values stay
// readable on both ends of the scale.
func textColorFor(c color.RGBA) color.RGBA {
	lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if lum > 150 {
		return color.RGBA{0, 0, 0, 255}
	}
	return color.RGBA{255, 255, 255, 255}
}

func annotate(img *image.RGBA, face *basicfont.Face, rect image.Rectangle, text string, col color.RGBA) {
	measure := &font.Drawer{Face: face}
	w := measure.MeasureString(text).Ceil()
	x := rect.Min.X + (rect.Dx()-w)/2
	y := rect.Min.Y + (rect.Dy()+face.Metrics().Ascent.Ceil())/2
	drawString(img, face, x, y, text, col)
}

func drawString(img *image.RGBA, face *basicfont.Face, x, y int, text string, col color.RGBA) {
	dr := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	dr.DrawString(text)
}

func truncate(measure *font.Drawer, s string, maxPx int) string {
	if measure.MeasureString(s).Ceil() <= maxPx {
		return s
	}
	runes := []rune(s)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		if measure.MeasureString(string(runes)+"…").Ceil() <= maxPx {
			break
		}
	}
	return string(runes) + "…"
}
