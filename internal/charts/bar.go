package charts

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/intelink/console/internal/util"
)

// BarDatum is one category of a bar chart.
type BarDatum struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

const (
	marginLeft   = 56
	marginRight  = 16
	marginTop    = 28
	marginBottom = 44
)

// Bar renders a vertical bar chart.
func Bar(w io.Writer, data []BarDatum, opts Options) error {
	opts = opts.withDefaults(640, 320)
	values := make([]float64, len(data))
	for i, d := range data {
		values[i] = d.Value
	}
	top := AxisMax(values)

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	writeTitle(canvas, opts)

	plotW := float64(opts.Width - marginLeft - marginRight)
	plotH := float64(opts.Height - marginTop - marginBottom)
	baseY := opts.Height - marginBottom
	drawValueAxis(canvas, opts, top, plotH)

	if len(data) == 0 {
		emptyNotice(canvas, opts)
		canvas.End()
		return nil
	}

	slot := plotW / float64(len(data))
	barW := max(1, round(slot*0.7))
	for i, d := range data {
		h := 0
		if d.Value > 0 {
			h = round(d.Value / top * plotH)
		}
		x := marginLeft + round(slot*float64(i)+(slot-float64(barW))/2)
		canvas.Group()
		canvas.Title(fmt.Sprintf("%s: %s", d.Label, FormatValue(d.Value)))
		canvas.Rect(x, baseY-h, barW, h, `class="bar"`, fmt.Sprintf(`fill="%s"`, opts.color(i)))
		canvas.Gend()
		canvas.Text(x+barW/2, baseY+16, util.Truncate(d.Label, opts.LabelLength),
			`text-anchor="middle"`, `font-size="11"`, fontStyle, fmt.Sprintf(`fill="%s"`, textColor))
	}

	canvas.End()
	return nil
}

func writeTitle(canvas *svg.SVG, opts Options) {
	if opts.Title == "" {
		return
	}
	canvas.Title(opts.Title)
	canvas.Text(opts.Width/2, 18, opts.Title, `text-anchor="middle"`, `font-size="14"`, fontStyle, fmt.Sprintf(`fill="%s"`, textColor))
}

// drawValueAxis draws three gridlines at 0, top/2 and top.
func drawValueAxis(canvas *svg.SVG, opts Options, top, plotH float64) {
	baseY := opts.Height - marginBottom
	for _, frac := range []float64{0, 0.5, 1} {
		y := baseY - round(plotH*frac)
		canvas.Line(marginLeft, y, opts.Width-marginRight, y, fmt.Sprintf(`stroke="%s"`, gridColor))
		canvas.Text(marginLeft-6, y+4, FormatValue(top*frac),
			`text-anchor="end"`, `font-size="10"`, fontStyle, fmt.Sprintf(`fill="%s"`, textColor))
	}
}

func emptyNotice(canvas *svg.SVG, opts Options) {
	canvas.Text(opts.Width/2, opts.Height/2, "No data", `text-anchor="middle"`, `font-size="13"`, fontStyle, `fill="#9ca3af"`)
}
