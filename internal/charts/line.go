package charts

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/intelink/console/internal/util"
)

// LineDatum is one bucket of a time series.
type LineDatum struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// maxTimeLabels bounds the number of x-axis labels.
const maxTimeLabels = 6

// Line renders a single time series as a polyline with point markers.
func Line(w io.Writer, data []LineDatum, opts Options) error {
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

	step := 0.0
	if len(data) > 1 {
		step = plotW / float64(len(data)-1)
	}
	xs := make([]int, len(data))
	ys := make([]int, len(data))
	for i, d := range data {
		xs[i] = marginLeft + round(step*float64(i))
		if len(data) == 1 {
			xs[i] = marginLeft + round(plotW/2)
		}
		v := d.Value
		if v < 0 {
			v = 0
		}
		ys[i] = baseY - round(v/top*plotH)
	}

	color := opts.color(0)
	canvas.Polyline(xs, ys, `class="series"`, `fill="none"`, fmt.Sprintf(`stroke="%s"`, color), `stroke-width="2"`)

	stride := 1
	if len(data) > maxTimeLabels {
		stride = (len(data) + maxTimeLabels - 1) / maxTimeLabels
	}
	for i, d := range data {
		canvas.Group()
		canvas.Title(fmt.Sprintf("%s: %s", d.Time, FormatValue(d.Value)))
		canvas.Circle(xs[i], ys[i], 3, `class="point"`, fmt.Sprintf(`fill="%s"`, color))
		canvas.Gend()
		if i%stride == 0 || i == len(data)-1 {
			canvas.Text(xs[i], baseY+16, util.Truncate(d.Time, opts.LabelLength),
				`text-anchor="middle"`, `font-size="10"`, fontStyle, fmt.Sprintf(`fill="%s"`, textColor))
		}
	}

	canvas.End()
	return nil
}
