package charts

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/intelink/console/internal/util"
)

// PieDatum is one slice of a pie chart.
type PieDatum struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Pie renders a pie chart with a legend listing each slice's percentage.
func Pie(w io.Writer, data []PieDatum, opts Options) error {
	opts = opts.withDefaults(480, 320)
	values := make([]float64, len(data))
	for i, d := range data {
		values[i] = d.Value
	}
	pct := Percentages(values)

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	writeTitle(canvas, opts)

	r := min(opts.Height-marginTop-16, opts.Width/2) / 2
	cx := 16 + r
	cy := marginTop + (opts.Height-marginTop)/2

	total := 0.0
	for _, p := range pct {
		total += p
	}
	if total == 0 {
		canvas.Circle(cx, cy, r, `class="empty"`, `fill="none"`, fmt.Sprintf(`stroke="%s"`, gridColor), `stroke-width="12"`)
	}

	angle := -math.Pi / 2
	for i, d := range data {
		if pct[i] <= 0 {
			continue
		}
		sweep := pct[i] / 100 * 2 * math.Pi
		canvas.Group()
		canvas.Title(fmt.Sprintf("%s: %s (%.1f%%)", d.Name, FormatValue(d.Value), pct[i]))
		fill := fmt.Sprintf(`fill="%s"`, opts.color(i))
		if pct[i] >= 99.9999 {
			canvas.Circle(cx, cy, r, `class="slice"`, fill)
		} else {
			canvas.Path(slicePath(float64(cx), float64(cy), float64(r), angle, angle+sweep), `class="slice"`, fill)
		}
		canvas.Gend()
		angle += sweep
	}

	legendX := cx + r + 24
	for i, d := range data {
		y := marginTop + 8 + i*18
		if y > opts.Height-8 {
			break
		}
		canvas.Rect(legendX, y-9, 10, 10, fmt.Sprintf(`fill="%s"`, opts.color(i)))
		canvas.Text(legendX+16, y, fmt.Sprintf("%s %.1f%%", util.Truncate(d.Name, opts.LabelLength), pct[i]),
			`font-size="11"`, fontStyle, fmt.Sprintf(`fill="%s"`, textColor))
	}

	canvas.End()
	return nil
}

func slicePath(cx, cy, r, from, to float64) string {
	x1, y1 := cx+r*math.Cos(from), cy+r*math.Sin(from)
	x2, y2 := cx+r*math.Cos(to), cy+r*math.Sin(to)
	large := 0
	if to-from > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M%.2f,%.2f L%.2f,%.2f A%.2f,%.2f 0 %d 1 %.2f,%.2f Z", cx, cy, x1, y1, r, r, large, x2, y2)
}
