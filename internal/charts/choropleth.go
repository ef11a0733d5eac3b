package charts

import (
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
)

// GeographyDatum is the aggregate value of one country.
type GeographyDatum struct {
	Code  string  `json:"code"`
	Value float64 `json:"value"`
}

// NeutralFill colours countries without data.
const NeutralFill = "#e5e7eb"

// RampSteps is the number of buckets of the choropleth colour ramp.
const RampSteps = 5

var defaultRamp = [2]string{"#c7d2fe", "#312e81"}

// Ramp returns steps colours blended from low to high in Lab space.
// Unparseable endpoints fall back to the default ramp.
func Ramp(low, high string, steps int) []string {
	if steps < 1 {
		steps = 1
	}
	lo, err := colorful.Hex(low)
	if err != nil {
		lo, _ = colorful.Hex(defaultRamp[0])
	}
	hi, err := colorful.Hex(high)
	if err != nil {
		hi, _ = colorful.Hex(defaultRamp[1])
	}
	out := make([]string, steps)
	for i := range out {
		t := 0.0
		if steps > 1 {
			t = float64(i) / float64(steps-1)
		}
		out[i] = lo.BlendLab(hi, t).Clamped().Hex()
	}
	return out
}

// Bucket maps v onto [0, steps) by linear quantisation between min and max.
// When min equals max every value lands in the top bucket.
func Bucket(v, lo, hi float64, steps int) int {
	if steps <= 1 {
		return 0
	}
	if hi <= lo {
		return steps - 1
	}
	idx := int(math.Floor((v - lo) / (hi - lo) * float64(steps)))
	if idx < 0 {
		return 0
	}
	if idx >= steps {
		return steps - 1
	}
	return idx
}

// rampFor picks the colour ramp from the palette: one colour is used as-is,
// two or more define the low and high ends.
func rampFor(opts Options) []string {
	palette := validPalette(opts.Palette)
	switch len(palette) {
	case 0:
		return Ramp(defaultRamp[0], defaultRamp[1], RampSteps)
	case 1:
		return palette
	default:
		return Ramp(palette[0], palette[len(palette)-1], RampSteps)
	}
}

// Choropleth renders world shaded by the value of each country.
func Choropleth(w io.Writer, world *World, data []GeographyDatum, opts Options) error {
	if world == nil {
		return ErrNoWorldSource
	}
	ramp := rampFor(opts)
	opts = opts.withDefaults(960, 480)

	values := make(map[string]float64, len(data))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, d := range data {
		code := strings.ToUpper(strings.TrimSpace(d.Code))
		if code == "" {
			continue
		}
		values[code] += d.Value
	}
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	writeTitle(canvas, opts)

	top := 0
	if opts.Title != "" {
		top = marginTop
	}
	legendH := 24
	mapW := float64(opts.Width)
	mapH := float64(opts.Height - top - legendH)

	for _, c := range world.countries {
		fill := NeutralFill
		label := c.name
		if v, ok := values[c.code]; ok {
			fill = ramp[Bucket(v, lo, hi, len(ramp))]
			label = fmt.Sprintf("%s: %s", c.name, FormatValue(v))
		}
		canvas.Gid(c.code)
		canvas.Title(label)
		canvas.Path(projectPolygons(c.polygons, mapW, mapH, float64(top)), `class="country"`, fmt.Sprintf(`fill="%s"`, fill), `stroke="#ffffff"`, `stroke-width="0.5"`)
		canvas.Gend()
	}

	if len(values) > 0 && len(ramp) > 1 {
		y := opts.Height - legendH + 6
		for i, color := range ramp {
			canvas.Rect(8+i*28, y, 28, 10, `class="legend"`, fmt.Sprintf(`fill="%s"`, color))
		}
		canvas.Text(8, y+22, FormatValue(lo), `font-size="10"`, fontStyle, fmt.Sprintf(`fill="%s"`, textColor))
		canvas.Text(8+len(ramp)*28, y+22, FormatValue(hi), `text-anchor="end"`, `font-size="10"`, fontStyle, fmt.Sprintf(`fill="%s"`, textColor))
	}

	canvas.End()
	return nil
}

// Highlight renders world with the given codes filled in a single colour.
func Highlight(w io.Writer, world *World, codes []string, color string, opts Options) error {
	data := make([]GeographyDatum, 0, len(codes))
	for _, code := range codes {
		data = append(data, GeographyDatum{Code: code, Value: 1})
	}
	opts.Palette = []string{color}
	return Choropleth(w, world, data, opts)
}

// projectPolygons converts lon/lat rings to an SVG path using an
// equirectangular projection onto a width x height box offset by top.
func projectPolygons(polys []orb.Polygon, width, height, top float64) string {
	var b strings.Builder
	for _, poly := range polys {
		for _, ring := range poly {
			for i, pt := range ring {
				x := (pt.Lon() + 180) / 360 * width
				y := top + (90-pt.Lat())/180*height
				if i == 0 {
					fmt.Fprintf(&b, "M%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&b, "L%.1f,%.1f", x, y)
				}
			}
			b.WriteString("Z")
		}
	}
	return b.String()
}
