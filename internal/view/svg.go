package view

import (
	"math"
	"strconv"
	"strings"
)

// num formats an SVG coordinate with at most two decimals.
func num(v float64) string {
	if math.Abs(v) < 0.005 {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// polar returns the point at angle a (radians, 0 at twelve o'clock,
// clockwise) on the circle of radius r around (cx, cy).
func polar(cx, cy, r, a float64) (float64, float64) {
	return cx + r*math.Sin(a), cy - r*math.Cos(a)
}

// donutArc returns the path of a ring segment between angles a0 and a1.
// A segment spanning the whole circle is drawn as two half arcs, since an
// SVG arc with identical end points renders nothing.
func donutArc(cx, cy, outer, inner, a0, a1 float64) string {
	if a1-a0 >= 2*math.Pi-1e-9 {
		mid := a0 + math.Pi
		var b strings.Builder
		ox0, oy0 := polar(cx, cy, outer, a0)
		oxm, oym := polar(cx, cy, outer, mid)
		ix0, iy0 := polar(cx, cy, inner, a0)
		ixm, iym := polar(cx, cy, inner, mid)
		b.WriteString("M" + num(ox0) + " " + num(oy0))
		b.WriteString(arcTo(outer, false, true, oxm, oym))
		b.WriteString(arcTo(outer, false, true, ox0, oy0))
		b.WriteString("M" + num(ix0) + " " + num(iy0))
		b.WriteString(arcTo(inner, false, false, ixm, iym))
		b.WriteString(arcTo(inner, false, false, ix0, iy0))
		b.WriteString("Z")
		return b.String()
	}

	large := a1-a0 > math.Pi
	ox0, oy0 := polar(cx, cy, outer, a0)
	ox1, oy1 := polar(cx, cy, outer, a1)
	ix1, iy1 := polar(cx, cy, inner, a1)
	ix0, iy0 := polar(cx, cy, inner, a0)

	var b strings.Builder
	b.WriteString("M" + num(ox0) + " " + num(oy0))
	b.WriteString(arcTo(outer, large, true, ox1, oy1))
	b.WriteString("L" + num(ix1) + " " + num(iy1))
	b.WriteString(arcTo(inner, large, false, ix0, iy0))
	b.WriteString("Z")
	return b.String()
}

func arcTo(r float64, large, clockwise bool, x, y float64) string {
	flag := func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	}
	return "A" + num(r) + " " + num(r) + " 0 " + flag(large) + " " + flag(clockwise) + " " + num(x) + " " + num(y)
}

// tickStep picks a round interval that splits maxVal into about five steps.
func tickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

// axisTicks returns the tick values from 0 up to the first multiple of the
// step at or above maxVal. The last value is the axis ceiling.
func axisTicks(maxVal float64) []float64 {
	step := tickStep(maxVal)
	n := int(math.Ceil(maxVal / step))
	if n < 1 {
		n = 1
	}
	ticks := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		ticks = append(ticks, step*float64(i))
	}
	return ticks
}

// tickLabel abbreviates thousands: 1500 -> "2k", 950 -> "950".
func tickLabel(v float64) string {
	if v >= 1000 {
		return strconv.FormatFloat(math.Round(v/1000), 'f', 0, 64) + "k"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// linePath joins points with straight segments.
func linePath(xs, ys []float64) string {
	var b strings.Builder
	for i := range xs {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(xs[i]) + " " + num(ys[i]))
	}
	return b.String()
}

// areaPath closes the line down to baseline so it can be filled.
func areaPath(xs, ys []float64, baseline float64) string {
	if len(xs) == 0 {
		return ""
	}
	return linePath(xs, ys) +
		" L" + num(xs[len(xs)-1]) + " " + num(baseline) +
		" L" + num(xs[0]) + " " + num(baseline) + " Z"
}
