package shape

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// pointEps is the distance under which two outline vertices are the same.
const pointEps = 1e-9

// Dedupe removes consecutive duplicate vertices, including a closing vertex
// equal to the first.
func Dedupe(pts []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && samePoint(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && samePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func samePoint(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < pointEps && math.Abs(a.Y-b.Y) < pointEps
}

// OutlineBounds returns the min and max corners of an outline.
func OutlineBounds(pts []r2.Vec) (min, max r2.Vec) {
	if len(pts) == 0 {
		return r2.Vec{}, r2.Vec{}
	}
	min, max = pts[0], pts[0]
	for _, p := range pts[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// Centered returns a copy of pts translated so its bounds are centred on
// the origin.
func Centered(pts []r2.Vec) []r2.Vec {
	min, max := OutlineBounds(pts)
	c := r2.Scale(0.5, r2.Add(min, max))
	out := make([]r2.Vec, len(pts))
	for i, p := range pts {
		out[i] = r2.Sub(p, c)
	}
	return out
}

func outlineHalfExtents(pts []r2.Vec) (u, v float64) {
	min, max := OutlineBounds(pts)
	return (max.X - min.X) / 2, (max.Y - min.Y) / 2
}

// ---------------------------------------------------------------------------
// Profile outlines (uncentred, working units)
// ---------------------------------------------------------------------------

// ChannelOutline returns a cold-formed channel section: a web of width w
// along u with flanges of height f along v and wall thickness t. Any
// positive lip turns both flange ends inward, giving a lipped C; lips
// thinner than 2t are drawn at 2t so the return stays visible.
func ChannelOutline(w, f, t, lip float64) []r2.Vec {
	if lip > 0 && lip < 2*t {
		lip = 2 * t
	}
	if maxLip := w/2 - t; lip > maxLip {
		lip = maxLip
	}
	if lip <= 0 {
		return []r2.Vec{
			{X: 0, Y: 0},
			{X: w, Y: 0},
			{X: w, Y: f},
			{X: w - t, Y: f},
			{X: w - t, Y: t},
			{X: t, Y: t},
			{X: t, Y: f},
			{X: 0, Y: f},
		}
	}
	return []r2.Vec{
		{X: 0, Y: 0},
		{X: w, Y: 0},
		{X: w, Y: f},
		{X: w - lip, Y: f},
		{X: w - lip, Y: f - t},
		{X: w - t, Y: f - t},
		{X: w - t, Y: t},
		{X: t, Y: t},
		{X: t, Y: f - t},
		{X: lip, Y: f - t},
		{X: lip, Y: f},
		{X: 0, Y: f},
	}
}

// PlateWaves is the number of corrugations across a roof panel.
const PlateWaves = 5

// PlateOutline returns the zig-zag section of a sandwich roof panel: each
// wave rises to a peak of height f at its midpoint and returns to 0.
func PlateOutline(w, f float64) []r2.Vec {
	stride := w / PlateWaves
	pts := []r2.Vec{{X: 0, Y: 0}}
	for i := 0; i < PlateWaves; i++ {
		x := float64(i) * stride
		pts = append(pts,
			r2.Vec{X: x + stride/2, Y: f},
			r2.Vec{X: x + stride, Y: 0},
		)
	}
	return pts
}

// NotchSegments is the number of equal segments along a notched edge.
const NotchSegments = 6

// IsTooth reports whether segment i of a notched edge is a tooth. Index 0
// is the bottom segment.
func IsTooth(i int, startWithTooth bool) bool {
	if startWithTooth {
		return i%2 == 0
	}
	return i%2 == 1
}

// NotchedOutline returns the elevation of an interlocking panel of width w
// and length l. Exactly one vertical edge carries teeth protruding by
// depth; the other edge, the top and the bottom are straight.
func NotchedOutline(w, l, depth float64, rightSide, startWithTooth bool) []r2.Vec {
	seg := l / NotchSegments
	pts := []r2.Vec{{X: 0, Y: 0}}

	if !rightSide {
		for i := 0; i < NotchSegments; i++ {
			lo, hi := float64(i)*seg, float64(i+1)*seg
			if IsTooth(i, startWithTooth) {
				pts = append(pts,
					r2.Vec{X: 0, Y: lo},
					r2.Vec{X: -depth, Y: lo},
					r2.Vec{X: -depth, Y: hi},
					r2.Vec{X: 0, Y: hi},
				)
			} else {
				pts = append(pts, r2.Vec{X: 0, Y: hi})
			}
		}
	} else {
		pts = append(pts, r2.Vec{X: 0, Y: l})
	}

	pts = append(pts, r2.Vec{X: w, Y: l})

	if rightSide {
		for i := NotchSegments - 1; i >= 0; i-- {
			lo, hi := float64(i)*seg, float64(i+1)*seg
			if IsTooth(i, startWithTooth) {
				pts = append(pts,
					r2.Vec{X: w, Y: hi},
					r2.Vec{X: w + depth, Y: hi},
					r2.Vec{X: w + depth, Y: lo},
					r2.Vec{X: w, Y: lo},
				)
			} else {
				pts = append(pts, r2.Vec{X: w, Y: lo})
			}
		}
	} else {
		pts = append(pts, r2.Vec{X: w, Y: 0})
	}

	return Dedupe(pts)
}

// CutMode selects where a gable wall's high point sits.
type CutMode int

const (
	CutCenter CutMode = iota
	CutLeftHigh
	CutRightHigh
)

func (m CutMode) String() string {
	switch m {
	case CutLeftHigh:
		return "left"
	case CutRightHigh:
		return "right"
	default:
		return "center"
	}
}

// ParseCutMode maps a cutType string and its aliases to a CutMode. The
// boolean is false for unrecognised values, which map to CutCenter.
func ParseCutMode(s string) (CutMode, bool) {
	switch s {
	case "", "center", "CENTER", "gable", "GABLE":
		return CutCenter, true
	case "left", "LEFT", "left_high", "LEFT_HIGH", "left-high":
		return CutLeftHigh, true
	case "right", "RIGHT", "right_high", "RIGHT_HIGH", "right-high":
		return CutRightHigh, true
	}
	return CutCenter, false
}

// GableOutline returns the elevation of a gable wall of base width w and
// maximum height h with the given slope in percent. Eaves never drop below
// 0. A zero slope yields a plain rectangle of height h in every mode.
func GableOutline(w, h, slope float64, mode CutMode) []r2.Vec {
	if slope <= 0 {
		return []r2.Vec{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
	}

	var pts []r2.Vec
	switch mode {
	case CutLeftHigh:
		low := math.Max(0, h-w*slope/100)
		pts = []r2.Vec{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: low}, {X: 0, Y: h}}
	case CutRightHigh:
		low := math.Max(0, h-w*slope/100)
		pts = []r2.Vec{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: low}}
	default:
		eave := math.Max(0, h-(w/2)*(slope/100))
		pts = []r2.Vec{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: eave}, {X: w / 2, Y: h}, {X: 0, Y: eave}}
	}
	return Dedupe(pts)
}
