// Package decompose tiles a rectangular wall around one rectangular
// opening. The same routine serves declared cuts on a single wall and
// overlap resolution between independently placed parts; callers differ
// only in how they obtain the cut rectangle and wall bounds.
package decompose

import (
	"errors"
	"fmt"
	"math"
)

// Floors, in centimetres.
const (
	// MinPieceSize is the smallest extent a surviving piece may have.
	// Slivers at or below it are dropped, not merged into a neighbour.
	MinPieceSize = 5.0

	// MinOverlap is the smallest overlap, on either axis, that counts as a
	// collision during overlap resolution.
	MinOverlap = 1.0
)

// ErrDegenerateCut is returned when a cut has no positive extent on one of
// its axes after clamping to the wall.
var ErrDegenerateCut = errors.New("decompose: degenerate cut")

// Rect is an axis-aligned rectangle in wall-local coordinates: Y along the
// width from 0 to W, Z up the height from 0 to H.
type Rect struct {
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
	MinZ float64 `json:"minZ"`
	MaxZ float64 `json:"maxZ"`
}

// Width returns the extent along Y.
func (r Rect) Width() float64 { return r.MaxY - r.MinY }

// Height returns the extent along Z.
func (r Rect) Height() float64 { return r.MaxZ - r.MinZ }

// Area returns Width*Height.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// CenterY returns the midpoint along Y.
func (r Rect) CenterY() float64 { return (r.MinY + r.MaxY) / 2 }

// CenterZ returns the midpoint along Z.
func (r Rect) CenterZ() float64 { return (r.MinZ + r.MaxZ) / 2 }

func (r Rect) String() string {
	return fmt.Sprintf("y[%g,%g] z[%g,%g]", r.MinY, r.MaxY, r.MinZ, r.MaxZ)
}

// Clamp restricts r to [0,w]x[0,h]. A rectangle left with zero or negative
// extent on either axis is rejected with ErrDegenerateCut; it is never
// coerced into an empty shape.
func Clamp(r Rect, w, h float64) (Rect, error) {
	c := Rect{
		MinY: math.Max(0, r.MinY),
		MaxY: math.Min(w, r.MaxY),
		MinZ: math.Max(0, r.MinZ),
		MaxZ: math.Min(h, r.MaxZ),
	}
	if c.MinY >= c.MaxY || c.MinZ >= c.MaxZ {
		return Rect{}, fmt.Errorf("%w: %s clamps to %s within %gx%g", ErrDegenerateCut, r, c, w, h)
	}
	return c, nil
}

// Side names the position of a piece relative to the opening.
type Side int

const (
	Bottom Side = iota
	Top
	Left
	Right
)

func (s Side) String() string {
	switch s {
	case Bottom:
		return "BOT"
	case Top:
		return "TOP"
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Piece is one surviving rectangle of a decomposed wall.
type Piece struct {
	Side Side
	Rect Rect
}

// Tile splits a w x h wall around the clamped cut c. Bottom and top span
// the full width; left and right span only the cut's vertical band. A
// piece is emitted only when its governing extent exceeds floor.
func Tile(w, h float64, c Rect, floor float64) []Piece {
	var pieces []Piece

	if c.MinZ > floor {
		pieces = append(pieces, Piece{Side: Bottom, Rect: Rect{MinY: 0, MaxY: w, MinZ: 0, MaxZ: c.MinZ}})
	}
	if h-c.MaxZ > floor {
		pieces = append(pieces, Piece{Side: Top, Rect: Rect{MinY: 0, MaxY: w, MinZ: c.MaxZ, MaxZ: h}})
	}
	if c.MinY > floor {
		pieces = append(pieces, Piece{Side: Left, Rect: Rect{MinY: 0, MaxY: c.MinY, MinZ: c.MinZ, MaxZ: c.MaxZ}})
	}
	if w-c.MaxY > floor {
		pieces = append(pieces, Piece{Side: Right, Rect: Rect{MinY: c.MaxY, MaxY: w, MinZ: c.MinZ, MaxZ: c.MaxZ}})
	}

	return pieces
}

// Decompose clamps r to the wall and tiles it in one call.
func Decompose(w, h float64, r Rect, floor float64) ([]Piece, Rect, error) {
	c, err := Clamp(r, w, h)
	if err != nil {
		return nil, Rect{}, err
	}
	return Tile(w, h, c, floor), c, nil
}

// TotalArea sums the area of the given pieces.
func TotalArea(pieces []Piece) float64 {
	var sum float64
	for _, p := range pieces {
		sum += p.Rect.Area()
	}
	return sum
}
