package space

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max r3.Vec
}

// EmptyBox returns a box that any Extend call will replace.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend grows the box to include p.
func (b Box) Extend(p r3.Vec) Box {
	return Box{
		Min: r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing both.
func (b Box) Union(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Size returns the extents along each axis.
func (b Box) Size() r3.Vec {
	if b.IsEmpty() {
		return r3.Vec{}
	}
	return r3.Sub(b.Max, b.Min)
}

// Center returns the midpoint of the box.
func (b Box) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Corners returns the eight corners of the box.
func (b Box) Corners() []r3.Vec {
	return []r3.Vec{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

// Intersects reports whether the boxes overlap or touch.
func (b Box) Intersects(o Box) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Scene maps part-local centimetres to world scene units.
type Scene struct {
	Scale float64
}

// DefaultScene returns a Scene using DefaultSceneScale.
func DefaultScene() Scene {
	return Scene{Scale: DefaultSceneScale}
}

func (s Scene) scale() float64 {
	if s.Scale <= 0 {
		return DefaultSceneScale
	}
	return s.Scale
}

// ToWorld maps a local point (cm) through frame into world units.
func (s Scene) ToWorld(f Frame, local r3.Vec) r3.Vec {
	return f.Apply(r3.Scale(s.scale(), local))
}

// ToLocal maps a world point into the frame's local centimetres.
func (s Scene) ToLocal(f Frame, world r3.Vec) r3.Vec {
	return r3.Scale(1/s.scale(), f.ToLocal(world))
}

// WorldBox returns the world-space AABB of a local box placed by frame.
func (s Scene) WorldBox(f Frame, local Box) Box {
	out := EmptyBox()
	if local.IsEmpty() {
		return out
	}
	for _, c := range local.Corners() {
		out = out.Extend(s.ToWorld(f, c))
	}
	return out
}

// LocalBox returns the AABB, in the frame's local centimetres, of a world
// box's corners.
func (s Scene) LocalBox(f Frame, world Box) Box {
	out := EmptyBox()
	if world.IsEmpty() {
		return out
	}
	for _, c := range world.Corners() {
		out = out.Extend(s.ToLocal(f, c))
	}
	return out
}
