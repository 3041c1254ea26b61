// Package space converts between a part's local frame (centimetres, centre
// pivot) and world coordinates (scene units). Rotations are Euler angles in
// radians applied in XYZ order, so a composed matrix is Rx*Ry*Rz.
package space

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultSceneScale converts centimetres into scene units.
const DefaultSceneScale = 0.3

// Frame is a rigid transform: a rotation followed by a translation.
type Frame struct {
	Position r3.Vec
	rot      *mat.Dense
}

// Identity returns the identity frame.
func Identity() Frame {
	return Frame{rot: identity3()}
}

// NewFrame builds a frame from a position and Euler XYZ angles.
func NewFrame(pos r3.Vec, rx, ry, rz float64) Frame {
	return Frame{Position: pos, rot: EulerXYZ(rx, ry, rz)}
}

// EulerXYZ returns the rotation matrix Rx(rx) * Ry(ry) * Rz(rz).
func EulerXYZ(rx, ry, rz float64) *mat.Dense {
	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	cz, sz := math.Cos(rz), math.Sin(rz)

	x := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	})
	y := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	z := mat.NewDense(3, 3, []float64{
		cz, -sz, 0,
		sz, cz, 0,
		0, 0, 1,
	})

	var xy, xyz mat.Dense
	xy.Mul(x, y)
	xyz.Mul(&xy, z)
	return &xyz
}

// Rotation returns a copy of the frame's rotation matrix.
func (f Frame) Rotation() *mat.Dense {
	return mat.DenseCopyOf(f.matrix())
}

func (f Frame) matrix() *mat.Dense {
	if f.rot == nil {
		return identity3()
	}
	return f.rot
}

// Euler extracts XYZ Euler angles from the frame's rotation. Near gimbal
// lock (|m13| ~ 1) rz is reported as 0.
func (f Frame) Euler() (rx, ry, rz float64) {
	m := f.matrix()
	m13 := clamp(m.At(0, 2), -1, 1)
	ry = math.Asin(m13)
	if math.Abs(m13) < 0.9999999 {
		rx = math.Atan2(-m.At(1, 2), m.At(2, 2))
		rz = math.Atan2(-m.At(0, 1), m.At(0, 0))
	} else {
		rx = math.Atan2(m.At(2, 1), m.At(1, 1))
		rz = 0
	}
	return rx, ry, rz
}

// Compose returns the frame equivalent to applying child inside parent.
func Compose(parent, child Frame) Frame {
	var rot mat.Dense
	rot.Mul(parent.matrix(), child.matrix())
	return Frame{
		Position: r3.Add(parent.Position, parent.rotate(child.Position)),
		rot:      &rot,
	}
}

// Apply maps a point from the frame's local space into its parent space.
func (f Frame) Apply(v r3.Vec) r3.Vec {
	return r3.Add(f.Position, f.rotate(v))
}

// ToLocal maps a point from parent space into the frame's local space.
func (f Frame) ToLocal(v r3.Vec) r3.Vec {
	d := r3.Sub(v, f.Position)
	in := mat.NewVecDense(3, []float64{d.X, d.Y, d.Z})
	var out mat.VecDense
	out.MulVec(f.matrix().T(), in)
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

func (f Frame) rotate(v r3.Vec) r3.Vec {
	in := mat.NewVecDense(3, []float64{v.X, v.Y, v.Z})
	var out mat.VecDense
	out.MulVec(f.matrix(), in)
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
