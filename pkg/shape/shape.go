// Package shape turns a profile definition plus resolved instance
// dimensions into solid descriptions. It is pure: no rendering, no
// resources, no state beyond the builder's options.
//
// Part frame convention: X is the thickness/depth axis, Y runs across the
// width, Z runs along the length (up, for walls). Every family is centred
// on its bounding box except openings, which stand on the ground
// (z from 0 to height).
package shape

import (
	"fmt"

	"github.com/chazu/steelframe/pkg/space"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Role is the material role of a solid; the part instance maps roles to
// concrete materials.
type Role int

const (
	RoleSteel Role = iota
	RoleWall
	RoleRoof
	RoleWood
	RoleGlass
	RoleHandle
)

func (r Role) String() string {
	switch r {
	case RoleSteel:
		return "steel"
	case RoleWall:
		return "wall"
	case RoleRoof:
		return "roof"
	case RoleWood:
		return "wood"
	case RoleGlass:
		return "glass"
	case RoleHandle:
		return "handle"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// SolidKind discriminates the Solid variants.
type SolidKind int

const (
	SolidBox SolidKind = iota
	SolidExtrusion
	SolidSphere
)

func (k SolidKind) String() string {
	switch k {
	case SolidBox:
		return "box"
	case SolidExtrusion:
		return "extrusion"
	case SolidSphere:
		return "sphere"
	default:
		return fmt.Sprintf("SolidKind(%d)", int(k))
	}
}

// Plane says how an extrusion outline maps into the part frame.
type Plane int

const (
	// CrossSection outlines are profile sections: u runs across the width
	// (Y), v across the depth (-X); extruded along Z.
	CrossSection Plane = iota
	// Elevation outlines are wall faces: u runs across the width (Y), v up
	// the height (Z); extruded along X.
	Elevation
)

func (p Plane) String() string {
	switch p {
	case CrossSection:
		return "cross-section"
	case Elevation:
		return "elevation"
	default:
		return fmt.Sprintf("Plane(%d)", int(p))
	}
}

// Solid describes one drawable primitive. Boxes and spheres are centred on
// Offset; extrusions have their outline centred on its own bounds and are
// extruded symmetrically about Offset.
type Solid struct {
	Kind    SolidKind
	Size    r3.Vec   // box extents
	Outline []r2.Vec // extrusion outline, centred
	Plane   Plane
	Depth   float64 // extrusion depth
	Radius  float64 // sphere radius
	Offset  r3.Vec
	Role    Role
}

// Bounds returns the solid's AABB in the part frame.
func (s *Solid) Bounds() space.Box {
	var half r3.Vec
	switch s.Kind {
	case SolidBox:
		half = r3.Scale(0.5, s.Size)
	case SolidSphere:
		half = r3.Vec{X: s.Radius, Y: s.Radius, Z: s.Radius}
	case SolidExtrusion:
		if len(s.Outline) == 0 {
			return space.EmptyBox()
		}
		u, v := outlineHalfExtents(s.Outline)
		switch s.Plane {
		case Elevation:
			half = r3.Vec{X: s.Depth / 2, Y: u, Z: v}
		default:
			half = r3.Vec{X: v, Y: u, Z: s.Depth / 2}
		}
	default:
		return space.EmptyBox()
	}
	return space.Box{Min: r3.Sub(s.Offset, half), Max: r3.Add(s.Offset, half)}
}

// Node is an element of a built shape: either a leaf carrying a Solid or a
// named group of children.
type Node struct {
	Name     string
	Solid    *Solid
	Children []*Node
}

// IsLeaf reports whether the node carries a solid.
func (n *Node) IsLeaf() bool {
	return n.Solid != nil
}

// IsEmpty reports whether the subtree contains no solids.
func (n *Node) IsEmpty() bool {
	return n == nil || len(n.Leaves()) == 0
}

// Leaves returns every solid-carrying node in depth-first order.
func (n *Node) Leaves() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	var walk func(*Node)
	walk = func(x *Node) {
		if x.Solid != nil {
			out = append(out, x)
		}
		for _, c := range x.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Bounds returns the AABB of every solid in the subtree.
func (n *Node) Bounds() space.Box {
	b := space.EmptyBox()
	for _, l := range n.Leaves() {
		b = b.Union(l.Solid.Bounds())
	}
	return b
}

// Find returns the first node in the subtree with the given name.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

func leaf(name string, s Solid) *Node {
	return &Node{Name: name, Solid: &s}
}

func group(name string, children ...*Node) *Node {
	return &Node{Name: name, Children: children}
}

func boxSolid(size, offset r3.Vec, role Role) Solid {
	return Solid{Kind: SolidBox, Size: size, Offset: offset, Role: role}
}

// extrusion centres outline on its bounds and wraps it in a Solid.
func extrusion(outline []r2.Vec, plane Plane, depth float64, role Role) Solid {
	return Solid{
		Kind:    SolidExtrusion,
		Outline: Centered(outline),
		Plane:   plane,
		Depth:   depth,
		Role:    role,
	}
}
