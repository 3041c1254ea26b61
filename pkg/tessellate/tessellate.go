// Package tessellate walks a workspace and produces triangle meshes
// using a geometry kernel. One mesh is produced per drawable leaf, carrying
// the part id, leaf name and material so a renderer can draw ghosts and
// solids alike.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/steelframe/pkg/kernel"
	"github.com/chazu/steelframe/pkg/part"
	"github.com/chazu/steelframe/pkg/shape"
	"github.com/chazu/steelframe/pkg/space"
	"github.com/chazu/steelframe/pkg/workspace"
)

// placement is the world transform applied to every leaf of one part.
type placement struct {
	partID string
	frame  space.Frame
	scale  float64
}

// Workspace tessellates every instance of ws. The tessellator is read-only
// and never mutates the workspace.
func Workspace(ws *workspace.Workspace, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if ws == nil {
		return nil, nil
	}
	scale := ws.Scene().Scale
	var meshes []*kernel.Mesh
	err := ws.Visit(func(in *part.Instance, world space.Frame) error {
		collected, err := Part(in, world, scale, k)
		if err != nil {
			return err
		}
		meshes = append(meshes, collected...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meshes, nil
}

// Part tessellates one instance placed by world at the given scene scale.
func Part(in *part.Instance, world space.Frame, scale float64, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if in.Root() == nil {
		return nil, nil
	}
	pl := placement{partID: in.ID(), frame: world, scale: scale}
	meshes, err := walkObject(k, in.Root(), pl)
	if err != nil {
		return nil, fmt.Errorf("tessellate: part %s: %w", in.ID(), err)
	}
	return meshes, nil
}

// walkObject recursively traverses an object and its children, collecting
// meshes.
func walkObject(k kernel.Kernel, o *part.Object, pl placement) ([]*kernel.Mesh, error) {
	if o.IsLeaf() {
		return handleLeaf(k, o, pl)
	}
	var meshes []*kernel.Mesh
	for _, child := range o.Children {
		collected, err := walkObject(k, child, pl)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// handleLeaf creates geometry for one leaf: solid, leaf offset, scene
// scale, then the part's world rotation and position.
func handleLeaf(k kernel.Kernel, o *part.Object, pl placement) ([]*kernel.Mesh, error) {
	solid, err := Solid(k, o.Solid)
	if err != nil {
		return nil, fmt.Errorf("leaf %s: %w", o.Name, err)
	}
	if solid == nil {
		return nil, nil
	}

	if pl.scale != 1 {
		solid = k.Scale(solid, pl.scale)
	}
	rx, ry, rz := pl.frame.Euler()
	if rx != 0 || ry != 0 || rz != 0 {
		solid = k.Rotate(solid, degrees(rx), degrees(ry), degrees(rz))
	}
	p := pl.frame.Position
	if p.X != 0 || p.Y != 0 || p.Z != 0 {
		solid = k.Translate(solid, p.X, p.Y, p.Z)
	}

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("ToMesh failed for leaf %s: %w", o.Name, err)
	}
	mesh.PartID = pl.partID
	mesh.Leaf = o.Name
	if o.Material != nil {
		mesh.Material = o.Material.Name
		mesh.Color = o.Material.Color
		mesh.Opacity = o.Material.Opacity
	}
	return []*kernel.Mesh{mesh}, nil
}

// Solid converts a solid description into a kernel solid in the part
// frame, centimetres. It returns nil for a description with nothing to
// draw.
func Solid(k kernel.Kernel, s *shape.Solid) (kernel.Solid, error) {
	var out kernel.Solid
	switch s.Kind {
	case shape.SolidBox:
		if s.Size.X <= 0 || s.Size.Y <= 0 || s.Size.Z <= 0 {
			return nil, nil
		}
		out = k.Box(s.Size.X, s.Size.Y, s.Size.Z)

	case shape.SolidSphere:
		if s.Radius <= 0 {
			return nil, nil
		}
		out = k.Sphere(s.Radius)

	case shape.SolidExtrusion:
		if len(s.Outline) < 3 {
			return nil, nil
		}
		pts := make([][2]float64, len(s.Outline))
		for i, p := range s.Outline {
			pts[i] = [2]float64{p.X, p.Y}
		}
		e, err := k.Extrude(pts, s.Depth)
		if err != nil {
			return nil, err
		}
		switch s.Plane {
		case shape.Elevation:
			// (u, v, depth) -> (depth, u, v)
			out = k.Rotate(e, 90, 90, 0)
		default:
			// (u, v, depth) -> (-v, u, depth)
			out = k.Rotate(e, 0, 0, 90)
		}

	default:
		return nil, fmt.Errorf("unsupported solid kind %v", s.Kind)
	}

	if o := s.Offset; o.X != 0 || o.Y != 0 || o.Z != 0 {
		out = k.Translate(out, o.X, o.Y, o.Z)
	}
	return out, nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
