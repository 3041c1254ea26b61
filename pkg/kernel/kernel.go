// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx, manifold) provide solid modeling and
// boolean operations behind this interface. Backends register themselves
// by name so the process can choose one from configuration.
package kernel

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownBackend is returned by Open for an unregistered backend name.
var ErrUnknownBackend = errors.New("kernel: unknown backend")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
//
// Primitives are centred on the origin. Extrude takes a closed 2D outline in
// the XY plane and extrudes it symmetrically along Z.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64) Solid
	Extrude(outline [][2]float64, depth float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler XYZ in degrees, applied as Rx*Ry*Rz
	Scale(s Solid, f float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Factory constructs a kernel backend.
type Factory func() Kernel

var (
	mu       sync.RWMutex
	backends = map[string]Factory{}
)

// Register makes a backend available under name. It panics if name is
// registered twice.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := backends[name]; dup {
		panic("kernel: Register called twice for backend " + name)
	}
	backends[name] = f
}

// Backends returns the sorted names of registered backends.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open returns a new kernel of the named backend.
func Open(name string) (Kernel, error) {
	mu.RLock()
	f, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return f(), nil
}

// Select opens name, falling back to fallback when name is not available
// in this build. It reports which backend was opened.
func Select(name, fallback string) (Kernel, string, error) {
	if k, err := Open(name); err == nil {
		return k, name, nil
	}
	k, err := Open(fallback)
	if err != nil {
		return nil, "", err
	}
	return k, fallback, nil
}
