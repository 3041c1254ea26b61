// Package part binds a part's data descriptor to its generated geometry.
// An Instance owns rebuild-on-change, resource disposal and the ghost
// material layer. It is not safe for concurrent use; the workspace
// serialises access.
package part

import (
	"errors"
	"fmt"

	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/decompose"
	"github.com/chazu/steelframe/pkg/logging"
	"github.com/chazu/steelframe/pkg/metrics"
	"github.com/chazu/steelframe/pkg/model"
	"github.com/chazu/steelframe/pkg/shape"
	"github.com/chazu/steelframe/pkg/space"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrDestroyed        = errors.New("part: instance destroyed")
	ErrNotCuttable      = errors.New("part: profile does not accept cuts")
	ErrInvalidDimension = errors.New("part: dimension must be positive")
)

// State is the lifecycle state of an Instance.
type State int

const (
	StateUninitialized State = iota
	StateBuilt
	StateDirty
	StateRebuilding
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBuilt:
		return "built"
	case StateDirty:
		return "dirty"
	case StateRebuilding:
		return "rebuilding"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Object is one node of an instance's attached geometry. Leaves carry a
// solid, a material and a resource handle; groups carry children.
type Object struct {
	Name     string
	Solid    *shape.Solid
	Material *Material
	Handle   Handle
	Children []*Object
}

// IsLeaf reports whether the object is drawable.
func (o *Object) IsLeaf() bool {
	return o.Solid != nil
}

// Leaves returns every drawable object under o in depth-first order.
func (o *Object) Leaves() []*Object {
	if o == nil {
		return nil
	}
	if o.IsLeaf() {
		return []*Object{o}
	}
	var out []*Object
	for _, c := range o.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// Find returns the first object named name, or nil.
func (o *Object) Find(name string) *Object {
	if o == nil {
		return nil
	}
	if o.Name == name {
		return o
	}
	for _, c := range o.Children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// Config carries the collaborators shared by all instances of a workspace.
type Config struct {
	Registry  catalog.Lookup
	Builder   *shape.Builder
	Resources Resources
	Palette   *Palette
	Logger    *zap.Logger
}

// Instance is one placed, dimensioned occurrence of a profile together
// with its current geometry.
type Instance struct {
	data    model.Part
	reg     catalog.Lookup
	builder *shape.Builder
	res     Resources
	palette *Palette
	logger  *zap.Logger

	state      State
	shape      *shape.Node
	inputs     shape.Inputs
	root       *Object
	ghost      bool
	remembered map[*Object]*Material
	builds     int
}

// New returns an uninitialized instance for p. Call Build before reading
// geometry.
func New(p model.Part, cfg Config) *Instance {
	if cfg.Builder == nil {
		cfg.Builder = shape.NewBuilder(shape.WithLogger(cfg.Logger))
	}
	if cfg.Resources == nil {
		cfg.Resources = NewPool()
	}
	if cfg.Palette == nil {
		cfg.Palette = DefaultPalette()
	}
	return &Instance{
		data:    p.Clone(),
		reg:     cfg.Registry,
		builder: cfg.Builder,
		res:     cfg.Resources,
		palette: cfg.Palette,
		logger:  logging.OrNop(cfg.Logger),
	}
}

// ----------------------------------------------------------------------------
// Accessors
// ----------------------------------------------------------------------------

func (in *Instance) ID() string         { return in.data.ID }
func (in *Instance) Step() int          { return in.data.Step }
func (in *Instance) State() State       { return in.state }
func (in *Instance) Ghost() bool        { return in.ghost }
func (in *Instance) Root() *Object      { return in.root }
func (in *Instance) Shape() *shape.Node { return in.shape }

// Builds returns how many times geometry has been built.
func (in *Instance) Builds() int { return in.builds }

// Inputs returns the dimensions resolved by the last build.
func (in *Instance) Inputs() shape.Inputs { return in.inputs }

// Data returns a copy of the data descriptor.
func (in *Instance) Data() model.Part { return in.data.Clone() }

// Profile looks up the instance's profile.
func (in *Instance) Profile() (catalog.Profile, bool) {
	if in.reg == nil {
		return catalog.Profile{}, false
	}
	return in.reg.Lookup(in.data.ProfileID)
}

// Kind returns the profile kind, or KindUnknown for an unresolved profile.
func (in *Instance) Kind() catalog.Kind {
	def, ok := in.Profile()
	if !ok {
		return catalog.KindUnknown
	}
	return def.Kind
}

// Frame returns the instance transform in its parent frame.
func (in *Instance) Frame() space.Frame {
	return space.NewFrame(r3.Vec{X: in.data.X, Y: in.data.Y, Z: in.data.Z}, in.data.RX, in.data.RY, in.data.RZ)
}

// LocalBounds returns the geometry's bounding box in the part frame, in
// centimetres.
func (in *Instance) LocalBounds() space.Box {
	if in.shape == nil {
		return space.EmptyBox()
	}
	return in.shape.Bounds()
}

// Leaves returns the drawable objects of the current geometry.
func (in *Instance) Leaves() []*Object {
	return in.root.Leaves()
}

// ----------------------------------------------------------------------------
// Build
// ----------------------------------------------------------------------------

// Build discards the current geometry and regenerates it from the data
// descriptor. An unknown profile yields an empty root and a data-integrity
// warning.
func (in *Instance) Build() error {
	if in.state == StateDestroyed {
		return ErrDestroyed
	}
	if in.state != StateUninitialized {
		in.state = StateRebuilding
	}
	in.release()

	def, ok := in.Profile()
	if !ok {
		logging.LogDataIntegrity(in.logger, "part", "unknown_profile",
			zap.String("part_id", in.data.ID),
			zap.String("profile_id", in.data.ProfileID),
		)
		metrics.RecordDataIntegrity("unknown_profile")
		in.inputs = shape.Inputs{}
		in.shape = &shape.Node{Name: in.data.ProfileID}
	} else {
		in.inputs = shape.Resolve(def, in.data)
		in.shape = in.builder.Build(def, in.inputs)
	}

	in.root = in.attach(in.shape)
	if in.ghost {
		// Leaves built while ghosted have no remembered material, so leaving
		// ghost mode triggers another full build.
		for _, l := range in.root.Leaves() {
			l.Material = in.palette.Ghost
		}
	}
	in.builds++
	in.state = StateBuilt
	return nil
}

func (in *Instance) attach(n *shape.Node) *Object {
	o := &Object{Name: n.Name}
	if n.IsLeaf() {
		s := *n.Solid
		o.Solid = &s
		o.Material = in.palette.For(s.Role)
		o.Handle = in.res.Allocate(in.data.ID + "/" + n.Name)
		return o
	}
	for _, c := range n.Children {
		o.Children = append(o.Children, in.attach(c))
	}
	return o
}

func (in *Instance) release() {
	for _, l := range in.root.Leaves() {
		in.res.Release(l.Handle)
	}
	in.root = nil
	in.remembered = nil
}

// Destroy releases all resources. Destroying twice is a no-op.
func (in *Instance) Destroy() {
	if in.state == StateDestroyed {
		return
	}
	in.release()
	in.shape = nil
	in.state = StateDestroyed
}

// ----------------------------------------------------------------------------
// Geometry setters
// ----------------------------------------------------------------------------

func (in *Instance) rebuildWith(mutate func(p *model.Part)) error {
	if in.state == StateDestroyed {
		return ErrDestroyed
	}
	mutate(&in.data)
	in.state = StateDirty
	return in.Build()
}

func (in *Instance) setDim(field **float64, v float64) error {
	if v <= 0 {
		return fmt.Errorf("part: %s: %w", in.data.ID, ErrInvalidDimension)
	}
	return in.rebuildWith(func(*model.Part) { *field = model.Dim(v) })
}

func (in *Instance) SetLength(v float64) error    { return in.setDim(&in.data.Length, v) }
func (in *Instance) SetWidth(v float64) error     { return in.setDim(&in.data.Width, v) }
func (in *Instance) SetHeight(v float64) error    { return in.setDim(&in.data.Height, v) }
func (in *Instance) SetThickness(v float64) error { return in.setDim(&in.data.Thickness, v) }

// SetSlope sets the gable slope as a percentage of rise over run. Zero is
// allowed.
func (in *Instance) SetSlope(v float64) error {
	if v < 0 {
		return fmt.Errorf("part: %s: slope: %w", in.data.ID, ErrInvalidDimension)
	}
	return in.rebuildWith(func(p *model.Part) { p.Slope = model.Dim(v) })
}

func (in *Instance) SetCutType(s string) error {
	return in.rebuildWith(func(p *model.Part) { p.CutType = s })
}

func (in *Instance) SetProfile(id string) error {
	return in.rebuildWith(func(p *model.Part) { p.ProfileID = id })
}

// ClearCuts removes every declared cut.
func (in *Instance) ClearCuts() error {
	return in.rebuildWith(func(p *model.Part) { p.Cuts = nil })
}

// AddCut clamps c to the wall's [0,width]x[0,height] rectangle and appends
// it. A cut that is degenerate after clamping is rejected and leaves the
// cut list and geometry untouched. Only the first cut is rendered.
func (in *Instance) AddCut(c model.Cut) (model.Cut, error) {
	if in.state == StateDestroyed {
		return model.Cut{}, ErrDestroyed
	}
	def, ok := in.Profile()
	if !ok || def.Kind != catalog.KindBox {
		metrics.RecordCut("declared", "rejected")
		return model.Cut{}, fmt.Errorf("part: %s: %w", in.data.ID, ErrNotCuttable)
	}
	dims := shape.Resolve(def, in.data)
	r, err := decompose.Clamp(decompose.Rect{
		MinY: c.StartY, MaxY: c.EndY,
		MinZ: c.StartZ, MaxZ: c.EndZ,
	}, dims.Width, dims.Length)
	if err != nil {
		metrics.RecordCut("declared", "rejected")
		return model.Cut{}, fmt.Errorf("part: %s: %w", in.data.ID, err)
	}
	clamped := model.Cut{StartY: r.MinY, EndY: r.MaxY, StartZ: r.MinZ, EndZ: r.MaxZ}
	if err := in.rebuildWith(func(p *model.Part) { p.Cuts = append(p.Cuts, clamped) }); err != nil {
		return model.Cut{}, err
	}
	metrics.RecordCut("declared", "applied")
	return clamped, nil
}

// ----------------------------------------------------------------------------
// Transform setters (never rebuild)
// ----------------------------------------------------------------------------

func (in *Instance) SetPosition(x, y, z float64) error {
	if in.state == StateDestroyed {
		return ErrDestroyed
	}
	in.data.X, in.data.Y, in.data.Z = x, y, z
	return nil
}

func (in *Instance) SetRotation(rx, ry, rz float64) error {
	if in.state == StateDestroyed {
		return ErrDestroyed
	}
	in.data.RX, in.data.RY, in.data.RZ = rx, ry, rz
	return nil
}

func (in *Instance) SetStep(n int) error {
	if in.state == StateDestroyed {
		return ErrDestroyed
	}
	if n < 0 {
		n = 0
	}
	in.data.Step = n
	return nil
}

// ----------------------------------------------------------------------------
// Ghost layer
// ----------------------------------------------------------------------------

// SetGhost toggles the translucent "not yet installed" material. Entering
// remembers every leaf's material; leaving restores them exactly, or
// rebuilds when some leaf has nothing remembered.
func (in *Instance) SetGhost(on bool) error {
	if in.state == StateDestroyed {
		return ErrDestroyed
	}
	if on == in.ghost {
		return nil
	}
	leaves := in.root.Leaves()
	if on {
		in.remembered = make(map[*Object]*Material, len(leaves))
		for _, l := range leaves {
			in.remembered[l] = l.Material
			l.Material = in.palette.Ghost
		}
		in.ghost = true
		return nil
	}

	in.ghost = false
	for _, l := range leaves {
		if _, ok := in.remembered[l]; !ok {
			return in.Build()
		}
	}
	for _, l := range leaves {
		l.Material = in.remembered[l]
	}
	in.remembered = nil
	return nil
}
