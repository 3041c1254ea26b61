// Package workspace owns the part instances of one model and applies
// multi-part edits (wall cuts, overlap resolution, cloning, packages) as
// single logical batches with undo.
package workspace

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/steelframe/pkg/assembly"
	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/decompose"
	"github.com/chazu/steelframe/pkg/logging"
	"github.com/chazu/steelframe/pkg/model"
	"github.com/chazu/steelframe/pkg/part"
	"github.com/chazu/steelframe/pkg/shape"
	"github.com/chazu/steelframe/pkg/space"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultUndoDepth is the number of snapshots kept by default.
const DefaultUndoDepth = 50

var (
	ErrPartNotFound    = errors.New("workspace: part not found")
	ErrPackageNotFound = errors.New("workspace: package not found")
	ErrPhaseNotFound   = errors.New("workspace: phase not found")
	ErrDuplicateID     = errors.New("workspace: duplicate part id")
	ErrNotOpening      = errors.New("workspace: part is not an opening")
	ErrNothingToUndo   = errors.New("workspace: nothing to undo")
)

// Workspace is safe for concurrent use; every exported method holds the
// workspace lock for its whole duration.
type Workspace struct {
	mu sync.Mutex

	reg          catalog.Lookup
	logger       *zap.Logger
	scene        space.Scene
	minPieceSize float64
	minOverlap   float64
	undoDepth    int
	parts        part.Config

	model     model.Model
	instances map[string]*part.Instance
	undo      []model.Model
	step      int
}

// Option configures a Workspace.
type Option func(*Workspace)

func WithLogger(l *zap.Logger) Option       { return func(w *Workspace) { w.logger = l } }
func WithScene(s space.Scene) Option        { return func(w *Workspace) { w.scene = s } }
func WithMinPieceSize(v float64) Option     { return func(w *Workspace) { w.minPieceSize = v } }
func WithMinOverlap(v float64) Option       { return func(w *Workspace) { w.minOverlap = v } }
func WithUndoDepth(n int) Option            { return func(w *Workspace) { w.undoDepth = n } }
func WithResources(r part.Resources) Option { return func(w *Workspace) { w.parts.Resources = r } }
func WithPalette(p *part.Palette) Option    { return func(w *Workspace) { w.parts.Palette = p } }

// New returns an empty workspace resolving profiles through reg.
func New(reg catalog.Lookup, opts ...Option) *Workspace {
	w := &Workspace{
		reg:          reg,
		scene:        space.DefaultScene(),
		minPieceSize: decompose.MinPieceSize,
		minOverlap:   decompose.MinOverlap,
		undoDepth:    DefaultUndoDepth,
		instances:    make(map[string]*part.Instance),
	}
	for _, o := range opts {
		o(w)
	}
	if w.scene.Scale <= 0 {
		w.scene = space.DefaultScene()
	}
	w.logger = logging.OrNop(w.logger).Named("workspace")
	w.parts.Registry = reg
	w.parts.Logger = w.logger
	w.parts.Builder = shape.NewBuilder(shape.WithLogger(w.logger), shape.WithMinPieceSize(w.minPieceSize))
	if w.parts.Resources == nil {
		w.parts.Resources = part.NewPool()
	}
	if w.parts.Palette == nil {
		w.parts.Palette = part.DefaultPalette()
	}
	return w
}

// Scene returns the local-to-world unit mapping.
func (w *Workspace) Scene() space.Scene { return w.scene }

// Palette returns the shared materials.
func (w *Workspace) Palette() *part.Palette { return w.parts.Palette }

// ----------------------------------------------------------------------------
// Loading and snapshots
// ----------------------------------------------------------------------------

// Load replaces the workspace contents with m, building every part. The
// undo history is cleared and every part starts solid.
func (w *Workspace) Load(m model.Model) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.undo = nil
	w.reload(m.Clone())
	w.step = w.model.MaxStep()
	w.applyStep()
	w.logger.Info("Model loaded",
		zap.Int("parts", len(w.instances)),
		zap.Int("phases", len(w.model.Phases)),
	)
}

func (w *Workspace) reload(m model.Model) {
	for _, in := range w.instances {
		in.Destroy()
	}
	w.instances = make(map[string]*part.Instance)
	w.model = m
	for _, p := range w.model.Parts() {
		w.attach(p)
	}
}

// attach builds an instance for p and shows it according to the current
// step.
func (w *Workspace) attach(p model.Part) *part.Instance {
	in := part.New(p, w.parts)
	// Build only fails on a destroyed instance.
	_ = in.Build()
	_ = in.SetGhost(p.Step > w.step)
	w.instances[p.ID] = in
	return in
}

func (w *Workspace) detach(id string) {
	if in, ok := w.instances[id]; ok {
		in.Destroy()
		delete(w.instances, id)
	}
}

// sync writes an instance's data descriptor back into the model tree.
func (w *Workspace) sync(in *part.Instance) {
	if p := w.model.FindPart(in.ID()); p != nil {
		*p = in.Data()
	}
}

// Model returns a deep copy of the current model.
func (w *Workspace) Model() model.Model {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model.Clone()
}

func (w *Workspace) snapshot() {
	w.undo = append(w.undo, w.model.Clone())
	if over := len(w.undo) - w.undoDepth; over > 0 {
		w.undo = w.undo[over:]
	}
}

func (w *Workspace) dropSnapshot() {
	if len(w.undo) > 0 {
		w.undo = w.undo[:len(w.undo)-1]
	}
}

// Undo restores the state before the last mutating operation.
func (w *Workspace) Undo() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.undo) == 0 {
		return ErrNothingToUndo
	}
	prev := w.undo[len(w.undo)-1]
	w.undo = w.undo[:len(w.undo)-1]
	w.reload(prev)
	w.applyStep()
	return nil
}

// UndoDepth returns the number of snapshots available.
func (w *Workspace) UndoDepth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.undo)
}

// ----------------------------------------------------------------------------
// Instances and frames
// ----------------------------------------------------------------------------

// Instance returns the live instance for id. Callers must not mutate it
// outside Edit.
func (w *Workspace) Instance(id string) (*part.Instance, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	in, ok := w.instances[id]
	return in, ok
}

// Len returns the number of live instances.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.instances)
}

func (w *Workspace) ordered() []*part.Instance {
	out := make([]*part.Instance, 0, len(w.instances))
	for _, p := range w.model.Parts() {
		if in, ok := w.instances[p.ID]; ok {
			out = append(out, in)
		}
	}
	return out
}

// Visit calls fn for every instance in model order with its world frame.
// fn runs under the workspace lock and must not call back into it.
func (w *Workspace) Visit(fn func(in *part.Instance, world space.Frame) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, in := range w.ordered() {
		if err := fn(in, w.worldFrame(in)); err != nil {
			return err
		}
	}
	return nil
}

// WorldFrame returns the part's frame composed with its package frame.
func (w *Workspace) WorldFrame(id string) (space.Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	in, ok := w.instances[id]
	if !ok {
		return space.Frame{}, fmt.Errorf("%w: %s", ErrPartNotFound, id)
	}
	return w.worldFrame(in), nil
}

// WorldBounds returns the part's world-space AABB.
func (w *Workspace) WorldBounds(id string) (space.Box, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	in, ok := w.instances[id]
	if !ok {
		return space.Box{}, fmt.Errorf("%w: %s", ErrPartNotFound, id)
	}
	return w.worldBounds(in), nil
}

func (w *Workspace) worldFrame(in *part.Instance) space.Frame {
	f := in.Frame()
	pkgID := in.Data().PackageID
	if pkgID == "" {
		return f
	}
	pkg := w.model.FindPackage(pkgID)
	if pkg == nil {
		return f
	}
	return space.Compose(packageFrame(pkg), f)
}

func (w *Workspace) worldBounds(in *part.Instance) space.Box {
	return w.scene.WorldBox(w.worldFrame(in), in.LocalBounds())
}

func packageFrame(pkg *model.Package) space.Frame {
	return space.NewFrame(r3.Vec{X: pkg.X, Y: pkg.Y, Z: pkg.Z}, pkg.RX, pkg.RY, pkg.RZ)
}

// ----------------------------------------------------------------------------
// Assembly steps
// ----------------------------------------------------------------------------

// SetStep shows parts installed at or before n as solid and ghosts the rest.
// It returns the number of solid parts.
func (w *Workspace) SetStep(n int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = max(n, 0)
	return w.applyStep()
}

// Step returns the current assembly step.
func (w *Workspace) Step() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Workspace) applyStep() (int, error) {
	return assembly.Apply(w.step, w.stepped())
}

func (w *Workspace) stepped() []assembly.Stepped {
	return lo.Map(w.ordered(), func(in *part.Instance, _ int) assembly.Stepped { return in })
}

// Timeline returns a timeline over the current parts, positioned at the
// current step.
func (w *Workspace) Timeline() *assembly.Timeline {
	w.mu.Lock()
	defer w.mu.Unlock()
	t := assembly.NewTimeline(assembly.EntriesOf(w.stepped()))
	t.Seek(w.step)
	return t
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}
