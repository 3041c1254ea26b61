package workspace

import (
	"fmt"
	"math"

	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/model"
	"github.com/chazu/steelframe/pkg/part"
	"go.uber.org/zap"
)

// Creation defaults, centimetres unless noted.
const (
	DefaultLength        = 300.0
	DefaultNotchedLength = 280.0
	DefaultStep          = 1

	// Clone offsets, scene units.
	CloneOffsetX        = 60.0
	CloneOffsetY        = 10.0
	PackageCloneOffsetX = 100.0
)

// upright reports whether a kind is modelled with its long axis vertical
// and therefore stood up on creation.
func upright(k catalog.Kind) bool {
	switch k {
	case catalog.KindBox, catalog.KindStud, catalog.KindOpening,
		catalog.KindNotchedPanel, catalog.KindGable:
		return true
	}
	return false
}

func (w *Workspace) applyDefaults(p *model.Part, def catalog.Profile) {
	if p.ID == "" {
		p.ID = newID(p.ProfileID)
	}
	if p.RX == 0 && p.RY == 0 && p.RZ == 0 && upright(def.Kind) {
		p.RX = -math.Pi / 2
	}
	if p.Length == nil && p.Height == nil && def.Kind != catalog.KindOpening {
		if def.Kind == catalog.KindNotchedPanel {
			p.Length = model.Dim(DefaultNotchedLength)
		} else {
			p.Length = model.Dim(DefaultLength)
		}
	}
	if p.Step == 0 {
		p.Step = DefaultStep
	}
}

// AddPart places a new part in the package packageID, or loose when
// packageID is empty. Missing fields get creation defaults.
func (w *Workspace) AddPart(packageID string, p model.Part) (model.Part, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	def, ok := w.lookup(p.ProfileID)
	if !ok {
		return model.Part{}, fmt.Errorf("workspace: add %q: %w", p.ProfileID, catalog.ErrProfileNotFound)
	}
	p = p.Clone()
	w.applyDefaults(&p, def)
	if _, dup := w.instances[p.ID]; dup {
		return model.Part{}, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}

	var pkg *model.Package
	if packageID != "" {
		if pkg = w.model.FindPackage(packageID); pkg == nil {
			return model.Part{}, fmt.Errorf("%w: %s", ErrPackageNotFound, packageID)
		}
	}

	w.snapshot()
	p.PackageID = packageID
	w.insert(pkg, p)
	w.logger.Debug("Part added", zap.String("part_id", p.ID), zap.String("profile_id", p.ProfileID))
	return p.Clone(), nil
}

func (w *Workspace) lookup(id string) (catalog.Profile, bool) {
	if w.reg == nil {
		return catalog.Profile{}, false
	}
	return w.reg.Lookup(id)
}

// insert appends p to pkg (or the loose list when pkg is nil) and builds it.
func (w *Workspace) insert(pkg *model.Package, p model.Part) *part.Instance {
	if pkg != nil {
		pkg.Parts = append(pkg.Parts, p)
	} else {
		w.model.LooseParts = append(w.model.LooseParts, p)
	}
	return w.attach(p)
}

// DeletePart removes a part and releases its geometry.
func (w *Workspace) DeletePart(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.instances[id]; !ok {
		return fmt.Errorf("%w: %s", ErrPartNotFound, id)
	}
	w.snapshot()
	w.detach(id)
	w.model.RemovePart(id)
	return nil
}

// Edit runs fn against the live instance. When fn fails the part is
// restored to its state before the edit and no undo entry is kept.
func (w *Workspace) Edit(id string, fn func(in *part.Instance) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	in, ok := w.instances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPartNotFound, id)
	}

	before := in.Data()
	w.snapshot()
	if err := fn(in); err != nil {
		w.dropSnapshot()
		w.detach(id)
		w.attach(before)
		return err
	}
	w.sync(in)
	_ = in.SetGhost(in.Step() > w.step)
	return nil
}

// cloneOffset returns the scene-unit displacement applied per copy.
func cloneOffset(k catalog.Kind) (dx, dy float64) {
	switch k {
	case catalog.KindStud:
		return CloneOffsetX, 0
	case catalog.KindTrack:
		return 0, 0
	default:
		return CloneOffsetX, CloneOffsetY
	}
}

// ClonePart makes qty copies of a part in the same package. Copy i is
// installed at step+i and displaced by i times the kind's clone offset.
func (w *Workspace) ClonePart(id string, qty int) ([]model.Part, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	src, ok := w.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, id)
	}
	if qty < 1 {
		qty = 1
	}

	data := src.Data()
	var pkg *model.Package
	if data.PackageID != "" {
		pkg = w.model.FindPackage(data.PackageID)
	}
	dx, dy := cloneOffset(src.Kind())

	w.snapshot()
	out := make([]model.Part, 0, qty)
	for i := 1; i <= qty; i++ {
		c := data.Clone()
		c.ID = newID(c.ProfileID)
		c.Step = data.Step + i
		c.X += dx * float64(i)
		c.Y += dy * float64(i)
		w.insert(pkg, c)
		out = append(out, c.Clone())
	}
	return out, nil
}

// AddPhase appends an empty phase.
func (w *Workspace) AddPhase(name string) model.Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshot()
	return w.addPhase(name)
}

func (w *Workspace) addPhase(name string) model.Phase {
	if name == "" {
		name = fmt.Sprintf("Phase %d", len(w.model.Phases)+1)
	}
	ph := model.Phase{ID: newID("phase"), Name: name}
	w.model.Phases = append(w.model.Phases, ph)
	return ph
}

// PackageParams describes a package of identical parts laid out in a row.
type PackageParams struct {
	Name      string  `json:"name"`
	ProfileID string  `json:"profileId"`
	Length    float64 `json:"length"`
	Qty       int     `json:"qty"`
	Spacing   float64 `json:"spacing"` // centimetres between parts
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Step      int     `json:"step"`
}

func (p PackageParams) withDefaults() PackageParams {
	if p.ProfileID == "" {
		p.ProfileID = "C90"
	}
	if p.Length <= 0 {
		p.Length = DefaultLength
	}
	if p.Qty < 1 {
		p.Qty = 1
	}
	if p.Spacing <= 0 {
		p.Spacing = 60
	}
	if p.Step == 0 {
		p.Step = DefaultStep
	}
	return p
}

// CreatePackage adds a package of Qty parts to phaseID. An empty phaseID
// uses the first phase, creating one when the model has none.
func (w *Workspace) CreatePackage(phaseID string, params PackageParams) (model.Package, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	params = params.withDefaults()
	def, ok := w.lookup(params.ProfileID)
	if !ok {
		return model.Package{}, fmt.Errorf("workspace: package profile %q: %w", params.ProfileID, catalog.ErrProfileNotFound)
	}
	if phaseID != "" && w.model.FindPhase(phaseID) == nil {
		return model.Package{}, fmt.Errorf("%w: %s", ErrPhaseNotFound, phaseID)
	}

	w.snapshot()
	if phaseID == "" {
		if len(w.model.Phases) == 0 {
			w.addPhase("")
		}
		phaseID = w.model.Phases[0].ID
	}
	ph := w.model.FindPhase(phaseID)

	pkg := model.Package{
		ID:   newID("pkg"),
		Name: params.Name,
		X:    params.X, Y: params.Y, Z: params.Z,
		Step: params.Step,
	}
	if pkg.Name == "" {
		pkg.Name = fmt.Sprintf("%s x%d", params.ProfileID, params.Qty)
	}
	ph.Packages = append(ph.Packages, pkg)
	target := &ph.Packages[len(ph.Packages)-1]

	spacing := params.Spacing * w.scene.Scale
	for i := 0; i < params.Qty; i++ {
		p := model.Part{
			ProfileID: params.ProfileID,
			Length:    model.Dim(params.Length),
			X:         spacing * float64(i),
			Step:      params.Step,
			PackageID: pkg.ID,
		}
		w.applyDefaults(&p, def)
		w.insert(target, p)
	}
	return target.Clone(), nil
}

// ClonePackage duplicates a package into the same phase with new ids,
// shifted along X.
func (w *Workspace) ClonePackage(id string) (model.Package, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ph *model.Phase
	var src model.Package
	for i := range w.model.Phases {
		for _, pkg := range w.model.Phases[i].Packages {
			if pkg.ID == id {
				ph, src = &w.model.Phases[i], pkg.Clone()
			}
		}
	}
	if ph == nil {
		return model.Package{}, fmt.Errorf("%w: %s", ErrPackageNotFound, id)
	}

	w.snapshot()
	dup := src
	dup.ID = newID("pkg")
	dup.Name = src.Name + " (copy)"
	dup.X += PackageCloneOffsetX
	dup.Parts = nil
	ph.Packages = append(ph.Packages, dup)
	target := &ph.Packages[len(ph.Packages)-1]

	for _, p := range src.Parts {
		p.ID = newID(p.ProfileID)
		p.PackageID = dup.ID
		w.insert(target, p)
	}
	return target.Clone(), nil
}
