package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chazu/steelframe/pkg/assembly"
	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/config"
	"github.com/chazu/steelframe/pkg/engine"
	"github.com/chazu/steelframe/pkg/kernel"
	_ "github.com/chazu/steelframe/pkg/kernel/manifold"
	"github.com/chazu/steelframe/pkg/kernel/sdfx"
	"github.com/chazu/steelframe/pkg/logging"
	"github.com/chazu/steelframe/pkg/model"
	"github.com/chazu/steelframe/pkg/space"
	"github.com/chazu/steelframe/pkg/store"
	"github.com/chazu/steelframe/pkg/tessellate"
	"github.com/chazu/steelframe/pkg/workspace"
)

var (
	// ErrNoModelOpen is returned by Save when the workspace was not opened
	// from a stored record.
	ErrNoModelOpen  = errors.New("app: no stored model is open")
	ErrInvalidModel = errors.New("app: model failed validation")
)

// App is the HTTP backend: one shared workspace, the DSL engine, the
// persistence collaborator and a geometry kernel for meshes.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	reg        *catalog.Registry
	store      store.Store
	engine     *engine.Engine
	kernel     kernel.Kernel
	kernelName string
	ws         *workspace.Workspace

	mu      sync.Mutex
	current *model.Record
}

// Deps are the collaborators of an App. Zero fields get defaults.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *catalog.Registry
	Store    store.Store
	Kernel   kernel.Kernel
}

// MeshData is the JSON-serializable mesh format sent to the renderer.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartID   string    `json:"partId"`
	Leaf     string    `json:"leaf"`
	Material string    `json:"material"`
	Color    string    `json:"color"`
	Opacity  float64   `json:"opacity"`
}

// EvalResult is the full result of evaluating DSL source.
type EvalResult struct {
	Model    *model.Model         `json:"model,omitempty"`
	Meshes   []MeshData           `json:"meshes"`
	Errors   []engine.EvalError   `json:"errors"`
	Warnings []engine.EvalWarning `json:"warnings"`
}

// TimelineView describes the assembly step slider.
type TimelineView struct {
	Current  int      `json:"current"`
	Max      int      `json:"max"`
	Steps    []int    `json:"steps"`
	Label    string   `json:"label"`
	Progress int      `json:"progress"`
	Parts    []string `json:"parts"`
}

// WorkspaceView is the editor state returned by workspace routes.
type WorkspaceView struct {
	RecordID  string       `json:"recordId,omitempty"`
	Name      string       `json:"name,omitempty"`
	Model     model.Model  `json:"model"`
	Timeline  TimelineView `json:"timeline"`
	UndoDepth int          `json:"undoDepth"`
}

// NewApp wires an App from deps.
func NewApp(d Deps) (*App, error) {
	if d.Config == nil {
		d.Config = config.Default()
	}
	logger := logging.OrNop(d.Logger)
	if d.Registry == nil {
		d.Registry = catalog.Default()
	}
	if d.Store == nil {
		d.Store = store.NewMemory()
	}

	kernelName := "custom"
	if d.Kernel == nil {
		k, name, err := openKernel(d.Config.Kernel)
		if err != nil {
			return nil, err
		}
		if name != d.Config.Kernel.Backend {
			logger.Warn("Kernel backend unavailable, using fallback",
				zap.String("requested", d.Config.Kernel.Backend),
				zap.String("backend", name))
		}
		d.Kernel, kernelName = k, name
	}

	sc := d.Config.Scene
	a := &App{
		cfg:        d.Config,
		logger:     logger,
		reg:        d.Registry,
		store:      d.Store,
		kernel:     d.Kernel,
		kernelName: kernelName,
		engine:     engine.NewEngine(engine.WithRegistry(d.Registry), engine.WithLogger(logger)),
		ws: workspace.New(d.Registry,
			workspace.WithLogger(logger),
			workspace.WithScene(space.Scene{Scale: sc.Scale}),
			workspace.WithMinPieceSize(sc.MinPieceSize),
			workspace.WithMinOverlap(sc.MinOverlap),
			workspace.WithUndoDepth(sc.UndoDepth),
		),
	}
	return a, nil
}

// openKernel selects the configured backend, falling back to sdfx.
func openKernel(kc config.KernelConfig) (kernel.Kernel, string, error) {
	k, name, err := kernel.Select(kc.Backend, sdfx.Name)
	if err != nil {
		return nil, "", err
	}
	if name == sdfx.Name {
		k = sdfx.New(sdfx.WithMeshCells(kc.MeshCells))
	}
	return k, name, nil
}

// Workspace exposes the shared workspace.
func (a *App) Workspace() *workspace.Workspace { return a.ws }

// Evaluate takes DSL source, loads the resulting model into the workspace
// and returns its meshes. Evaluation errors leave the workspace untouched.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []engine.EvalError{},
		Warnings: []engine.EvalWarning{},
	}

	res, err := a.engine.Run(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		result.Errors = append(result.Errors, engine.EvalError{Message: err.Error()})
		return result
	}
	result.Warnings = append(result.Warnings, res.Warnings...)
	if len(res.Errors) > 0 {
		result.Errors = append(result.Errors, res.Errors...)
		return result
	}

	a.mu.Lock()
	a.current = nil
	a.mu.Unlock()
	a.ws.Load(*res.Model)
	result.Model = res.Model

	meshes, err := a.Meshes()
	if err != nil {
		a.logger.Error("Tessellation failed", zap.Error(err))
		result.Errors = append(result.Errors, engine.EvalError{Message: "tessellation failed: " + err.Error()})
		return result
	}
	result.Meshes = meshes
	return result
}

// Meshes tessellates the workspace.
func (a *App) Meshes() ([]MeshData, error) {
	started := time.Now()
	meshes, err := tessellate.Workspace(a.ws, a.kernel)
	if err != nil {
		return nil, err
	}
	out := make([]MeshData, 0, len(meshes))
	for _, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartID:   m.PartID,
			Leaf:     m.Leaf,
			Material: m.Material,
			Color:    m.Color,
			Opacity:  m.Opacity,
		})
	}
	a.logger.Debug("Tessellated workspace",
		zap.Int("meshes", len(out)),
		zap.Duration("took", time.Since(started)))
	return out, nil
}

// Open loads a stored record into the workspace.
func (a *App) Open(ctx context.Context, id string) (model.Record, error) {
	rec, err := a.store.Load(ctx, id)
	if err != nil {
		return model.Record{}, err
	}
	if vr := model.Validate(&rec.Data, a.reg); !vr.OK() {
		return model.Record{}, fmt.Errorf("%w: %s: %v", ErrInvalidModel, id, vr.Errors[0])
	}
	a.ws.Load(rec.Data)

	a.mu.Lock()
	a.current = &rec
	a.mu.Unlock()
	a.logger.Info("Opened model", zap.String("id", rec.ID), zap.String("type", string(rec.Type)))
	return rec, nil
}

// Save writes the workspace model back to the open record, updating its
// progress from the assembly timeline.
func (a *App) Save(ctx context.Context) (model.Record, error) {
	a.mu.Lock()
	if a.current == nil {
		a.mu.Unlock()
		return model.Record{}, ErrNoModelOpen
	}
	rec := *a.current
	a.mu.Unlock()

	rec.Data = a.ws.Model()
	rec.Progress = a.ws.Timeline().Progress()
	if err := a.store.Save(ctx, rec); err != nil {
		return model.Record{}, err
	}

	a.mu.Lock()
	a.current = &rec
	a.mu.Unlock()
	return rec, nil
}

// View snapshots the workspace for the editor.
func (a *App) View() WorkspaceView {
	v := WorkspaceView{
		Model:     a.ws.Model(),
		Timeline:  timelineView(a.ws.Timeline()),
		UndoDepth: a.ws.UndoDepth(),
	}
	a.mu.Lock()
	if a.current != nil {
		v.RecordID, v.Name = a.current.ID, a.current.Name
	}
	a.mu.Unlock()
	return v
}

func timelineView(t *assembly.Timeline) TimelineView {
	parts := t.AtCurrent()
	if parts == nil {
		parts = []string{}
	}
	return TimelineView{
		Current:  t.Current(),
		Max:      t.Max(),
		Steps:    t.Steps(),
		Label:    t.Label(),
		Progress: t.Progress(),
		Parts:    parts,
	}
}
