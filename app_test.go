package main

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/chazu/steelframe/pkg/config"
	"github.com/chazu/steelframe/pkg/kernel"
	"github.com/chazu/steelframe/pkg/kernel/sdfx"
	"github.com/chazu/steelframe/pkg/model"
	"github.com/chazu/steelframe/pkg/store"
)

// boxKernel treats every solid as its axis-aligned bounding box. It keeps
// the app tests independent of mesh resolution.
type boxKernel struct{}

type aabb struct{ min, max [3]float64 }

func (b aabb) BoundingBox() (min, max [3]float64) { return b.min, b.max }

func centred(x, y, z float64) aabb {
	return aabb{min: [3]float64{-x / 2, -y / 2, -z / 2}, max: [3]float64{x / 2, y / 2, z / 2}}
}

func (boxKernel) Box(x, y, z float64) kernel.Solid            { return centred(x, y, z) }
func (boxKernel) Cylinder(h, r float64, _ int) kernel.Solid   { return centred(2*r, 2*r, h) }
func (boxKernel) Sphere(r float64) kernel.Solid               { return centred(2*r, 2*r, 2*r) }
func (boxKernel) Difference(a, _ kernel.Solid) kernel.Solid   { return a }
func (boxKernel) Intersection(a, _ kernel.Solid) kernel.Solid { return a }

func (boxKernel) Union(a, b kernel.Solid) kernel.Solid {
	x, y := a.(aabb), b.(aabb)
	for i := 0; i < 3; i++ {
		x.min[i] = math.Min(x.min[i], y.min[i])
		x.max[i] = math.Max(x.max[i], y.max[i])
	}
	return x
}

func (boxKernel) Extrude(outline [][2]float64, depth float64) (kernel.Solid, error) {
	b := aabb{
		min: [3]float64{math.Inf(1), math.Inf(1), -depth / 2},
		max: [3]float64{math.Inf(-1), math.Inf(-1), depth / 2},
	}
	for _, p := range outline {
		b.min[0], b.max[0] = math.Min(b.min[0], p[0]), math.Max(b.max[0], p[0])
		b.min[1], b.max[1] = math.Min(b.min[1], p[1]), math.Max(b.max[1], p[1])
	}
	return b, nil
}

func (boxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	b := s.(aabb)
	d := [3]float64{x, y, z}
	for i := range d {
		b.min[i] += d[i]
		b.max[i] += d[i]
	}
	return b
}

func (boxKernel) Scale(s kernel.Solid, f float64) kernel.Solid {
	b := s.(aabb)
	for i := 0; i < 3; i++ {
		b.min[i] *= f
		b.max[i] *= f
	}
	return b
}

// Rotate is only exact for quarter turns, which is all the fixtures use.
func (boxKernel) Rotate(s kernel.Solid, _, _, _ float64) kernel.Solid { return s }

func (boxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	b := s.(aabb)
	m := &kernel.Mesh{}
	for _, x := range []float64{b.min[0], b.max[0]} {
		for _, y := range []float64{b.min[1], b.max[1]} {
			for _, z := range []float64{b.min[2], b.max[2]} {
				m.Vertices = append(m.Vertices, float32(x), float32(y), float32(z))
				m.Normals = append(m.Normals, 0, 0, 1)
			}
		}
	}
	m.Indices = []uint32{0, 1, 2, 1, 3, 2, 4, 6, 5, 5, 6, 7}
	return m, nil
}

// newTestApp returns an App over a memory store and the box kernel.
func newTestApp(t *testing.T, recs ...model.Record) *App {
	t.Helper()
	a, err := NewApp(Deps{Store: store.NewMemory(recs...), Kernel: boxKernel{}})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return a
}

// TestE2EWallExample exercises the full pipeline: DSL source -> engine ->
// workspace -> tessellate -> meshes.
func TestE2EWallExample(t *testing.T) {
	app := newTestApp(t)

	source, err := os.ReadFile("examples/wall.sf")
	if err != nil {
		t.Fatalf("failed to read wall.sf: %v", err)
	}

	result := app.Evaluate(string(source))

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if result.Model == nil {
		t.Fatal("expected a model")
	}

	expectedParts := map[string]bool{
		"guia_inf": false,
		"m1":       false,
		"m2":       false,
		"m3":       false,
		"wall_1":   false,
		"door_1":   false,
	}

	for _, m := range result.Meshes {
		if _, ok := expectedParts[m.PartID]; !ok {
			t.Errorf("unexpected part id: %q", m.PartID)
			continue
		}
		expectedParts[m.PartID] = true

		if len(m.Vertices) == 0 {
			t.Errorf("part %q leaf %q: no vertices", m.PartID, m.Leaf)
		}
		if len(m.Indices) == 0 {
			t.Errorf("part %q leaf %q: no indices", m.PartID, m.Leaf)
		}
		if m.Color == "" {
			t.Errorf("part %q leaf %q: no color assigned", m.PartID, m.Leaf)
		}
		if m.Material == "ghost" {
			t.Errorf("part %q: freshly evaluated models start solid", m.PartID)
		}
	}

	for id, found := range expectedParts {
		if !found {
			t.Errorf("missing mesh for part %q", id)
		}
	}

	view := app.View()
	if view.Timeline.Max != 4 {
		t.Errorf("expected max step 4, got %d", view.Timeline.Max)
	}
	if view.Timeline.Current != 4 {
		t.Errorf("expected timeline at step 4, got %d", view.Timeline.Current)
	}
	if view.RecordID != "" {
		t.Errorf("evaluated source is not bound to a record, got %q", view.RecordID)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`(loose (part "w"`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2ESingleWall ensures a minimal single-wall source renders one mesh.
func TestE2ESingleWall(t *testing.T) {
	app := newTestApp(t)
	source := `(loose (part "w1" :profile "WALL_GENERIC" :width 100 :length 280))`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].PartID != "w1" {
		t.Errorf("expected part id 'w1', got %q", result.Meshes[0].PartID)
	}
}

// TestE2ESdfxWall runs one wall through the real sdfx backend.
func TestE2ESdfxWall(t *testing.T) {
	a, err := NewApp(Deps{Kernel: sdfx.New(sdfx.WithMeshCells(32))})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	result := a.Evaluate(`(loose (part "w1" :profile "WALL_GENERIC" :width 100 :length 280 :rot (vec3 -90 0 0)))`)
	if len(result.Errors) > 0 {
		t.Fatalf("eval errors: %v", result.Errors)
	}
	if len(result.Meshes) != 1 || len(result.Meshes[0].Vertices) == 0 {
		t.Fatalf("expected one non-empty mesh, got %d", len(result.Meshes))
	}
}

// TestNewAppDefaults wires every collaborator from the default config.
func TestNewAppDefaults(t *testing.T) {
	a, err := NewApp(Deps{})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if a.kernelName != sdfx.Name {
		t.Errorf("expected kernel %q, got %q", sdfx.Name, a.kernelName)
	}

	cfg := config.Default()
	cfg.Kernel.Backend = "does-not-exist"
	a, err = NewApp(Deps{Config: cfg})
	if err != nil {
		t.Fatalf("NewApp with unknown backend: %v", err)
	}
	if a.kernelName != sdfx.Name {
		t.Errorf("unknown backends fall back to sdfx, got %q", a.kernelName)
	}
}

// TestOpenEditSave covers the template -> project -> edit -> save loop.
func TestOpenEditSave(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, store.DemoTemplate())

	if _, err := app.Save(ctx); err != ErrNoModelOpen {
		t.Fatalf("expected ErrNoModelOpen before open, got %v", err)
	}

	proj, err := store.CreateProjectFromTemplate(ctx, app.store, store.DemoTemplateID, "Obra 1")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := app.Open(ctx, proj.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if app.View().Name != "Obra 1" {
		t.Errorf("expected view name 'Obra 1', got %q", app.View().Name)
	}

	if err := app.Workspace().DeletePart("guia_sup"); err != nil {
		t.Fatalf("delete part: %v", err)
	}
	if _, err := app.Workspace().SetStep(2); err != nil {
		t.Fatalf("set step: %v", err)
	}

	saved, err := app.Save(ctx)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(saved.Data.Parts()) != 5 {
		t.Errorf("expected 5 parts after delete, got %d", len(saved.Data.Parts()))
	}
	if saved.Progress != 100 {
		t.Errorf("expected progress 100 at the last remaining step, got %d", saved.Progress)
	}

	tmpl, err := app.store.Load(ctx, store.DemoTemplateID)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if len(tmpl.Data.Parts()) != 6 {
		t.Errorf("editing a project must not touch its template, got %d parts", len(tmpl.Data.Parts()))
	}
}

func TestOpenMissing(t *testing.T) {
	app := newTestApp(t)
	if _, err := app.Open(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error opening a missing record")
	}
}
