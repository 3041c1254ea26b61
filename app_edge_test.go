package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/steelframe/pkg/model"
	"github.com/chazu/steelframe/pkg/store"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type testServer struct {
	t   *testing.T
	app *App
	srv *fiber.App
}

func newTestServer(t *testing.T, recs ...model.Record) *testServer {
	a := newTestApp(t, recs...)
	return &testServer{t: t, app: a, srv: NewServer(a)}
}

// do sends a request with an optional JSON body and decodes the response
// into out when out is non-nil.
func (s *testServer) do(method, path string, body any, out any) int {
	s.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.srv.Test(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if out != nil && len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp.StatusCode
}

type errorBody struct {
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------
// 1. Health and catalog
// ---------------------------------------------------------------------------

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t)

	var live map[string]string
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/live", nil, &live))
	assert.Equal(t, "alive", live["status"])

	var ready map[string]string
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/ready", nil, &ready))
	assert.Equal(t, "ready", ready["status"])
	assert.Equal(t, "custom", ready["kernel"])
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	s.app.Evaluate("")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.srv.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "steelframe_")
}

func TestCatalogRoute(t *testing.T) {
	s := newTestServer(t)
	var profiles []map[string]any
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/catalog", nil, &profiles))
	assert.Equal(t, s.app.reg.Len(), len(profiles))
}

// ---------------------------------------------------------------------------
// 2. Model records
// ---------------------------------------------------------------------------

func TestModelLifecycle(t *testing.T) {
	s := newTestServer(t, store.DemoTemplate())

	var all []model.Record
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/models", nil, &all))
	require.Len(t, all, 1)

	var proj model.Record
	require.Equal(t, http.StatusCreated,
		s.do(http.MethodPost, "/api/models/CASA-PROTOTIPO-2/project", map[string]string{"name": "Obra Centro"}, &proj))
	assert.Equal(t, model.TypeProject, proj.Type)
	assert.Equal(t, "Obra Centro", proj.Name)
	assert.Len(t, proj.ID, 6)

	var projects []model.Record
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/models?type=project", nil, &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, proj.ID, projects[0].ID)

	var templates []model.Record
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/models?type=template", nil, &templates))
	require.Len(t, templates, 1)

	var got model.Record
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/models/"+strings.ToLower(proj.ID), nil, &got))
	assert.Equal(t, proj.ID, got.ID)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/models/"+proj.ID, nil, nil))
	var missing errorBody
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/models/"+proj.ID, nil, &missing))
	assert.NotEmpty(t, missing.Error)
}

func TestCreateModel(t *testing.T) {
	s := newTestServer(t)

	var rec model.Record
	body := model.Record{Name: "Blank", Data: model.Model{LooseParts: []model.Part{
		{ID: "w1", ProfileID: "WALL_GENERIC", Step: 1},
	}}}
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/models", body, &rec))
	assert.Len(t, rec.ID, 6)
	assert.Equal(t, model.TypeTemplate, rec.Type)
	assert.False(t, rec.Created.IsZero())

	invalid := model.Record{Name: "Bad", Data: model.Model{LooseParts: []model.Part{
		{ID: "w1", ProfileID: "WALL_GENERIC", Length: model.Dim(0), Step: 1},
	}}}
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/api/models", invalid, nil))

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/models", "{not json", nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/models", nil, nil))
}

func TestProjectFromMissingTemplate(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/models/NOPE/project", nil, nil))
}

// ---------------------------------------------------------------------------
// 3. Evaluate
// ---------------------------------------------------------------------------

func TestEvaluateRoute(t *testing.T) {
	s := newTestServer(t)

	var ok EvalResult
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/evaluate",
		map[string]string{"source": `(loose (part "w1" :profile "WALL_GENERIC"))`}, &ok))
	assert.Len(t, ok.Meshes, 1)
	assert.Empty(t, ok.Errors)

	var bad EvalResult
	require.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/api/evaluate",
		map[string]string{"source": `(loose (part "w1"`}, &bad))
	assert.NotEmpty(t, bad.Errors)
	assert.Empty(t, bad.Meshes)

	var view WorkspaceView
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/workspace", nil, &view))
	assert.Len(t, view.Model.Parts(), 1, "a failed evaluation keeps the previous workspace")
}

func TestEvaluateUnknownProfileWarns(t *testing.T) {
	s := newTestServer(t)
	var res EvalResult
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/evaluate",
		map[string]string{"source": `(loose (part "x" :profile "NOT_A_PROFILE"))`}, &res))
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, "x", res.Warnings[0].PartID)
	assert.Empty(t, res.Meshes, "unknown profiles draw nothing")
}

// ---------------------------------------------------------------------------
// 4. Workspace editing
// ---------------------------------------------------------------------------

func openDemo(t *testing.T) *testServer {
	t.Helper()
	s := newTestServer(t, store.DemoTemplate())
	var view WorkspaceView
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/models/"+store.DemoTemplateID+"/open", nil, &view))
	require.Equal(t, store.DemoTemplateID, view.RecordID)
	require.Len(t, view.Model.Parts(), 6)
	return s
}

func TestWorkspacePartRoutes(t *testing.T) {
	s := openDemo(t)

	var added model.Part
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/workspace/parts", map[string]any{
		"packageId": "PKG_WALL_01",
		"part":      map[string]any{"id": "extra", "profileId": "C90", "step": 2},
	}, &added))
	assert.Equal(t, "extra", added.ID)
	assert.Equal(t, "PKG_WALL_01", added.PackageID)

	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/api/workspace/parts", map[string]any{
		"packageId": "PKG_WALL_01",
		"part":      map[string]any{"id": "extra", "profileId": "C90"},
	}, nil), "duplicate id")
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/workspace/parts", map[string]any{
		"packageId": "NOPE",
		"part":      map[string]any{"id": "other", "profileId": "C90"},
	}, nil))

	var clones []model.Part
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/workspace/parts/extra/clone", map[string]int{"qty": 2}, &clones))
	assert.Len(t, clones, 2)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/workspace/parts/extra", nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/workspace/parts/extra", nil, nil))

	var view WorkspaceView
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/workspace/undo", nil, &view))
	assert.NotNil(t, view.Model.FindPart("extra"), "undo restores the deleted part")
}

func TestEditPartRoute(t *testing.T) {
	s := newTestServer(t)
	var res EvalResult
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/evaluate",
		map[string]string{"source": `(loose (part "w1" :profile "WALL_GENERIC" :width 100 :length 280))`}, &res))

	in, ok := s.app.ws.Instance("w1")
	require.True(t, ok)
	builds := in.Builds()
	assert.InDelta(t, 280.0, in.LocalBounds().Size().Z, 1e-9)

	var edited model.Part
	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, "/api/workspace/parts/w1",
		map[string]any{"length": 300}, &edited))
	require.NotNil(t, edited.Length)
	assert.Equal(t, 300.0, *edited.Length)

	in, ok = s.app.ws.Instance("w1")
	require.True(t, ok)
	assert.InDelta(t, 300.0, in.LocalBounds().Size().Z, 1e-9)
	assert.Greater(t, in.Builds(), builds, "a geometry field rebuilds")

	builds = in.Builds()
	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, "/api/workspace/parts/w1",
		map[string]any{"x": 12.5, "rz": 0.5}, &edited))
	assert.Equal(t, 12.5, edited.X)
	assert.Equal(t, 0.0, edited.Y)
	assert.Equal(t, 0.5, edited.RZ)
	in, _ = s.app.ws.Instance("w1")
	assert.Equal(t, builds, in.Builds(), "a transform field only moves the part")

	var view WorkspaceView
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/workspace", nil, &view))
	w := view.Model.FindPart("w1")
	require.NotNil(t, w)
	assert.Equal(t, 12.5, w.X)
	assert.Equal(t, 2, view.UndoDepth)
}

func TestEditPartRouteRejects(t *testing.T) {
	s := newTestServer(t)
	var res EvalResult
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/evaluate",
		map[string]string{"source": `(loose (part "w1" :profile "WALL_GENERIC" :width 100 :length 280))`}, &res))

	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPatch, "/api/workspace/parts/w1",
		map[string]any{"length": 0}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPatch, "/api/workspace/parts/w1",
		map[string]any{"profileId": "NOT_A_PROFILE"}, nil))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/api/workspace/parts/nope",
		map[string]any{"x": 1}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/api/workspace/parts/w1", nil, nil))

	var view WorkspaceView
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/workspace", nil, &view))
	w := view.Model.FindPart("w1")
	require.NotNil(t, w)
	assert.Equal(t, 280.0, *w.Length, "rejected edits roll back")
	assert.Equal(t, 0, view.UndoDepth)
}

func TestWorkspaceUndoEmpty(t *testing.T) {
	s := openDemo(t)
	var body errorBody
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/api/workspace/undo", nil, &body))
	assert.NotEmpty(t, body.Error)
}

func TestCutRoutesRejectNonWalls(t *testing.T) {
	s := openDemo(t)
	cut := model.Cut{StartY: 0, EndY: 10, StartZ: 0, EndZ: 10}
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/api/workspace/parts/mont_01/cuts", cut, nil))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/workspace/parts/nope/cuts", cut, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/api/workspace/parts/mont_01/resolve", nil, nil))
}

func TestWallCutRoute(t *testing.T) {
	s := newTestServer(t)
	var res EvalResult
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/evaluate",
		map[string]string{"source": `(loose (part "w1" :profile "WALL_GENERIC" :width 100 :length 280))`}, &res))

	var applied model.Cut
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/workspace/parts/w1/cuts",
		model.Cut{StartY: 10, EndY: 90, StartZ: 0, EndZ: 210}, &applied))
	assert.Equal(t, 10.0, applied.StartY)

	var view WorkspaceView
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/workspace", nil, &view))
	w := view.Model.FindPart("w1")
	require.NotNil(t, w)
	assert.Len(t, w.Cuts, 1)
}

func TestPhaseAndPackageRoutes(t *testing.T) {
	s := openDemo(t)

	var ph model.Phase
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/workspace/phases", map[string]string{"name": "Roof"}, &ph))
	assert.Equal(t, "Roof", ph.Name)

	var pkg model.Package
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/workspace/packages", map[string]any{
		"phaseId": ph.ID, "name": "Rafters", "profileId": "C140", "length": 400, "qty": 3, "spacing": 60,
	}, &pkg))
	assert.Len(t, pkg.Parts, 3)

	var clone model.Package
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/workspace/packages/"+pkg.ID+"/clone", nil, &clone))
	assert.NotEqual(t, pkg.ID, clone.ID)
	assert.Len(t, clone.Parts, 3)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/workspace/packages/NOPE/clone", nil, nil))
}

// ---------------------------------------------------------------------------
// 5. Assembly steps
// ---------------------------------------------------------------------------

func TestStepRoutes(t *testing.T) {
	s := openDemo(t)

	var tl TimelineView
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/workspace/step", nil, &tl))
	assert.Equal(t, 3, tl.Current)
	assert.Equal(t, []int{1, 2, 3}, tl.Steps)
	assert.Equal(t, "finished", tl.Label)

	type stepResponse struct {
		Timeline TimelineView `json:"timeline"`
		Solids   int          `json:"solids"`
	}
	var resp stepResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/workspace/step", map[string]int{"step": 1}, &resp))
	assert.Equal(t, 1, resp.Timeline.Current)
	assert.Equal(t, 1, resp.Solids)
	assert.Equal(t, 16, resp.Timeline.Progress)
	assert.Equal(t, []string{"guia_inf"}, resp.Timeline.Parts)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/workspace/step", map[string]string{"action": "next"}, &resp))
	assert.Equal(t, 2, resp.Timeline.Current)
	assert.Equal(t, 5, resp.Solids)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/workspace/step", map[string]string{"action": "prev"}, &resp))
	assert.Equal(t, 1, resp.Timeline.Current)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/workspace/step", map[string]string{"action": "sideways"}, nil))

	var meshes struct {
		Meshes []MeshData `json:"meshes"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/workspace/meshes", nil, &meshes))
	ghosts := 0
	for _, m := range meshes.Meshes {
		if m.Material == "ghost" {
			ghosts++
			assert.NotEqual(t, "guia_inf", m.PartID)
		}
	}
	assert.Positive(t, ghosts, "parts after the current step are ghosted")
}

func TestSaveRoute(t *testing.T) {
	s := newTestServer(t, store.DemoTemplate())
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/api/workspace/save", nil, nil))

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/models/"+store.DemoTemplateID+"/open", nil, nil))
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/workspace/step", map[string]int{"step": 2}, nil))

	var saved model.Record
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/workspace/save", nil, &saved))
	assert.Equal(t, 83, saved.Progress)

	var got model.Record
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/models/"+store.DemoTemplateID, nil, &got))
	assert.Equal(t, 83, got.Progress)
}
