package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/decompose"
	"github.com/chazu/steelframe/pkg/model"
	"github.com/chazu/steelframe/pkg/part"
	"github.com/chazu/steelframe/pkg/store"
	"github.com/chazu/steelframe/pkg/workspace"
)

// pinger is implemented by stores with a remote connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// NewServer builds the fiber application serving a.
func NewServer(a *App) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  a.cfg.ReadTimeoutDuration(),
		WriteTimeout: a.cfg.WriteTimeoutDuration(),
		AppName:      "steelframe",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: a.errorHandler,
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	if a.cfg.IsDevelopment() {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
		app.Use(cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowHeaders: []string{"*"},
			AllowMethods: []string{"*"},
		}))
	}

	// ============================================================
	// Health and Metrics
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	app.Get("/health/ready", a.ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ============================================================
	// Catalog and Models
	// ============================================================

	api := app.Group("/api")
	api.Get("/catalog", a.getCatalog)
	api.Get("/models", a.listModels)
	api.Post("/models", a.createModel)
	api.Get("/models/:id", a.getModel)
	api.Delete("/models/:id", a.deleteModel)
	api.Post("/models/:id/project", a.createProject)
	api.Post("/models/:id/open", a.openModel)
	api.Post("/evaluate", a.evaluate)

	// ============================================================
	// Workspace
	// ============================================================

	ws := api.Group("/workspace")
	ws.Get("/", a.getWorkspace)
	ws.Get("/meshes", a.getMeshes)
	ws.Post("/parts", a.addPart)
	ws.Patch("/parts/:id", a.editPart)
	ws.Delete("/parts/:id", a.deletePart)
	ws.Post("/parts/:id/clone", a.clonePart)
	ws.Post("/parts/:id/cuts", a.applyCut)
	ws.Post("/parts/:id/resolve", a.resolve)
	ws.Post("/phases", a.addPhase)
	ws.Post("/packages", a.createPackage)
	ws.Post("/packages/:id/clone", a.clonePackage)
	ws.Post("/undo", a.undo)
	ws.Get("/step", a.getStep)
	ws.Post("/step", a.setStep)
	ws.Post("/save", a.save)

	return app
}

// errorHandler maps sentinel errors to status codes.
func (a *App) errorHandler(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, workspace.ErrPartNotFound),
		errors.Is(err, workspace.ErrPackageNotFound),
		errors.Is(err, workspace.ErrPhaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrProfileNotFound),
		errors.Is(err, decompose.ErrDegenerateCut),
		errors.Is(err, part.ErrNotCuttable),
		errors.Is(err, part.ErrInvalidDimension),
		errors.Is(err, workspace.ErrDuplicateID),
		errors.Is(err, workspace.ErrNotOpening),
		errors.Is(err, workspace.ErrNothingToUndo),
		errors.Is(err, ErrInvalidModel),
		errors.Is(err, ErrNoModelOpen):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// bind decodes the JSON body into v, answering 400 on malformed input.
func bind(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return fiber.NewError(http.StatusBadRequest, "empty body")
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json: "+err.Error())
	}
	return nil
}

// ============================================================
// Health
// ============================================================

func (a *App) ready(c fiber.Ctx) error {
	if p, ok := a.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
		}
	}
	return c.JSON(fiber.Map{"status": "ready", "kernel": a.kernelName})
}

// ============================================================
// Catalog and Models
// ============================================================

func (a *App) getCatalog(c fiber.Ctx) error {
	return c.JSON(a.reg.Profiles())
}

func (a *App) listModels(c fiber.Ctx) error {
	recs, err := a.store.List(c.Context())
	if err != nil {
		return err
	}
	switch c.Query("type") {
	case string(model.TypeTemplate):
		recs = store.Templates(recs)
	case string(model.TypeProject):
		recs = store.Projects(recs)
	}
	if recs == nil {
		recs = []model.Record{}
	}
	return c.JSON(recs)
}

func (a *App) createModel(c fiber.Ctx) error {
	var rec model.Record
	if err := bind(c, &rec); err != nil {
		return err
	}
	if rec.ID == "" {
		id, err := store.NewID(c.Context(), a.store)
		if err != nil {
			return err
		}
		rec.ID = id
	}
	if rec.Type == "" {
		rec.Type = model.TypeTemplate
	}
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}
	if vr := model.Validate(&rec.Data, a.reg); !vr.OK() {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  ErrInvalidModel.Error(),
			"issues": vr.Errors,
		})
	}
	if err := a.store.Save(c.Context(), rec); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(rec)
}

func (a *App) getModel(c fiber.Ctx) error {
	rec, err := a.store.Load(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (a *App) deleteModel(c fiber.Ctx) error {
	if err := a.store.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

type projectRequest struct {
	Name string `json:"name"`
}

func (a *App) createProject(c fiber.Ctx) error {
	var req projectRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	rec, err := store.CreateProjectFromTemplate(c.Context(), a.store, c.Params("id"), strings.TrimSpace(req.Name))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(rec)
}

func (a *App) openModel(c fiber.Ctx) error {
	if _, err := a.Open(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(a.View())
}

type evaluateRequest struct {
	Source string `json:"source"`
}

func (a *App) evaluate(c fiber.Ctx) error {
	var req evaluateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result := a.Evaluate(req.Source)
	if len(result.Errors) > 0 {
		return c.Status(http.StatusUnprocessableEntity).JSON(result)
	}
	return c.JSON(result)
}

// ============================================================
// Workspace
// ============================================================

func (a *App) getWorkspace(c fiber.Ctx) error {
	return c.JSON(a.View())
}

func (a *App) getMeshes(c fiber.Ctx) error {
	meshes, err := a.Meshes()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"meshes": meshes})
}

type addPartRequest struct {
	PackageID string     `json:"packageId"`
	Part      model.Part `json:"part"`
}

func (a *App) addPart(c fiber.Ctx) error {
	var req addPartRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := a.ws.AddPart(req.PackageID, req.Part)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(p)
}

// editPartRequest carries the fields to change. Absent fields keep their
// value; position and rotation components are patched one by one.
type editPartRequest struct {
	ProfileID *string  `json:"profileId"`
	Length    *float64 `json:"length"`
	Width     *float64 `json:"width"`
	Height    *float64 `json:"height"`
	Thickness *float64 `json:"thickness"`
	Slope     *float64 `json:"slope"`
	CutType   *string  `json:"cutType"`

	X  *float64 `json:"x"`
	Y  *float64 `json:"y"`
	Z  *float64 `json:"z"`
	RX *float64 `json:"rx"`
	RY *float64 `json:"ry"`
	RZ *float64 `json:"rz"`

	Step *int `json:"step"`
}

func pick(v *float64, cur float64) float64 {
	if v == nil {
		return cur
	}
	return *v
}

// apply routes geometry fields through the rebuilding setters and the
// transform fields through the ones that only move the part.
func (r editPartRequest) apply(reg catalog.Lookup) func(in *part.Instance) error {
	return func(in *part.Instance) error {
		if r.ProfileID != nil {
			if _, ok := reg.Lookup(*r.ProfileID); !ok {
				return fmt.Errorf("edit %s: %q: %w", in.ID(), *r.ProfileID, catalog.ErrProfileNotFound)
			}
			if err := in.SetProfile(*r.ProfileID); err != nil {
				return err
			}
		}
		dims := []struct {
			v   *float64
			set func(float64) error
		}{
			{r.Length, in.SetLength},
			{r.Width, in.SetWidth},
			{r.Height, in.SetHeight},
			{r.Thickness, in.SetThickness},
			{r.Slope, in.SetSlope},
		}
		for _, d := range dims {
			if d.v == nil {
				continue
			}
			if err := d.set(*d.v); err != nil {
				return err
			}
		}
		if r.CutType != nil {
			if err := in.SetCutType(*r.CutType); err != nil {
				return err
			}
		}

		cur := in.Data()
		if r.X != nil || r.Y != nil || r.Z != nil {
			if err := in.SetPosition(pick(r.X, cur.X), pick(r.Y, cur.Y), pick(r.Z, cur.Z)); err != nil {
				return err
			}
		}
		if r.RX != nil || r.RY != nil || r.RZ != nil {
			if err := in.SetRotation(pick(r.RX, cur.RX), pick(r.RY, cur.RY), pick(r.RZ, cur.RZ)); err != nil {
				return err
			}
		}
		if r.Step != nil {
			return in.SetStep(*r.Step)
		}
		return nil
	}
}

func (a *App) editPart(c fiber.Ctx) error {
	var req editPartRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id := c.Params("id")
	if err := a.ws.Edit(id, req.apply(a.reg)); err != nil {
		return err
	}
	in, _ := a.ws.Instance(id)
	return c.JSON(in.Data())
}

func (a *App) deletePart(c fiber.Ctx) error {
	if err := a.ws.DeletePart(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

type cloneRequest struct {
	Qty int `json:"qty"`
}

func (a *App) clonePart(c fiber.Ctx) error {
	req := cloneRequest{Qty: 1}
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	parts, err := a.ws.ClonePart(c.Params("id"), req.Qty)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(parts)
}

func (a *App) applyCut(c fiber.Ctx) error {
	var cut model.Cut
	if err := bind(c, &cut); err != nil {
		return err
	}
	applied, err := a.ws.ApplyWallCut(c.Params("id"), cut)
	if err != nil {
		return err
	}
	return c.JSON(applied)
}

func (a *App) resolve(c fiber.Ctx) error {
	report, err := a.ws.ResolveOverlaps(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"report":       report,
		"nothingToCut": report.NothingToCut(),
		"pieces":       report.PieceCount(),
	})
}

type phaseRequest struct {
	Name string `json:"name"`
}

func (a *App) addPhase(c fiber.Ctx) error {
	var req phaseRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	return c.Status(http.StatusCreated).JSON(a.ws.AddPhase(req.Name))
}

type packageRequest struct {
	PhaseID string `json:"phaseId"`
	workspace.PackageParams
}

func (a *App) createPackage(c fiber.Ctx) error {
	var req packageRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	pkg, err := a.ws.CreatePackage(req.PhaseID, req.PackageParams)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(pkg)
}

func (a *App) clonePackage(c fiber.Ctx) error {
	pkg, err := a.ws.ClonePackage(c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(pkg)
}

func (a *App) undo(c fiber.Ctx) error {
	if err := a.ws.Undo(); err != nil {
		return err
	}
	return c.JSON(a.View())
}

func (a *App) getStep(c fiber.Ctx) error {
	return c.JSON(timelineView(a.ws.Timeline()))
}

// stepRequest sets the step directly or moves it by "next" / "prev".
type stepRequest struct {
	Step   *int   `json:"step"`
	Action string `json:"action"`
}

func (a *App) setStep(c fiber.Ctx) error {
	var req stepRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	t := a.ws.Timeline()
	var target int
	switch {
	case req.Step != nil:
		target = *req.Step
	case req.Action == "next":
		target = t.Next()
	case req.Action == "prev":
		target = t.Prev()
	default:
		return fiber.NewError(http.StatusBadRequest, `expected "step" or "action": "next" | "prev"`)
	}

	solids, err := a.ws.SetStep(target)
	if err != nil {
		a.logger.Warn("Step applied with errors", zap.Int("step", target), zap.Error(err))
	}
	return c.JSON(fiber.Map{
		"timeline": timelineView(a.ws.Timeline()),
		"solids":   solids,
	})
}

func (a *App) save(c fiber.Ctx) error {
	rec, err := a.Save(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(rec)
}
