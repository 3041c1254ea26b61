package workspace

import (
	"fmt"

	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/decompose"
	"github.com/chazu/steelframe/pkg/logging"
	"github.com/chazu/steelframe/pkg/metrics"
	"github.com/chazu/steelframe/pkg/model"
	"github.com/chazu/steelframe/pkg/part"
	"github.com/chazu/steelframe/pkg/space"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// ApplyWallCut declares a rectangular opening on a wall. The cut is clamped
// to the wall; a degenerate cut is rejected and leaves no undo entry.
func (w *Workspace) ApplyWallCut(id string, c model.Cut) (model.Cut, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	in, ok := w.instances[id]
	if !ok {
		return model.Cut{}, fmt.Errorf("%w: %s", ErrPartNotFound, id)
	}

	w.snapshot()
	applied, err := in.AddCut(c)
	if err != nil {
		w.dropSnapshot()
		w.logger.Info("Wall cut rejected", zap.String("part_id", id), zap.Error(err))
		return model.Cut{}, err
	}
	w.sync(in)
	return applied, nil
}

// WallCut is the outcome of resolving one colliding wall.
type WallCut struct {
	WallID string         `json:"wallId"`
	Cut    decompose.Rect `json:"cut"`
	Pieces []model.Part   `json:"pieces"`
}

// Report summarises an overlap resolution.
type Report struct {
	OpeningID string    `json:"openingId"`
	Walls     []WallCut `json:"walls"`
}

// NothingToCut reports whether the opening collided with no wall.
func (r Report) NothingToCut() bool {
	return len(r.Walls) == 0
}

// PieceCount returns the number of loose parts emitted.
func (r Report) PieceCount() int {
	n := 0
	for _, wc := range r.Walls {
		n += len(wc.Pieces)
	}
	return n
}

// ResolveOverlaps cuts every wall or stud whose world bounds overlap the
// opening. Walls that already carry declared cuts are left alone. Each colliding wall is replaced by loose pieces tiling the
// material around the opening. All walls are evaluated before anything is
// committed, and the whole batch is one undo step.
func (w *Workspace) ResolveOverlaps(openingID string) (Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	report := Report{OpeningID: openingID}
	opening, ok := w.instances[openingID]
	if !ok {
		return report, fmt.Errorf("%w: %s", ErrPartNotFound, openingID)
	}
	if opening.Kind() != catalog.KindOpening {
		return report, fmt.Errorf("%w: %s", ErrNotOpening, openingID)
	}
	hole := w.worldBounds(opening)

	for _, in := range w.ordered() {
		if in == opening || !in.Kind().IsWall() {
			continue
		}
		if !w.worldBounds(in).Intersects(hole) {
			continue
		}
		// Tiling covers the whole wall and would fill a declared opening back in.
		if cuts := len(in.Data().Cuts); cuts > 0 {
			metrics.RecordCut("overlap", "skipped")
			w.logger.Info("Wall with declared cuts skipped",
				zap.String("opening_id", openingID),
				zap.String("part_id", in.ID()),
				zap.Int("cuts", cuts),
			)
			continue
		}
		wc, ok := w.cutWall(in, hole)
		if !ok {
			continue
		}
		report.Walls = append(report.Walls, wc)
	}

	if report.NothingToCut() {
		metrics.RecordCut("overlap", "nothing")
		w.logger.Info("Nothing to cut", zap.String("opening_id", openingID))
		return report, nil
	}

	w.snapshot()
	for _, wc := range report.Walls {
		w.detach(wc.WallID)
		w.model.RemovePart(wc.WallID)
		for _, p := range wc.Pieces {
			w.insert(nil, p)
		}
	}
	metrics.RecordCut("overlap", "applied")
	w.logger.Info("Overlaps resolved",
		zap.String("opening_id", openingID),
		zap.Int("walls", len(report.Walls)),
		zap.Int("pieces", report.PieceCount()),
	)
	return report, nil
}

// cutWall projects the opening's world box into the wall's local frame and
// tiles the wall around it. It reports false when the overlap is below the
// minimum on either axis.
func (w *Workspace) cutWall(wall *part.Instance, hole space.Box) (WallCut, bool) {
	frame := w.worldFrame(wall)
	bounds := wall.LocalBounds()
	size := bounds.Size()
	width, height := size.Y, size.Z

	local := w.scene.LocalBox(frame, hole)
	r, err := decompose.Clamp(decompose.Rect{
		MinY: local.Min.Y - bounds.Min.Y,
		MaxY: local.Max.Y - bounds.Min.Y,
		MinZ: local.Min.Z - bounds.Min.Z,
		MaxZ: local.Max.Z - bounds.Min.Z,
	}, width, height)
	if err != nil || r.Width() < w.minOverlap || r.Height() < w.minOverlap {
		return WallCut{}, false
	}

	src := wall.Data()
	rx, ry, rz := frame.Euler()
	pieces := decompose.Tile(width, height, r, w.minPieceSize)
	if lost := width*height - r.Area() - decompose.TotalArea(pieces); lost > 1e-6 {
		logging.LogDataIntegrity(w.logger, "wall", "sliver_dropped",
			zap.String("part_id", src.ID),
			zap.Float64("area_cm2", lost),
		)
	}
	wc := WallCut{WallID: src.ID, Cut: r, Pieces: make([]model.Part, 0, len(pieces))}
	for _, pc := range pieces {
		centre := r3.Vec{
			X: bounds.Center().X,
			Y: bounds.Min.Y + pc.Rect.CenterY(),
			Z: bounds.Min.Z + pc.Rect.CenterZ(),
		}
		pos := w.scene.ToWorld(frame, centre)

		p := src.Clone()
		p.ID = newID(src.ProfileID + "_" + pc.Side.String())
		p.PackageID = ""
		p.Cuts = nil
		p.Width = model.Dim(pc.Rect.Width())
		p.Length = model.Dim(pc.Rect.Height())
		p.Height = nil
		p.X, p.Y, p.Z = pos.X, pos.Y, pos.Z
		p.RX, p.RY, p.RZ = rx, ry, rz
		wc.Pieces = append(wc.Pieces, p)
		metrics.PiecesEmitted.WithLabelValues(pc.Side.String()).Inc()
	}
	return wc, true
}
