package shape

import (
	"time"

	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/decompose"
	"github.com/chazu/steelframe/pkg/logging"
	"github.com/chazu/steelframe/pkg/metrics"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Door hardware, in centimetres.
const (
	DoorPostWidth     = 5.0
	DoorLeafDepth     = 4.0
	DoorHandleHeight  = 105.0
	DoorHandleInset   = 8.0
	DoorHandleRadius  = 2.0
	windowFrameDepth  = 1.5
	minHandleClearing = 1.0
)

// Builder dispatches on profile kind to produce solid descriptions.
type Builder struct {
	logger       *zap.Logger
	minPieceSize float64
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for data-integrity warnings.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithMinPieceSize sets the floor below which decomposed wall pieces are
// dropped.
func WithMinPieceSize(v float64) Option {
	return func(b *Builder) { b.minPieceSize = v }
}

// NewBuilder returns a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{minPieceSize: decompose.MinPieceSize}
	for _, o := range opts {
		o(b)
	}
	b.logger = logging.OrNop(b.logger)
	return b
}

// Build produces the shape of one part. It never fails: an unrecognised
// kind yields an empty node and a data-integrity warning, so a malformed
// catalog entry cannot take down the rest of the scene.
func (b *Builder) Build(def catalog.Profile, in Inputs) *Node {
	started := time.Now()
	defer metrics.ObserveBuild(def.Kind.String(), started)

	root := &Node{Name: def.ID}

	switch def.Kind {
	case catalog.KindBox:
		root.Children = b.buildBox(in)
	case catalog.KindOpening:
		if def.Style() == catalog.OpeningWindow {
			root.Children = buildWindow(in)
		} else {
			root.Children = buildDoor(in)
		}
	case catalog.KindPlate:
		root.Children = []*Node{leaf("plate", extrusion(PlateOutline(in.Width, in.Flange), CrossSection, in.Length, RoleRoof))}
	case catalog.KindNotchedPanel:
		root.Children = buildNotched(in)
	case catalog.KindGable:
		root.Children = b.buildGable(def, in)
	case catalog.KindTrack, catalog.KindStud, catalog.KindSteelGeneric:
		outline := ChannelOutline(in.Width, in.Flange, in.Thickness, in.Lip)
		root.Children = []*Node{leaf("channel", extrusion(outline, CrossSection, in.Length, RoleSteel))}
	default:
		// KindUnknown: a tag from outside the type system, e.g. JSON.
		b.warn(def.ID, "unknown_kind", zap.Stringer("kind", def.Kind))
	}

	return root
}

func (b *Builder) warn(profileID, issue string, fields ...zap.Field) {
	metrics.RecordDataIntegrity(issue)
	logging.LogDataIntegrity(b.logger, "profile:"+profileID, issue, fields...)
}

// ---------------------------------------------------------------------------
// box
// ---------------------------------------------------------------------------

// buildBox returns the wall prism, or the pieces tiling it around its first
// cut. Further cuts are ignored.
func (b *Builder) buildBox(in Inputs) []*Node {
	w, h, t := in.Width, in.Length, in.Thickness
	prism := []*Node{leaf("wall", boxSolid(r3.Vec{X: t, Y: w, Z: h}, r3.Vec{}, RoleWall))}
	if len(in.Cuts) == 0 {
		return prism
	}

	c := in.Cuts[0]
	pieces, _, err := decompose.Decompose(w, h, decompose.Rect{MinY: c.StartY, MaxY: c.EndY, MinZ: c.StartZ, MaxZ: c.EndZ}, b.minPieceSize)
	if err != nil {
		// The cut was valid when applied; the wall has since shrunk
		// around it.
		b.warn("box", "stale_cut", zap.Error(err))
		return prism
	}
	return PieceNodes(pieces, w, h, t)
}

// PieceNodes converts tiled wall pieces into box leaves positioned in the
// centre-pivot frame of a w x h x t wall.
func PieceNodes(pieces []decompose.Piece, w, h, t float64) []*Node {
	out := make([]*Node, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, leaf("piece-"+p.Side.String(), boxSolid(
			r3.Vec{X: t, Y: p.Rect.Width(), Z: p.Rect.Height()},
			PieceOffset(p.Rect, w, h),
			RoleWall,
		)))
	}
	return out
}

// PieceOffset returns the centre of a wall-local rectangle relative to the
// centre of its w x h wall.
func PieceOffset(r decompose.Rect, w, h float64) r3.Vec {
	return r3.Vec{Y: r.CenterY() - w/2, Z: r.CenterZ() - h/2}
}

// ---------------------------------------------------------------------------
// opening
// ---------------------------------------------------------------------------

func buildWindow(in Inputs) []*Node {
	w, h := in.Width, in.Length
	depth := in.Thickness
	if depth <= 0 {
		depth = windowFrameDepth
	}
	return []*Node{leaf("pane", boxSolid(r3.Vec{X: depth, Y: w, Z: h}, r3.Vec{Z: h / 2}, RoleGlass))}
}

// buildDoor lays out a U-shaped portal (two posts and a header, no sill),
// an inset leaf and a handle on each face of the leaf.
func buildDoor(in Inputs) []*Node {
	w, h, d := in.Width, in.Length, in.Thickness
	pw := DoorPostWidth

	leafW := w - 2*pw
	leafH := h - pw
	leafD := DoorLeafDepth
	if d < leafD {
		leafD = d
	}

	frame := group("frame",
		leaf("post-left", boxSolid(r3.Vec{X: d, Y: pw, Z: h}, r3.Vec{Y: -w/2 + pw/2, Z: h / 2}, RoleWood)),
		leaf("post-right", boxSolid(r3.Vec{X: d, Y: pw, Z: h}, r3.Vec{Y: w/2 - pw/2, Z: h / 2}, RoleWood)),
		leaf("header", boxSolid(r3.Vec{X: d, Y: leafW, Z: pw}, r3.Vec{Z: h - pw/2}, RoleWood)),
	)

	panel := leaf("panel", boxSolid(r3.Vec{X: leafD, Y: leafW, Z: leafH}, r3.Vec{Z: leafH / 2}, RoleWood))

	hz := DoorHandleHeight
	if hz > leafH-minHandleClearing {
		hz = leafH / 2
	}
	hy := leafW/2 - DoorHandleInset
	hx := leafD/2 + DoorHandleRadius
	handles := group("handles",
		leaf("handle-front", Solid{Kind: SolidSphere, Radius: DoorHandleRadius, Offset: r3.Vec{X: hx, Y: hy, Z: hz}, Role: RoleHandle}),
		leaf("handle-back", Solid{Kind: SolidSphere, Radius: DoorHandleRadius, Offset: r3.Vec{X: -hx, Y: hy, Z: hz}, Role: RoleHandle}),
	)

	return []*Node{frame, group("leaf", panel, handles)}
}

// ---------------------------------------------------------------------------
// notched panel, gable
// ---------------------------------------------------------------------------

func buildNotched(in Inputs) []*Node {
	outline := NotchedOutline(
		in.Width, in.Length, in.NotchDepth,
		in.NotchSide == catalog.SideRight,
		in.StartPattern == catalog.PatternTooth,
	)
	return []*Node{leaf("panel", extrusion(outline, Elevation, in.Thickness, RoleSteel))}
}

func (b *Builder) buildGable(def catalog.Profile, in Inputs) []*Node {
	mode, ok := ParseCutMode(in.CutType)
	if !ok {
		b.warn(def.ID, "unknown_cut_type", zap.String("cutType", in.CutType))
	}
	outline := GableOutline(in.Width, in.Length, in.Slope, mode)
	if len(outline) < 3 {
		b.warn(def.ID, "degenerate_outline")
		return nil
	}
	return []*Node{leaf("gable", extrusion(outline, Elevation, in.Thickness, RoleWall))}
}
