package shape

import (
	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/model"
)

// Fallback defaults, in catalog units, for entries that leave a field empty.
const (
	fallbackSteelWidth     = 100.0 // mm
	fallbackSteelFlange    = 40.0  // mm
	fallbackSteelThickness = 1.0   // mm
	fallbackLength         = 300.0 // cm
	fallbackPanelLength    = 280.0 // cm
	fallbackWallWidth      = 61.0  // cm
	fallbackWallThickness  = 10.0  // cm
	fallbackGableWidth     = 300.0 // cm
	fallbackDoorWidth      = 800.0 // mm
	fallbackDoorHeight     = 2100.0
	fallbackDoorDepth      = 100.0 // mm
	fallbackPaneDepth      = 15.0  // mm
	fallbackNotchedWidth   = 61.0  // cm
)

// Inputs are the resolved dimensions of one part, all in centimetres.
// Length is the long axis (height for walls and openings).
type Inputs struct {
	Width        float64
	Length       float64
	Thickness    float64
	Flange       float64
	Lip          float64
	NotchDepth   float64
	NotchSide    catalog.Side
	StartPattern catalog.Pattern
	Slope        float64
	CutType      string
	Cuts         []model.Cut
}

// Resolve applies the override-or-default chain: an instance override wins,
// otherwise the profile default converted by the family's scale factor. It
// is pure and returns identical results for identical inputs.
func Resolve(def catalog.Profile, p model.Part) Inputs {
	s := def.Kind.Scale()
	in := Inputs{
		NotchSide:    def.NotchSide,
		StartPattern: def.StartPattern,
		CutType:      def.CutType,
	}
	if p.CutType != "" {
		in.CutType = p.CutType
	}
	if len(p.Cuts) > 0 {
		in.Cuts = append([]model.Cut(nil), p.Cuts...)
	}

	switch def.Kind {
	case catalog.KindBox:
		in.Width = pick(p.Width, def.Width, fallbackWallWidth, s)
		in.Thickness = pick(p.Thickness, def.Thickness, fallbackWallThickness, s)
		in.Length = pick(first(p.Length, p.Height), def.Length, fallbackPanelLength, s)

	case catalog.KindGable:
		in.Width = pick(p.Width, def.Width, fallbackGableWidth, s)
		in.Thickness = pick(p.Thickness, def.Thickness, fallbackWallThickness, s)
		in.Length = pick(first(p.Length, p.Height), def.Length, fallbackPanelLength, s)
		in.Slope = pick(p.Slope, def.Slope, 0, 1)

	case catalog.KindNotchedPanel:
		in.Width = pick(p.Width, def.Width, fallbackNotchedWidth, s)
		in.Thickness = pick(p.Thickness, def.Thickness, fallbackWallThickness, s)
		in.Length = pick(first(p.Length, p.Height), def.Length, fallbackPanelLength, s)
		in.NotchDepth = def.NotchDepth * s
		if in.NotchDepth == 0 {
			in.NotchDepth = in.Width / 2
		}

	case catalog.KindOpening:
		depth := fallbackDoorDepth
		if def.Style() == catalog.OpeningWindow {
			depth = fallbackPaneDepth
		}
		in.Width = pick(p.Width, def.Width, fallbackDoorWidth, s)
		in.Length = pick(first(p.Height, p.Length), def.Height, fallbackDoorHeight, s)
		in.Thickness = pick(p.Thickness, def.Thickness, depth, s)

	case catalog.KindPlate:
		in.Width = pick(p.Width, def.Width, fallbackSteelWidth, s)
		in.Flange = pick(nil, def.Flange, fallbackSteelFlange, s)
		in.Thickness = pick(p.Thickness, def.Thickness, fallbackSteelThickness, s)
		in.Length = pick(p.Length, def.Length*s, fallbackLength, 1)

	default:
		// track, stud, steel_generic and anything unrecognised
		in.Width = pick(p.Width, def.Width, fallbackSteelWidth, s)
		in.Flange = pick(nil, def.Flange, fallbackSteelFlange, s)
		in.Thickness = pick(p.Thickness, def.Thickness, fallbackSteelThickness, s)
		in.Lip = def.Lip * s
		in.Length = pick(p.Length, def.Length*s, fallbackLength, 1)
	}
	return in
}

// pick returns the override when set, else def*scale, else fallback*scale.
func pick(override *float64, def, fallback, scale float64) float64 {
	if override != nil {
		return *override
	}
	if def != 0 {
		return def * scale
	}
	return fallback * scale
}

func first(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
