package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/chazu/steelframe/pkg/model"
)

// DemoTemplateID is the id of the template SeedDefaults writes.
const DemoTemplateID = "casa-prototipo-2"

// DemoTemplate returns a one-wall frame: a bottom track, four studs on a
// 60 cm grid and a top track, assembled in three steps.
func DemoTemplate() model.Record {
	const (
		scale   = 0.3
		spacing = 60.0
		height  = 280.0
	)
	parts := []model.Part{
		{ID: "guia_inf", ProfileID: "U90", Length: model.Dim(300), Step: 1},
	}
	for i := range 4 {
		parts = append(parts, model.Part{
			ID:        fmt.Sprintf("mont_%02d", i+1),
			ProfileID: "C90",
			Length:    model.Dim(height),
			X:         float64(i) * spacing * scale,
			RX:        -math.Pi / 2,
			Step:      2,
		})
	}
	parts = append(parts, model.Part{
		ID: "guia_sup", ProfileID: "U90", Length: model.Dim(300),
		Y: height * scale, RZ: math.Pi, Step: 3,
	})
	for i := range parts {
		parts[i].PackageID = "PKG_WALL_01"
	}

	return model.Record{
		ID:      DemoTemplateID,
		Type:    model.TypeTemplate,
		Name:    "Prototype house (demo)",
		Created: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Data: model.Model{
			Phases: []model.Phase{{
				ID:   "PHASE_WALL",
				Name: "Front wall",
				Packages: []model.Package{{
					ID:    "PKG_WALL_01",
					Name:  "Wall frame",
					Step:  1,
					Parts: parts,
				}},
			}},
			LooseParts: []model.Part{},
		},
	}
}

// SeedDefaults writes the demo template when s is completely empty. A store
// holding anything, even only projects, is left alone so deleted templates
// stay deleted.
func SeedDefaults(ctx context.Context, s Store) (bool, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	if len(recs) > 0 {
		return false, nil
	}
	if err := s.Save(ctx, DemoTemplate()); err != nil {
		return false, err
	}
	return true, nil
}
