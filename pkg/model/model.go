// Package model holds the persisted data descriptors of a steel-frame
// model: part instances, packages, phases and the store envelope. The
// geometry engine reads and mutates these records; it never touches storage.
package model

import "time"

// Cut is a rectangular opening in wall-local centimetres. Y runs along the
// wall's width from 0, Z runs up its height from 0.
type Cut struct {
	StartY float64 `json:"startY"`
	EndY   float64 `json:"endY"`
	StartZ float64 `json:"startZ"`
	EndZ   float64 `json:"endZ"`
}

// Instructions is the assembler-facing guidance attached to a part.
type Instructions struct {
	Text   string   `json:"text,omitempty"`
	Images []string `json:"images,omitempty"`
	Video  string   `json:"video,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}

// Part is one placed, dimensioned occurrence of a profile. Dimension
// overrides are pointers: nil means "use the profile default".
//
// Position is in scene units in the parent frame (package or model root);
// rotation is Euler XYZ in radians.
type Part struct {
	ID        string   `json:"id"`
	ProfileID string   `json:"profileId"`
	Length    *float64 `json:"length,omitempty"`
	Width     *float64 `json:"width,omitempty"`
	Height    *float64 `json:"height,omitempty"`
	Thickness *float64 `json:"thickness,omitempty"`
	Slope     *float64 `json:"slope,omitempty"`
	CutType   string   `json:"cutType,omitempty"`

	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	RX float64 `json:"rx"`
	RY float64 `json:"ry"`
	RZ float64 `json:"rz"`

	Step      int    `json:"step"`
	PackageID string `json:"packageId,omitempty"`
	Cuts      []Cut  `json:"cuts,omitempty"`

	Instructions *Instructions `json:"instructions,omitempty"`
}

// IsLoose reports whether the part belongs to no package.
func (p Part) IsLoose() bool {
	return p.PackageID == ""
}

// Package is a named group of parts that move and rotate together.
type Package struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	RX    float64 `json:"rx"`
	RY    float64 `json:"ry"`
	RZ    float64 `json:"rz"`
	Step  int     `json:"step"`
	Parts []Part  `json:"parts"`
}

// Phase is an ordered construction stage holding packages.
type Phase struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Packages []Package `json:"packages"`
}

// Model is the tree of phases, packages and parts plus the loose parts list.
type Model struct {
	Phases     []Phase `json:"phases"`
	LooseParts []Part  `json:"looseParts"`
}

// RecordType distinguishes reusable templates from concrete projects.
type RecordType string

const (
	TypeTemplate RecordType = "template"
	TypeProject  RecordType = "project"
)

// Record is the persistence envelope around a model.
type Record struct {
	ID       string     `json:"id"`
	Type     RecordType `json:"type"`
	Name     string     `json:"name"`
	Created  time.Time  `json:"created"`
	Progress int        `json:"progress"`
	Data     Model      `json:"data"`
}

// Dim returns a pointer to v, for filling dimension overrides.
func Dim(v float64) *float64 {
	return &v
}

// Parts returns every part in the model, packaged parts first in phase and
// package order, then loose parts. The returned values are copies.
func (m *Model) Parts() []Part {
	var out []Part
	for _, ph := range m.Phases {
		for _, pkg := range ph.Packages {
			out = append(out, pkg.Parts...)
		}
	}
	out = append(out, m.LooseParts...)
	return out
}

// FindPackage returns a pointer to the package with the given id.
func (m *Model) FindPackage(id string) *Package {
	for i := range m.Phases {
		for j := range m.Phases[i].Packages {
			if m.Phases[i].Packages[j].ID == id {
				return &m.Phases[i].Packages[j]
			}
		}
	}
	return nil
}

// FindPhase returns a pointer to the phase with the given id.
func (m *Model) FindPhase(id string) *Phase {
	for i := range m.Phases {
		if m.Phases[i].ID == id {
			return &m.Phases[i]
		}
	}
	return nil
}

// FindPart returns a pointer to the part with the given id, wherever it
// lives in the tree.
func (m *Model) FindPart(id string) *Part {
	for i := range m.Phases {
		for j := range m.Phases[i].Packages {
			pkg := &m.Phases[i].Packages[j]
			for k := range pkg.Parts {
				if pkg.Parts[k].ID == id {
					return &pkg.Parts[k]
				}
			}
		}
	}
	for i := range m.LooseParts {
		if m.LooseParts[i].ID == id {
			return &m.LooseParts[i]
		}
	}
	return nil
}

// RemovePart deletes the part with the given id from its owning
// collection. It reports whether a part was removed.
func (m *Model) RemovePart(id string) bool {
	for i := range m.Phases {
		for j := range m.Phases[i].Packages {
			pkg := &m.Phases[i].Packages[j]
			for k := range pkg.Parts {
				if pkg.Parts[k].ID == id {
					pkg.Parts = append(pkg.Parts[:k], pkg.Parts[k+1:]...)
					return true
				}
			}
		}
	}
	for i := range m.LooseParts {
		if m.LooseParts[i].ID == id {
			m.LooseParts = append(m.LooseParts[:i], m.LooseParts[i+1:]...)
			return true
		}
	}
	return false
}

// MaxStep returns the highest step among all parts, or 0 for an empty model.
func (m *Model) MaxStep() int {
	max := 0
	for _, p := range m.Parts() {
		if p.Step > max {
			max = p.Step
		}
	}
	return max
}
