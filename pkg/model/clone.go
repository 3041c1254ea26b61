package model

// Clone returns a deep copy of the part.
func (p Part) Clone() Part {
	out := p
	out.Length = clonePtr(p.Length)
	out.Width = clonePtr(p.Width)
	out.Height = clonePtr(p.Height)
	out.Thickness = clonePtr(p.Thickness)
	out.Slope = clonePtr(p.Slope)
	if p.Cuts != nil {
		out.Cuts = append([]Cut(nil), p.Cuts...)
	}
	if p.Instructions != nil {
		ins := *p.Instructions
		if ins.Images != nil {
			ins.Images = append([]string(nil), ins.Images...)
		}
		out.Instructions = &ins
	}
	return out
}

// Clone returns a deep copy of the package and its parts.
func (p Package) Clone() Package {
	out := p
	out.Parts = cloneParts(p.Parts)
	return out
}

// Clone returns a deep copy of the model. Undo snapshots and template
// instantiation rely on no slice or pointer being shared with the source.
func (m Model) Clone() Model {
	out := Model{LooseParts: cloneParts(m.LooseParts)}
	if m.Phases != nil {
		out.Phases = make([]Phase, len(m.Phases))
		for i, ph := range m.Phases {
			out.Phases[i] = Phase{ID: ph.ID, Name: ph.Name}
			if ph.Packages != nil {
				out.Phases[i].Packages = make([]Package, len(ph.Packages))
				for j, pkg := range ph.Packages {
					out.Phases[i].Packages[j] = pkg.Clone()
				}
			}
		}
	}
	return out
}

func cloneParts(in []Part) []Part {
	if in == nil {
		return nil
	}
	out := make([]Part, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
