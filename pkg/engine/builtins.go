package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/steelframe/pkg/model"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing model values between builtins
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	x, y, z float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.x, v.y, v.z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

type sexpCut struct {
	cut model.Cut
}

func (c *sexpCut) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(cut :y0 %g :y1 %g :z0 %g :z1 %g)", c.cut.StartY, c.cut.EndY, c.cut.StartZ, c.cut.EndZ)
}
func (c *sexpCut) Type() *zygo.RegisteredType { return nil }

// sexpPart is a part definition waiting to be placed in a package or the
// loose list.
type sexpPart struct {
	part   model.Part
	placed bool
}

func (p *sexpPart) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(part %q :profile %q)", p.part.ID, p.part.ProfileID)
}
func (p *sexpPart) Type() *zygo.RegisteredType { return nil }

type sexpPackage struct {
	pkg    model.Package
	placed bool
}

func (p *sexpPackage) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(package %q :parts %d)", p.pkg.Name, len(p.pkg.Parts))
}
func (p *sexpPackage) Type() *zygo.RegisteredType { return nil }

type sexpPhase struct {
	id string
}

func (p *sexpPhase) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(phase %s)", p.id)
}
func (p *sexpPhase) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword arguments from positional ones. A keyword
// with no following value is recorded as null.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts a keyword (:miter) or a plain string ("miter").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val != math.Trunc(v.Val) {
			return 0, fmt.Errorf("expected integer, got %g", v.Val)
		}
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (*sexpVec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// placement reads :at (scene units) and :rot (degrees) into a position and
// an Euler XYZ rotation in radians.
func placement(pa kwArgs) (pos, rot [3]float64, err error) {
	if v, ok := pa.kw["at"]; ok {
		at, err := toVec3(v)
		if err != nil {
			return pos, rot, fmt.Errorf("at: %w", err)
		}
		pos = [3]float64{at.x, at.y, at.z}
	}
	if v, ok := pa.kw["rot"]; ok {
		r, err := toVec3(v)
		if err != nil {
			return pos, rot, fmt.Errorf("rot: %w", err)
		}
		rot = [3]float64{radians(r.x), radians(r.y), radians(r.z)}
	}
	return pos, rot, nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ---------------------------------------------------------------------------
// Model builder
// ---------------------------------------------------------------------------

// DefaultStep is the assembly step given to parts and packages that do not
// declare one.
const DefaultStep = 1

// builder accumulates the model produced by one evaluation. Identifiers it
// generates are deterministic per evaluation.
type builder struct {
	model    model.Model
	parts    []*sexpPart
	packages []*sexpPackage
	phases   int
	pkgs     int
}

func newBuilder() *builder {
	return &builder{model: model.Model{Phases: []model.Phase{}, LooseParts: []model.Part{}}}
}

// unplaced returns warnings for parts and packages that were defined but
// never attached to the model tree.
func (b *builder) unplaced() []EvalWarning {
	var warnings []EvalWarning
	for _, p := range b.parts {
		if !p.placed {
			warnings = append(warnings, EvalWarning{
				Message: fmt.Sprintf("part %q is not placed in a package or loose list", p.part.ID),
				PartID:  p.part.ID,
			})
		}
	}
	for _, p := range b.packages {
		if !p.placed {
			warnings = append(warnings, EvalWarning{
				Message: fmt.Sprintf("package %q is not placed in a phase", p.pkg.Name),
			})
		}
	}
	return warnings
}

// partArgs collects part references from args. Nested lists are flattened
// so (map ...) results can be spliced in.
func partArgs(form string, args []zygo.Sexp) ([]*sexpPart, error) {
	var parts []*sexpPart
	for i, a := range args {
		switch v := a.(type) {
		case *sexpPart:
			parts = append(parts, v)
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(v)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", form, i, err)
			}
			nested, err := partArgs(form, items)
			if err != nil {
				return nil, err
			}
			parts = append(parts, nested...)
		case *zygo.SexpSentinel:
			if v != zygo.SexpNull {
				return nil, fmt.Errorf("%s: argument %d: unexpected %s", form, i, v.SexpString(nil))
			}
		default:
			return nil, fmt.Errorf("%s: argument %d: expected part, got %T (%s)", form, i, a, a.SexpString(nil))
		}
	}
	return parts, nil
}

// registerBuiltins installs the model DSL into a zygomys environment. The
// builtins populate b during evaluation.
//
// Source must be passed through preprocessSource first so that :keyword
// tokens arrive as recognisable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{x: xyz[0], y: xyz[1], z: xyz[2]}, nil
	})

	// -----------------------------------------------------------------------
	// (cut :y0 10 :y1 90 :z0 0 :z1 210)
	// -----------------------------------------------------------------------
	env.AddFunction("cut", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var vals [4]float64
		for i, key := range []string{"y0", "y1", "z0", "z1"} {
			v, ok := pa.kw[key]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("cut: missing :%s", key)
			}
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cut: %s: %w", key, err)
			}
			vals[i] = f
		}
		return &sexpCut{cut: model.Cut{StartY: vals[0], EndY: vals[1], StartZ: vals[2], EndZ: vals[3]}}, nil
	})

	// -----------------------------------------------------------------------
	// (part "s1" :profile "C90" :length 280 :at (vec3 0 0 0) :rot (vec3 -90 0 0)
	//       :step 2 :cuts (list (cut ...)))
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires an id argument")
		}
		id, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: id: %w", err)
		}
		p := model.Part{ID: id, Step: DefaultStep}

		v, ok := pa.kw["profile"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("part %s: missing :profile", id)
		}
		if p.ProfileID, err = toKeywordString(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("part %s: profile: %w", id, err)
		}

		dims := []struct {
			key string
			dst **float64
		}{
			{"length", &p.Length},
			{"width", &p.Width},
			{"height", &p.Height},
			{"thickness", &p.Thickness},
			{"slope", &p.Slope},
		}
		for _, d := range dims {
			v, ok := pa.kw[d.key]
			if !ok {
				continue
			}
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("part %s: %s: %w", id, d.key, err)
			}
			*d.dst = model.Dim(f)
		}

		if v, ok := pa.kw["cut-type"]; ok {
			if p.CutType, err = toKeywordString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("part %s: cut-type: %w", id, err)
			}
		}

		pos, rot, err := placement(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part %s: %w", id, err)
		}
		p.X, p.Y, p.Z = pos[0], pos[1], pos[2]
		p.RX, p.RY, p.RZ = rot[0], rot[1], rot[2]

		if v, ok := pa.kw["step"]; ok {
			if p.Step, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("part %s: step: %w", id, err)
			}
		}

		if v, ok := pa.kw["cuts"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("part %s: cuts: %w", id, err)
			}
			for i, item := range items {
				c, ok := item.(*sexpCut)
				if !ok {
					return zygo.SexpNull, fmt.Errorf("part %s: cuts: entry %d: expected cut, got %T", id, i, item)
				}
				p.Cuts = append(p.Cuts, c.cut)
			}
		}

		sp := &sexpPart{part: p}
		b.parts = append(b.parts, sp)
		return sp, nil
	})

	// -----------------------------------------------------------------------
	// (package "Studs" :id "pk1" :at (vec3 ...) :rot (vec3 ...) :step 1 parts...)
	//
	// Registered as "defpackage"; preprocessSource renames the form head.
	// -----------------------------------------------------------------------
	env.AddFunction("defpackage", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("package requires a name argument")
		}
		pkgName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("package: name: %w", err)
		}

		b.pkgs++
		pkg := model.Package{
			ID:    fmt.Sprintf("pkg_%d", b.pkgs),
			Name:  pkgName,
			Step:  DefaultStep,
			Parts: []model.Part{},
		}
		if v, ok := pa.kw["id"]; ok {
			if pkg.ID, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("package %s: id: %w", pkgName, err)
			}
		}
		pos, rot, err := placement(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("package %s: %w", pkgName, err)
		}
		pkg.X, pkg.Y, pkg.Z = pos[0], pos[1], pos[2]
		pkg.RX, pkg.RY, pkg.RZ = rot[0], rot[1], rot[2]
		if v, ok := pa.kw["step"]; ok {
			if pkg.Step, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("package %s: step: %w", pkgName, err)
			}
		}

		parts, err := partArgs("package "+pkgName, pa.positional[1:])
		if err != nil {
			return zygo.SexpNull, err
		}
		for _, sp := range parts {
			if sp.placed {
				return zygo.SexpNull, fmt.Errorf("package %s: part %s is already placed", pkgName, sp.part.ID)
			}
			sp.placed = true
			p := sp.part
			p.PackageID = pkg.ID
			pkg.Parts = append(pkg.Parts, p)
		}

		sp := &sexpPackage{pkg: pkg}
		b.packages = append(b.packages, sp)
		return sp, nil
	})

	// -----------------------------------------------------------------------
	// (phase "Ground floor" packages...)
	// -----------------------------------------------------------------------
	env.AddFunction("phase", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("phase requires a name argument")
		}
		phaseName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("phase: name: %w", err)
		}

		b.phases++
		ph := model.Phase{
			ID:       fmt.Sprintf("phase_%d", b.phases),
			Name:     phaseName,
			Packages: []model.Package{},
		}
		if v, ok := pa.kw["id"]; ok {
			if ph.ID, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("phase %s: id: %w", phaseName, err)
			}
		}
		for i, a := range pa.positional[1:] {
			sp, ok := a.(*sexpPackage)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("phase %s: argument %d: expected package, got %T (%s)",
					phaseName, i+1, a, a.SexpString(nil))
			}
			if sp.placed {
				return zygo.SexpNull, fmt.Errorf("phase %s: package %s is already placed", phaseName, sp.pkg.Name)
			}
			sp.placed = true
			ph.Packages = append(ph.Packages, sp.pkg)
		}

		b.model.Phases = append(b.model.Phases, ph)
		return &sexpPhase{id: ph.ID}, nil
	})

	// -----------------------------------------------------------------------
	// (loose parts...)
	// -----------------------------------------------------------------------
	env.AddFunction("loose", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		parts, err := partArgs("loose", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		for _, sp := range parts {
			if sp.placed {
				return zygo.SexpNull, fmt.Errorf("loose: part %s is already placed", sp.part.ID)
			}
			sp.placed = true
			b.model.LooseParts = append(b.model.LooseParts, sp.part)
		}
		return &zygo.SexpInt{Val: int64(len(parts))}, nil
	})
}
