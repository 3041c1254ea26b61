package model

import (
	"fmt"

	"github.com/chazu/steelframe/pkg/catalog"
)

// ValidationSeverity indicates whether a finding blocks use of the model or
// is merely advisory.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks loading
	SeverityWarning                           // recoverable data-integrity issue
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// Validation codes.
const (
	CodeDuplicateID     = "DUPLICATE_ID"
	CodeMissingID       = "MISSING_ID"
	CodeUnknownProfile  = "UNKNOWN_PROFILE"
	CodeInvalidCut      = "INVALID_CUT"
	CodeNegativeStep    = "NEGATIVE_STEP"
	CodeBadDimension    = "BAD_DIMENSION"
	CodeDanglingPackage = "DANGLING_PACKAGE"
)

// ValidationError describes a single validation finding.
type ValidationError struct {
	Code     string
	PartID   string // empty for model-level findings
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.PartID == "" {
		return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: part %s: %s", e.Severity, e.Code, e.PartID, e.Message)
}

// ValidationResult separates blocking errors from warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether the model has no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks structural and per-part invariants of the model. It is
// read-only. reg may be nil, in which case profile references are not
// checked.
func Validate(m *Model, reg catalog.Lookup) ValidationResult {
	var all []ValidationError
	all = append(all, validateIDs(m)...)
	all = append(all, validatePackages(m)...)
	for _, p := range m.Parts() {
		all = append(all, validatePart(p, reg)...)
	}

	var res ValidationResult
	for _, f := range all {
		if f.Severity == SeverityError {
			res.Errors = append(res.Errors, f)
		} else {
			res.Warnings = append(res.Warnings, f)
		}
	}
	return res
}

// validateIDs checks that every part and package id is present and unique.
func validateIDs(m *Model) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, p := range m.Parts() {
		if p.ID == "" {
			errs = append(errs, ValidationError{
				Code:     CodeMissingID,
				Message:  fmt.Sprintf("part with profile %q has no id", p.ProfileID),
				Severity: SeverityError,
			})
			continue
		}
		if seen[p.ID] {
			errs = append(errs, ValidationError{
				Code:     CodeDuplicateID,
				PartID:   p.ID,
				Message:  "id is used by more than one part",
				Severity: SeverityError,
			})
		}
		seen[p.ID] = true
	}

	pkgs := make(map[string]bool)
	for _, ph := range m.Phases {
		for _, pkg := range ph.Packages {
			if pkgs[pkg.ID] {
				errs = append(errs, ValidationError{
					Code:     CodeDuplicateID,
					Message:  fmt.Sprintf("package id %q is used more than once", pkg.ID),
					Severity: SeverityError,
				})
			}
			pkgs[pkg.ID] = true
		}
	}
	return errs
}

// validatePackages checks that packageId back-references agree with the
// tree: packaged parts point at their owner, loose parts point nowhere.
func validatePackages(m *Model) []ValidationError {
	var errs []ValidationError
	for _, ph := range m.Phases {
		for _, pkg := range ph.Packages {
			for _, p := range pkg.Parts {
				if p.PackageID != "" && p.PackageID != pkg.ID {
					errs = append(errs, ValidationError{
						Code:     CodeDanglingPackage,
						PartID:   p.ID,
						Message:  fmt.Sprintf("packageId %q but stored in package %q", p.PackageID, pkg.ID),
						Severity: SeverityWarning,
					})
				}
			}
		}
	}
	for _, p := range m.LooseParts {
		if p.PackageID != "" {
			errs = append(errs, ValidationError{
				Code:     CodeDanglingPackage,
				PartID:   p.ID,
				Message:  fmt.Sprintf("loose part references package %q", p.PackageID),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

func validatePart(p Part, reg catalog.Lookup) []ValidationError {
	var errs []ValidationError

	if reg != nil {
		if _, ok := reg.Lookup(p.ProfileID); !ok {
			// A stale profile id renders as empty geometry; it must not
			// block loading the rest of the model.
			errs = append(errs, ValidationError{
				Code:     CodeUnknownProfile,
				PartID:   p.ID,
				Message:  fmt.Sprintf("profile %q not in catalog", p.ProfileID),
				Severity: SeverityWarning,
			})
		}
	}

	if p.Step < 0 {
		errs = append(errs, ValidationError{
			Code:     CodeNegativeStep,
			PartID:   p.ID,
			Message:  fmt.Sprintf("step %d is negative", p.Step),
			Severity: SeverityError,
		})
	}

	dims := []struct {
		name string
		v    *float64
	}{
		{"length", p.Length},
		{"width", p.Width},
		{"height", p.Height},
		{"thickness", p.Thickness},
	}
	for _, d := range dims {
		if d.v != nil && *d.v <= 0 {
			errs = append(errs, ValidationError{
				Code:     CodeBadDimension,
				PartID:   p.ID,
				Message:  fmt.Sprintf("%s must be positive, got %g", d.name, *d.v),
				Severity: SeverityError,
			})
		}
	}
	if p.Slope != nil && *p.Slope < 0 {
		errs = append(errs, ValidationError{
			Code:     CodeBadDimension,
			PartID:   p.ID,
			Message:  fmt.Sprintf("slope must not be negative, got %g", *p.Slope),
			Severity: SeverityError,
		})
	}

	for i, c := range p.Cuts {
		if c.StartY >= c.EndY || c.StartZ >= c.EndZ {
			errs = append(errs, ValidationError{
				Code:     CodeInvalidCut,
				PartID:   p.ID,
				Message:  fmt.Sprintf("cut %d has no extent: y [%g,%g] z [%g,%g]", i, c.StartY, c.EndY, c.StartZ, c.EndZ),
				Severity: SeverityError,
			})
		}
	}

	return errs
}
