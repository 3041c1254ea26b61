// Package catalog is the read-only profile registry. A Registry maps a
// profile identifier to a Profile (kind tag, default dimensions, geometry
// flags) and never exposes mutation once constructed.
package catalog

import (
	"errors"
	"sort"
	"strings"
)

// ErrProfileNotFound is returned by callers that need an error value for a
// failed lookup. Lookup itself reports absence with a boolean.
var ErrProfileNotFound = errors.New("catalog: profile not found")

// Kind identifies the geometry family of a profile.
type Kind int

const (
	KindUnknown Kind = iota
	KindTrack
	KindStud
	KindBox
	KindOpening
	KindPlate
	KindNotchedPanel
	KindGable
	KindSteelGeneric
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindTrack:        "track",
	KindStud:         "stud",
	KindBox:          "box",
	KindOpening:      "opening",
	KindPlate:        "plate",
	KindNotchedPanel: "notched_panel",
	KindGable:        "gable",
	KindSteelGeneric: "steel_generic",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind maps a type tag to a Kind. Unrecognised tags yield KindUnknown
// so that data loaded from outside the type system still reaches the
// builder's empty-geometry fallback.
func ParseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// Scale returns the factor converting this family's catalog units into the
// working unit (centimetres). Steel, opening and plate defaults are stored in
// millimetres; box, gable and notched panel defaults are already centimetres.
func (k Kind) Scale() float64 {
	switch k {
	case KindBox, KindGable, KindNotchedPanel:
		return 1
	default:
		return 0.1
	}
}

// IsWall reports whether parts of this kind are candidates for opening
// decomposition.
func (k Kind) IsWall() bool {
	return k == KindBox || k == KindStud
}

// Side selects which vertical edge of a notched panel carries teeth.
type Side string

const (
	SideLeft  Side = "LEFT"
	SideRight Side = "RIGHT"
)

// Pattern selects whether the first notch segment is a tooth or a gap.
type Pattern string

const (
	PatternTooth Pattern = "TOOTH"
	PatternGap   Pattern = "GAP"
)

// OpeningStyle distinguishes doors from windows among opening profiles.
type OpeningStyle string

const (
	OpeningDoor   OpeningStyle = "door"
	OpeningWindow OpeningStyle = "window"
)

// Profile is an immutable catalog entry. Only the fields relevant to Kind
// are meaningful; the rest stay zero.
type Profile struct {
	ID           string       `yaml:"id" json:"id"`
	Name         string       `yaml:"name" json:"name"`
	Kind         Kind         `yaml:"type" json:"type"`
	Width        float64      `yaml:"width,omitempty" json:"width,omitempty"`
	Flange       float64      `yaml:"flange,omitempty" json:"flange,omitempty"`
	Thickness    float64      `yaml:"thickness,omitempty" json:"thickness,omitempty"`
	Lip          float64      `yaml:"lip,omitempty" json:"lip,omitempty"`
	Height       float64      `yaml:"height,omitempty" json:"height,omitempty"`
	Length       float64      `yaml:"length,omitempty" json:"length,omitempty"`
	NotchSide    Side         `yaml:"notchSide,omitempty" json:"notchSide,omitempty"`
	NotchDepth   float64      `yaml:"notchDepth,omitempty" json:"notchDepth,omitempty"`
	StartPattern Pattern      `yaml:"startPattern,omitempty" json:"startPattern,omitempty"`
	Slope        float64      `yaml:"slope,omitempty" json:"slope,omitempty"`
	CutType      string       `yaml:"cutType,omitempty" json:"cutType,omitempty"`
	Opening      OpeningStyle `yaml:"opening,omitempty" json:"opening,omitempty"`
	Color        string       `yaml:"color,omitempty" json:"color,omitempty"`
}

// Style returns the opening style, inferring it from the id when the entry
// does not declare one.
func (p Profile) Style() OpeningStyle {
	if p.Opening != "" {
		return p.Opening
	}
	if strings.Contains(strings.ToUpper(p.ID), "WINDOW") {
		return OpeningWindow
	}
	return OpeningDoor
}

// Lookup is the read side of a registry. The shape builder and part
// instances depend on this interface rather than on a concrete table.
type Lookup interface {
	Lookup(id string) (Profile, bool)
}

// Registry is an immutable profile table.
type Registry struct {
	profiles map[string]Profile
}

// Compile-time interface check.
var _ Lookup = (*Registry)(nil)

// NewRegistry builds a registry from the given entries. Later entries with
// a duplicate id replace earlier ones.
func NewRegistry(profiles ...Profile) *Registry {
	m := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		m[p.ID] = p
	}
	return &Registry{profiles: m}
}

// Lookup returns the profile with the given id.
func (r *Registry) Lookup(id string) (Profile, bool) {
	if r == nil {
		return Profile{}, false
	}
	p, ok := r.profiles[id]
	return p, ok
}

// IDs returns all profile ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Profiles returns every entry, sorted by id.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, id := range r.IDs() {
		out = append(out, r.profiles[id])
	}
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// With returns a new registry containing r's entries overlaid with extra.
// r is left untouched.
func (r *Registry) With(extra ...Profile) *Registry {
	all := make([]Profile, 0, len(r.profiles)+len(extra))
	all = append(all, r.Profiles()...)
	all = append(all, extra...)
	return NewRegistry(all...)
}
