package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindTrack, "track"},
		{KindStud, "stud"},
		{KindBox, "box"},
		{KindOpening, "opening"},
		{KindPlate, "plate"},
		{KindNotchedPanel, "notched_panel"},
		{KindGable, "gable"},
		{KindSteelGeneric, "steel_generic"},
		{KindUnknown, "unknown"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
			if tt.kind != Kind(99) {
				assert.Equal(t, tt.kind, ParseKind(tt.want))
			}
		})
	}
}

func TestParseKindUnknown(t *testing.T) {
	assert.Equal(t, KindUnknown, ParseKind("hyperboloid"))
	assert.Equal(t, KindGable, ParseKind(" GABLE "))
}

func TestScaleByFamily(t *testing.T) {
	assert.Equal(t, 1.0, KindBox.Scale())
	assert.Equal(t, 1.0, KindGable.Scale())
	assert.Equal(t, 1.0, KindNotchedPanel.Scale())
	assert.Equal(t, 0.1, KindStud.Scale())
	assert.Equal(t, 0.1, KindTrack.Scale())
	assert.Equal(t, 0.1, KindOpening.Scale())
	assert.Equal(t, 0.1, KindPlate.Scale())
	assert.Equal(t, 0.1, KindSteelGeneric.Scale())
}

func TestDefaultCatalog(t *testing.T) {
	reg := Default()

	c90, ok := reg.Lookup("C90")
	require.True(t, ok)
	assert.Equal(t, KindStud, c90.Kind)
	assert.Equal(t, 90.0, c90.Width)
	assert.Equal(t, 12.0, c90.Lip)

	wall, ok := reg.Lookup("WALL_GENERIC")
	require.True(t, ok)
	assert.Equal(t, 61.0, wall.Width)
	assert.Equal(t, 280.0, wall.Length)

	t1, ok := reg.Lookup("TRAMA_1")
	require.True(t, ok)
	assert.Equal(t, SideRight, t1.NotchSide)
	assert.Equal(t, PatternTooth, t1.StartPattern)

	_, ok = reg.Lookup("NOPE")
	assert.False(t, ok)
}

func TestOpeningStyle(t *testing.T) {
	reg := Default()
	door, _ := reg.Lookup("DOOR_STD")
	win, _ := reg.Lookup("WINDOW_STD")
	assert.Equal(t, OpeningDoor, door.Style())
	assert.Equal(t, OpeningWindow, win.Style())

	inferred := Profile{ID: "WINDOW_SMALL", Kind: KindOpening}
	assert.Equal(t, OpeningWindow, inferred.Style())
}

func TestNilRegistryLookup(t *testing.T) {
	var reg *Registry
	_, ok := reg.Lookup("C90")
	assert.False(t, ok)
}

func TestWithDoesNotMutate(t *testing.T) {
	base := Default()
	n := base.Len()
	ext := base.With(Profile{ID: "C200", Kind: KindStud, Width: 200})
	assert.Equal(t, n, base.Len())
	assert.Equal(t, n+1, ext.Len())
	_, ok := base.Lookup("C200")
	assert.False(t, ok)
}

func TestDecodeYAML(t *testing.T) {
	src := `
profiles:
  - id: C200
    type: stud
    width: 200
    flange: 40
    lip: 15
    thickness: 1.25
  - id: ODD
    type: hyperboloid
`
	got, err := DecodeYAML(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, KindStud, got[0].Kind)
	assert.Equal(t, 15.0, got[0].Lip)
	assert.Equal(t, KindUnknown, got[1].Kind)
}

func TestDecodeYAMLMissingID(t *testing.T) {
	_, err := DecodeYAML(strings.NewReader("profiles:\n  - type: stud\n"))
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  - id: U200\n    type: track\n    width: 200\n"), 0o644))

	reg, err := LoadYAML(Default(), path)
	require.NoError(t, err)
	p, ok := reg.Lookup("U200")
	require.True(t, ok)
	assert.Equal(t, KindTrack, p.Kind)

	same, err := LoadYAML(reg, "")
	require.NoError(t, err)
	assert.Same(t, reg, same)

	_, err = LoadYAML(reg, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
