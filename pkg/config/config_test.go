package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeoutDuration())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steelframe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "8080"
environment: production
log:
  level: debug
kernel:
  backend: manifold
  mesh_cells: 64
scene:
  min_overlap: 2.5
store:
  driver: sqlite
  path: /var/lib/steelframe/models.db
catalog:
  file: profiles.yaml
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "unset keys keep defaults")
	assert.Equal(t, "manifold", cfg.Kernel.Backend)
	assert.Equal(t, 64, cfg.Kernel.MeshCells)
	assert.Equal(t, 2.5, cfg.Scene.MinOverlap)
	assert.Equal(t, 0.3, cfg.Scene.Scale)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "profiles.yaml", cfg.Catalog.File)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steelframe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"8080\"\n"), 0o644))

	t.Setenv("STEELFRAME_PORT", "9090")
	t.Setenv("STEELFRAME_SCENE_SCALE", "0.5")
	t.Setenv("STEELFRAME_UNDO_DEPTH", "10")
	t.Setenv("STEELFRAME_STORE_SEED", "false")
	t.Setenv("STEELFRAME_MESH_CELLS", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 0.5, cfg.Scene.Scale)
	assert.Equal(t, 10, cfg.Scene.UndoDepth)
	assert.False(t, cfg.Store.Seed)
	assert.Equal(t, 200, cfg.Kernel.MeshCells, "unparsable values fall back")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero scale", "scene:\n  scale: 0\n"},
		{"negative piece size", "scene:\n  min_piece_size: -1\n"},
		{"negative overlap", "scene:\n  min_overlap: -1\n"},
		{"no undo", "scene:\n  undo_depth: 0\n"},
		{"coarse mesh", "kernel:\n  mesh_cells: 2\n"},
		{"bad yaml", "scene: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
