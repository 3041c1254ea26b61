// Package config loads service configuration: defaults, then an optional
// YAML file, then STEELFRAME_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "STEELFRAME_"

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `yaml:"port"`
	Environment  string `yaml:"environment"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`

	Log     LogConfig     `yaml:"log"`
	Kernel  KernelConfig  `yaml:"kernel"`
	Scene   SceneConfig   `yaml:"scene"`
	Store   StoreConfig   `yaml:"store"`
	Catalog CatalogConfig `yaml:"catalog"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type KernelConfig struct {
	Backend   string `yaml:"backend"`
	MeshCells int    `yaml:"mesh_cells"`
}

// SceneConfig holds the geometry tolerances. Sizes are in centimetres.
type SceneConfig struct {
	Scale        float64 `yaml:"scale"`
	MinPieceSize float64 `yaml:"min_piece_size"`
	MinOverlap   float64 `yaml:"min_overlap"`
	UndoDepth    int     `yaml:"undo_depth"`
}

// StoreConfig selects the persistence driver. Path is a file path for the
// file and sqlite drivers and a DSN for postgres.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Seed   bool   `yaml:"seed"`
}

// CatalogConfig optionally points at a YAML file of extra profiles.
type CatalogConfig struct {
	File string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:         "3000",
		Environment:  "development",
		ReadTimeout:  10,
		WriteTimeout: 10,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Kernel: KernelConfig{
			Backend:   "sdfx",
			MeshCells: 200,
		},
		Scene: SceneConfig{
			Scale:        0.3,
			MinPieceSize: 5,
			MinOverlap:   1,
			UndoDepth:    50,
		},
		Store: StoreConfig{
			Driver: "file",
			Path:   "data/local_models.json",
			Seed:   true,
		},
	}
}

// Load reads path (if non-empty and present) over the defaults and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENV", c.Environment)
	c.ReadTimeout = getEnvAsInt("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", c.WriteTimeout)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Kernel.Backend = getEnv("KERNEL", c.Kernel.Backend)
	c.Kernel.MeshCells = getEnvAsInt("MESH_CELLS", c.Kernel.MeshCells)

	c.Scene.Scale = getEnvAsFloat("SCENE_SCALE", c.Scene.Scale)
	c.Scene.MinPieceSize = getEnvAsFloat("MIN_PIECE_SIZE", c.Scene.MinPieceSize)
	c.Scene.MinOverlap = getEnvAsFloat("MIN_OVERLAP", c.Scene.MinOverlap)
	c.Scene.UndoDepth = getEnvAsInt("UNDO_DEPTH", c.Scene.UndoDepth)

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.Path = getEnv("STORE_PATH", c.Store.Path)
	c.Store.Seed = getEnvAsBool("STORE_SEED", c.Store.Seed)

	c.Catalog.File = getEnv("CATALOG_FILE", c.Catalog.File)
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Scene.Scale <= 0 {
		errs = append(errs, fmt.Errorf("scene.scale must be positive, got %g", c.Scene.Scale))
	}
	if c.Scene.MinPieceSize < 0 {
		errs = append(errs, fmt.Errorf("scene.min_piece_size must not be negative, got %g", c.Scene.MinPieceSize))
	}
	if c.Scene.MinOverlap < 0 {
		errs = append(errs, fmt.Errorf("scene.min_overlap must not be negative, got %g", c.Scene.MinOverlap))
	}
	if c.Scene.UndoDepth < 1 {
		errs = append(errs, fmt.Errorf("scene.undo_depth must be at least 1, got %d", c.Scene.UndoDepth))
	}
	if c.Kernel.MeshCells < 8 {
		errs = append(errs, fmt.Errorf("kernel.mesh_cells must be at least 8, got %d", c.Kernel.MeshCells))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ReadTimeoutDuration and WriteTimeoutDuration convert the second counts for
// the HTTP server.
func (c *Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

func (c *Config) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
