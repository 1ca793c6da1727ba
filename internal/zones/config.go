package zones

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

var (
	ErrBadGridCell = errors.New("grid cell size must be positive")
	ErrBadBuffer   = errors.New("buffer distance must be positive")
	ErrBadMaxGap   = errors.New("max gap must be positive")
)

// Config holds the geometry tuning knobs. All values are degrees; the
// defaults assume a mid-latitude city where 0.00001 degrees is roughly 1-2
// meters. Deployments at other latitudes override them via file or env.
type Config struct {
	// GridCell is the snap-to-grid cell size used by gap repair.
	GridCell float64 `yaml:"grid_cell"`

	// BufferDistance is how far repaired sections are grown outward.
	BufferDistance float64 `yaml:"buffer_distance"`

	// MaxGap is the neighbor search radius for gap detection. The minimum
	// gap threshold is derived from it (see MinGap).
	MaxGap float64 `yaml:"max_gap"`

	// AutoBoundary controls whether a repair run that changed polygons
	// recalculates the city boundary afterwards.
	AutoBoundary bool `yaml:"auto_boundary"`

	// BoundaryName is the display name stored on the city boundary row.
	BoundaryName string `yaml:"boundary_name"`
}

func DefaultConfig() Config {
	return Config{
		GridCell:       0.00001, // ~1m
		BufferDistance: 0.00005, // ~5m
		MaxGap:         0.0001,  // ~11m
		AutoBoundary:   true,
		BoundaryName:   "City",
	}
}

// MinGap is the lower bound below which two near polygons are considered
// already touching for repair purposes: 10% of the search radius.
func (c Config) MinGap() float64 {
	return c.MaxGap * 0.1
}

// LoadFromEnv builds the config from defaults, an optional YAML file named
// by ZONES_CONFIG, and individual environment overrides, in that order.
//
// Environment variables:
//   - ZONES_CONFIG: path to a YAML file with the knobs above
//   - ZONES_GRID_CELL, ZONES_BUFFER_DISTANCE, ZONES_MAX_GAP: degree floats
//   - ZONES_AUTO_BOUNDARY: "true"/"false"
//   - ZONES_BOUNDARY_NAME: display name for the boundary record
func LoadFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if path := strings.TrimSpace(os.Getenv("ZONES_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read ZONES_CONFIG %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse ZONES_CONFIG %s: %w", path, err)
		}
	}

	if err := envFloat("ZONES_GRID_CELL", &cfg.GridCell); err != nil {
		return cfg, err
	}
	if err := envFloat("ZONES_BUFFER_DISTANCE", &cfg.BufferDistance); err != nil {
		return cfg, err
	}
	if err := envFloat("ZONES_MAX_GAP", &cfg.MaxGap); err != nil {
		return cfg, err
	}
	if v := strings.TrimSpace(os.Getenv("ZONES_AUTO_BOUNDARY")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("ZONES_AUTO_BOUNDARY: %w", err)
		}
		cfg.AutoBoundary = b
	}
	if v := strings.TrimSpace(os.Getenv("ZONES_BOUNDARY_NAME")); v != "" {
		cfg.BoundaryName = v
	}

	return cfg, nil
}

func envFloat(name string, dst *float64) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = f
	return nil
}

func (c Config) Validate() error {
	if c.GridCell <= 0 {
		return ErrBadGridCell
	}
	if c.BufferDistance <= 0 {
		return ErrBadBuffer
	}
	if c.MaxGap <= 0 {
		return ErrBadMaxGap
	}
	return nil
}
