// Package config holds editor settings persisted as YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/panoedit/pkg/drag"
	"github.com/taigrr/panoedit/pkg/pickbuffer"
	"github.com/taigrr/panoedit/pkg/preview"
	"github.com/taigrr/panoedit/pkg/projection"
	"github.com/taigrr/panoedit/pkg/walltrace"
)

// Config is the full editor configuration.
type Config struct {
	// Strict surfaces broken invariants (stale pick buffer, invalid focus)
	// as errors instead of recovering from them.
	Strict     bool       `yaml:"strict"`
	Pick       Pick       `yaml:"pick"`
	Wall       Wall       `yaml:"wall"`
	Drag       Drag       `yaml:"drag"`
	Projection Projection `yaml:"projection"`
	Preview    Preview    `yaml:"preview"`
}

// Pick sizes the offscreen pick buffer.
type Pick struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	JitterRadius int `yaml:"jitter_radius"`
}

// Wall configures wall tracing.
type Wall struct {
	SnapThresholdPx   float64 `yaml:"snap_threshold_px"`
	ReferenceHeightPx float64 `yaml:"reference_height_px"`
}

// Drag configures the scale mapping of add gestures.
type Drag struct {
	MinScale     float64 `yaml:"min_scale"`
	ScalePerUnit float64 `yaml:"scale_per_unit"`

	// ThresholdPx is how far the pointer must travel before a press on the
	// focused object becomes an edit drag instead of a click.
	ThresholdPx float64 `yaml:"threshold_px"`

	// ReferenceHeightPx is the view height ThresholdPx is measured against.
	ReferenceHeightPx float64 `yaml:"reference_height_px"`
}

// Projection configures panorama projection.
type Projection struct {
	Epsilon    float64 `yaml:"epsilon"`
	WallRadius float64 `yaml:"wall_radius"`
}

// Preview configures drag preview easing.
type Preview struct {
	Frequency float64 `yaml:"frequency"`
	Damping   float64 `yaml:"damping"`
	FPS       int     `yaml:"fps"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Strict: false,
		Pick: Pick{
			Width:        320,
			Height:       180,
			JitterRadius: 2,
		},
		Wall: Wall{
			SnapThresholdPx:   walltrace.DefaultThresholdPx,
			ReferenceHeightPx: walltrace.DefaultReferenceHeightPx,
		},
		Drag: Drag{
			MinScale:          drag.DefaultMinScale,
			ScalePerUnit:      drag.DefaultScalePerUnit,
			ThresholdPx:       3,
			ReferenceHeightPx: walltrace.DefaultReferenceHeightPx,
		},
		Projection: Projection{
			Epsilon:    projection.DefaultEpsilon,
			WallRadius: projection.DefaultWallRadius,
		},
		Preview: Preview{
			Frequency: preview.DefaultFrequency,
			Damping:   preview.DefaultDamping,
			FPS:       preview.DefaultFPS,
		},
	}
}

// Load reads the configuration at path over the defaults, so keys missing
// from the file keep their default values. A missing file yields the
// defaults; a malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Validate rejects values the editor cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Pick.Width <= 0 || c.Pick.Height <= 0:
		return fmt.Errorf("%w: pick buffer %dx%d", ErrInvalid, c.Pick.Width, c.Pick.Height)
	case c.Pick.JitterRadius < 0:
		return fmt.Errorf("%w: negative jitter radius", ErrInvalid)
	case c.Wall.SnapThresholdPx < 0 || c.Wall.ReferenceHeightPx <= 0:
		return fmt.Errorf("%w: wall snap %v/%v px", ErrInvalid, c.Wall.SnapThresholdPx, c.Wall.ReferenceHeightPx)
	case c.Drag.MinScale <= 0 || c.Drag.ScalePerUnit <= 0:
		return fmt.Errorf("%w: drag scale must be positive", ErrInvalid)
	case c.Drag.ThresholdPx < 0 || c.Drag.ReferenceHeightPx <= 0:
		return fmt.Errorf("%w: drag threshold %v/%v px", ErrInvalid, c.Drag.ThresholdPx, c.Drag.ReferenceHeightPx)
	case c.Projection.Epsilon <= 0 || c.Projection.WallRadius <= 0:
		return fmt.Errorf("%w: projection epsilon and wall radius must be positive", ErrInvalid)
	}
	return nil
}

// DragConfig returns the drag session settings.
func (c Config) DragConfig() drag.Config {
	return drag.Config{MinScale: c.Drag.MinScale, ScalePerUnit: c.Drag.ScalePerUnit}
}

// DragThreshold returns the click-versus-drag travel in normalized view
// units.
func (c Config) DragThreshold() float64 {
	return c.Drag.ThresholdPx / c.Drag.ReferenceHeightPx
}

// WallConfig returns the wall trace settings.
func (c Config) WallConfig() walltrace.Config {
	return walltrace.Config{
		ThresholdPx:       c.Wall.SnapThresholdPx,
		ReferenceHeightPx: c.Wall.ReferenceHeightPx,
		Surface:           projection.Floor,
	}
}

// PickOptions returns the pick buffer options.
func (c Config) PickOptions() pickbuffer.Options {
	return pickbuffer.Options{Width: c.Pick.Width, Height: c.Pick.Height, JitterRadius: c.Pick.JitterRadius}
}

// Projector returns a projector for geom with the configured tolerances.
func (c Config) Projector(geom projection.Geometry) projection.Projector {
	return projection.Projector{Geometry: geom, Epsilon: c.Projection.Epsilon, WallRadius: c.Projection.WallRadius}
}
