package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("missing file gave %+v, want defaults", cfg)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := "strict: true\npick:\n  width: 64\nwall:\n  snap_threshold_px: 8\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Strict || cfg.Pick.Width != 64 || cfg.Wall.SnapThresholdPx != 8 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Pick.Height != Default().Pick.Height || cfg.Drag != Default().Drag {
		t.Errorf("unset keys lost their defaults: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		invalid bool
	}{
		{name: "malformed yaml", data: "pick: [unclosed"},
		{name: "wrong type", data: "pick:\n  width: wide\n"},
		{name: "zero pick size", data: "pick:\n  width: 0\n", invalid: true},
		{name: "negative min scale", data: "drag:\n  min_scale: -1\n", invalid: true},
		{name: "zero drag reference height", data: "drag:\n  reference_height_px: 0\n", invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.invalid && !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cfg.yaml")
	cfg := Default()
	cfg.Strict = true
	cfg.Drag.ScalePerUnit = 0.5
	cfg.Preview.FPS = 60

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestDerivedSettings(t *testing.T) {
	cfg := Default()
	if d := cfg.DragConfig(); d.MinScale != cfg.Drag.MinScale || d.ScalePerUnit != cfg.Drag.ScalePerUnit {
		t.Errorf("DragConfig = %+v", d)
	}
	if o := cfg.PickOptions(); o.Width != cfg.Pick.Width || o.JitterRadius != cfg.Pick.JitterRadius {
		t.Errorf("PickOptions = %+v", o)
	}
	if w := cfg.WallConfig(); w.ThresholdPx != cfg.Wall.SnapThresholdPx {
		t.Errorf("WallConfig = %+v", w)
	}
}

func TestDragThresholdIgnoresWallSettings(t *testing.T) {
	cfg := Default()
	want := cfg.Drag.ThresholdPx / cfg.Drag.ReferenceHeightPx
	if got := cfg.DragThreshold(); got != want {
		t.Fatalf("DragThreshold = %v, want %v", got, want)
	}

	cfg.Wall.ReferenceHeightPx = 100
	if got := cfg.DragThreshold(); got != want {
		t.Errorf("wall reference height changed the drag threshold: %v, want %v", got, want)
	}

	cfg.Drag.ReferenceHeightPx = 300
	if got := cfg.DragThreshold(); got != 0.01 {
		t.Errorf("DragThreshold = %v, want 0.01", got)
	}
}
