package sway

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	must(t, err)
	diff(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig([]byte(`
log_level: debug
stop_orphaned_inertia: false
deferred_release_per_tick: 16
cross_slide:
  enabled: false
curves:
  sticky:
    axis: y
    segments:
      - {begin: 0, linear: 1}
      - {begin: 120, constant: 120}
`))
	must(t, err)
	if cfg.StopOrphanedInertia || cfg.CrossSlide.Enabled {
		t.Errorf("flags not overridden: %+v", cfg)
	}
	if !cfg.RequestFramesWhileActive {
		t.Error("unset field lost its default")
	}
	if cfg.DeferredReleasePerTick != 16 {
		t.Errorf("DeferredReleasePerTick = %d, want 16", cfg.DeferredReleasePerTick)
	}
	level, err := cfg.Level()
	must(t, err)
	if level != slog.LevelDebug {
		t.Errorf("Level = %v, want debug", level)
	}

	c, err := cfg.Curve("sticky")
	must(t, err)
	if c.PrimaryAxis != AxisTranslationY {
		t.Errorf("axis = %v, want TranslationY", c.PrimaryAxis)
	}
	if got := c.Evaluate(200); got != 120 {
		t.Errorf("Evaluate(200) = %v, want 120", got)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "log_level: [",
		"bad level":      "log_level: loud",
		"negative queue": "deferred_release_per_tick: -1",
		"bad axis":       "curves: {c: {axis: w, segments: [{begin: 0}]}}",
		"empty curve":    "curves: {c: {axis: x}}",
		"duplicate":      "curves: {c: {axis: x, segments: [{begin: 0}, {begin: 0}]}}",
	}
	for name, data := range tests {
		if _, err := LoadConfig([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sway.yaml")
	cfg := DefaultConfig()
	cfg.LogLevel = "info"
	cfg.DeferredReleasePerTick = 4
	cfg.Curves = map[string]CurvePreset{
		"sticky": {Axis: "y", Property: PropertyTranslateY, Segments: []CurveSegment{{Linear: 1}, {BeginOffset: 64, Constant: 64}}},
	}
	must(t, WriteConfigFile(cfg, path))

	got, err := ReadConfigFile(path)
	must(t, err)
	diff(t, cfg, got)
}

func TestParseAxis(t *testing.T) {
	for in, want := range map[string]Axis{"x": AxisTranslationX, "TranslationY": AxisTranslationY, "ZOOM": AxisZoom} {
		got, err := ParseAxis(in)
		must(t, err)
		if got != want {
			t.Errorf("ParseAxis(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseAxis("z"); err == nil {
		t.Error("ParseAxis(z) should fail")
	}
}
