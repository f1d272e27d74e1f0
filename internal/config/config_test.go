package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CameraSource != "0" {
		t.Errorf("CameraSource = %q, want \"0\"", cfg.CameraSource)
	}
	if cfg.CameraWidth != 1280 || cfg.CameraHeight != 720 || cfg.CameraFPS != 30 {
		t.Errorf("camera defaults = %dx%d@%d", cfg.CameraWidth, cfg.CameraHeight, cfg.CameraFPS)
	}
	if cfg.MatcherKind != MatcherGeometric {
		t.Errorf("MatcherKind = %q, want geometric", cfg.MatcherKind)
	}
	if cfg.Hysteresis != 15 {
		t.Errorf("Hysteresis = %d, want 15", cfg.Hysteresis)
	}
	if cfg.BufferCapacity != 1 {
		t.Errorf("BufferCapacity = %d, want 1", cfg.BufferCapacity)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VIGIA_CAMERA_SOURCE", "rtsp://example/stream")
	t.Setenv("VIGIA_MATCHER", "similarity")
	t.Setenv("VIGIA_MATCH_THRESHOLD", "0.75")
	t.Setenv("VIGIA_HYSTERESIS", "30")
	t.Setenv("VIGIA_TRAY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CameraSource != "rtsp://example/stream" {
		t.Errorf("CameraSource = %q", cfg.CameraSource)
	}
	if cfg.MatcherKind != MatcherSimilarity {
		t.Errorf("MatcherKind = %q", cfg.MatcherKind)
	}
	if cfg.MatchThreshold != 0.75 {
		t.Errorf("MatchThreshold = %v", cfg.MatchThreshold)
	}
	if cfg.Hysteresis != 30 {
		t.Errorf("Hysteresis = %d", cfg.Hysteresis)
	}
	if !cfg.Tray {
		t.Error("Tray = false, want true")
	}
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("VIGIA_CAMERA_FPS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CameraFPS != 30 {
		t.Errorf("CameraFPS = %d, want default 30", cfg.CameraFPS)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			CameraSource: "0", CameraWidth: 1280, CameraHeight: 720, CameraFPS: 30,
			BufferCapacity: 1, ProcessEveryN: 5,
			MatcherKind: MatcherGeometric, MatchThreshold: 0.6, MatchTolerance: 0.15,
			Hysteresis: 15, DBPath: "vigia.db",
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Validate() error on good config: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.CameraWidth = 0 }},
		{"zero fps", func(c *Config) { c.CameraFPS = 0 }},
		{"zero buffer", func(c *Config) { c.BufferCapacity = 0 }},
		{"unknown matcher", func(c *Config) { c.MatcherKind = "psychic" }},
		{"threshold above 1", func(c *Config) { c.MatchThreshold = 1.5 }},
		{"negative tolerance", func(c *Config) { c.MatchTolerance = -0.1 }},
		{"zero hysteresis", func(c *Config) { c.Hysteresis = 0 }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted an invalid config")
			}
		})
	}
}
