// Package config loads vigia settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the monitor.
type Config struct {
	// Camera
	CameraSource string // device index ("0") or stream URL
	CameraWidth  int
	CameraHeight int
	CameraFPS    int

	// Pipeline
	BufferCapacity int // 1 keeps only the latest frame
	ProcessEveryN  int // run the detector on every Nth frame

	// Matching
	MatcherKind    string // "geometric" or "similarity"
	MatchThreshold float64
	MatchTolerance float64
	Hysteresis     int

	// Detector
	FaceCascade string
	EyeCascade  string

	// Surfaces
	HTTPAddr      string
	DBPath        string
	HooksDir      string
	HookTimeoutMs int
	Tray          bool
}

// Matcher kinds.
const (
	MatcherGeometric  = "geometric"
	MatcherSimilarity = "similarity"
)

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables win over it.
func Load() (*Config, error) {
	// Missing .env is fine, the environment alone is a full config.
	_ = godotenv.Load()

	cfg := &Config{
		CameraSource:   envStr("VIGIA_CAMERA_SOURCE", "0"),
		CameraWidth:    envInt("VIGIA_CAMERA_WIDTH", 1280),
		CameraHeight:   envInt("VIGIA_CAMERA_HEIGHT", 720),
		CameraFPS:      envInt("VIGIA_CAMERA_FPS", 30),
		BufferCapacity: envInt("VIGIA_BUFFER_CAPACITY", 1),
		ProcessEveryN:  envInt("VIGIA_PROCESS_EVERY_N", 5),
		MatcherKind:    envStr("VIGIA_MATCHER", MatcherGeometric),
		MatchThreshold: envFloat("VIGIA_MATCH_THRESHOLD", 0.6),
		MatchTolerance: envFloat("VIGIA_MATCH_TOLERANCE", 0.15),
		Hysteresis:     envInt("VIGIA_HYSTERESIS", 15),
		FaceCascade:    envStr("VIGIA_FACE_CASCADE", "haarcascade_frontalface_default.xml"),
		EyeCascade:     envStr("VIGIA_EYE_CASCADE", "haarcascade_eye.xml"),
		HTTPAddr:       envStr("VIGIA_HTTP_ADDR", ":8080"),
		DBPath:         envStr("VIGIA_DB_PATH", "vigia.db"),
		HooksDir:       envStr("VIGIA_HOOKS_DIR", "hooks"),
		HookTimeoutMs:  envInt("VIGIA_HOOK_TIMEOUT_MS", 5000),
		Tray:           envBool("VIGIA_TRAY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all settings are in range.
func (c *Config) Validate() error {
	if c.CameraWidth <= 0 || c.CameraHeight <= 0 {
		return fmt.Errorf("invalid camera resolution %dx%d", c.CameraWidth, c.CameraHeight)
	}
	if c.CameraFPS <= 0 {
		return fmt.Errorf("invalid camera fps %d", c.CameraFPS)
	}
	if c.BufferCapacity < 1 {
		return fmt.Errorf("buffer capacity must be at least 1, got %d", c.BufferCapacity)
	}
	if c.ProcessEveryN < 1 {
		return fmt.Errorf("process-every-n must be at least 1, got %d", c.ProcessEveryN)
	}
	if c.MatcherKind != MatcherGeometric && c.MatcherKind != MatcherSimilarity {
		return fmt.Errorf("unknown matcher kind %q", c.MatcherKind)
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("match threshold %v out of range [0, 1]", c.MatchThreshold)
	}
	if c.MatchTolerance <= 0 {
		return fmt.Errorf("match tolerance must be positive, got %v", c.MatchTolerance)
	}
	if c.Hysteresis < 1 {
		return fmt.Errorf("hysteresis must be at least 1, got %d", c.Hysteresis)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is empty")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
