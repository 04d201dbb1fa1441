package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmptyTuningConfigDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if cfg.GetIOUThreshold() != 0.3 {
		t.Errorf("GetIOUThreshold() = %f, want 0.3", cfg.GetIOUThreshold())
	}
	if cfg.GetMaxFramesMissing() != 10 {
		t.Errorf("GetMaxFramesMissing() = %d, want 10", cfg.GetMaxFramesMissing())
	}
	if cfg.GetSmoothingFactor() != 0.15 {
		t.Errorf("GetSmoothingFactor() = %f, want 0.15", cfg.GetSmoothingFactor())
	}
	if cfg.GetDwellThresholdMs() != 250 {
		t.Errorf("GetDwellThresholdMs() = %f, want 250", cfg.GetDwellThresholdMs())
	}
	if cfg.GetSpeculativeFraction() != 0.6 {
		t.Errorf("GetSpeculativeFraction() = %f, want 0.6", cfg.GetSpeculativeFraction())
	}
	if cfg.GetFocusRadius() != 0.12 {
		t.Errorf("GetFocusRadius() = %f, want 0.12", cfg.GetFocusRadius())
	}
	if cfg.GetDetectionInterval() != 100*time.Millisecond {
		t.Errorf("GetDetectionInterval() = %v, want 100ms", cfg.GetDetectionInterval())
	}
	if cfg.GetAIAttachHold() != 30*time.Second {
		t.Errorf("GetAIAttachHold() = %v, want 30s", cfg.GetAIAttachHold())
	}
	if cfg.GetAnalysisTimeout() != 0 {
		t.Errorf("GetAnalysisTimeout() = %v, want 0 (disabled)", cfg.GetAnalysisTimeout())
	}
}

func TestDefaultTuningConfigRoundTripsGetters(t *testing.T) {
	cfg := DefaultTuningConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultTuningConfig() failed validation: %v", err)
	}
	if cfg.IOUThreshold == nil || *cfg.IOUThreshold != 0.3 {
		t.Errorf("Expected IOUThreshold 0.3, got %v", cfg.IOUThreshold)
	}
	if cfg.RenderInterval == nil || *cfg.RenderInterval != "16ms" {
		t.Errorf("Expected RenderInterval '16ms', got %v", cfg.RenderInterval)
	}
	if got := cfg.GetMaxVelocityDt(); got != time.Second {
		t.Errorf("GetMaxVelocityDt() = %v, want 1s", got)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "iou_threshold": 0.4,
  "max_frames_missing": 5,
  "dwell_threshold_ms": 500,
  "render_interval": "33ms",
  "analysis_timeout": "5s",
  "class_labels": {"person": "OPERATOR"}
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetIOUThreshold() != 0.4 {
		t.Errorf("GetIOUThreshold() = %f, want 0.4", cfg.GetIOUThreshold())
	}
	if cfg.GetMaxFramesMissing() != 5 {
		t.Errorf("GetMaxFramesMissing() = %d, want 5", cfg.GetMaxFramesMissing())
	}
	if cfg.GetDwellThresholdMs() != 500 {
		t.Errorf("GetDwellThresholdMs() = %f, want 500", cfg.GetDwellThresholdMs())
	}
	if cfg.GetRenderInterval() != 33*time.Millisecond {
		t.Errorf("GetRenderInterval() = %v, want 33ms", cfg.GetRenderInterval())
	}
	if cfg.GetAnalysisTimeout() != 5*time.Second {
		t.Errorf("GetAnalysisTimeout() = %v, want 5s", cfg.GetAnalysisTimeout())
	}
	// Unset fields keep their defaults.
	if cfg.GetSmoothingFactor() != 0.15 {
		t.Errorf("GetSmoothingFactor() = %f, want default 0.15", cfg.GetSmoothingFactor())
	}
	if cfg.ClassLabels["person"] != "OPERATOR" {
		t.Errorf("ClassLabels[person] = %q, want OPERATOR", cfg.ClassLabels["person"])
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigWrongExtension(t *testing.T) {
	_, err := LoadTuningConfig("config.yaml")
	if err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "iou_threshold": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := LoadTuningConfig(configPath); err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{"empty config", EmptyTuningConfig(), false},
		{"iou in range", &TuningConfig{IOUThreshold: ptrFloat64(0.5)}, false},
		{"iou above one", &TuningConfig{IOUThreshold: ptrFloat64(1.5)}, true},
		{"negative smoothing", &TuningConfig{SmoothingFactor: ptrFloat64(-0.1)}, true},
		{"blend sum above one", &TuningConfig{ConfidenceBlendBase: ptrFloat64(0.8)}, true},
		{"zero dwell", &TuningConfig{DwellThresholdMs: ptrFloat64(0)}, true},
		{"negative focus radius", &TuningConfig{FocusRadius: ptrFloat64(-1)}, true},
		{"zero max tracks", &TuningConfig{MaxTracks: ptrInt(0)}, true},
		{"negative max frames missing", &TuningConfig{MaxFramesMissing: ptrInt(-1)}, true},
		{"bad duration", &TuningConfig{RenderInterval: ptrString("fast")}, true},
		{"negative duration", &TuningConfig{AnalysisTimeout: ptrString("-1s")}, true},
		{"empty timeout allowed", &TuningConfig{AnalysisTimeout: ptrString("")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.GetDwellThresholdMs() != 250 {
		t.Errorf("defaults file dwell_threshold_ms = %f, want 250", cfg.GetDwellThresholdMs())
	}
	if cfg.GetMinDetectionScore() != 0.55 {
		t.Errorf("defaults file min_detection_score = %f, want 0.55", cfg.GetMinDetectionScore())
	}
}

func TestGetDurationFallsBackOnParseError(t *testing.T) {
	cfg := &TuningConfig{DetectionInterval: ptrString("not-a-duration")}
	if got := cfg.GetDetectionInterval(); got != 100*time.Millisecond {
		t.Errorf("GetDetectionInterval() = %v, want fallback 100ms", got)
	}
}
