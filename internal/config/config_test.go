package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("DOC_TIMEOUT", "")
	t.Setenv("SEGMENT_MODE", "")
	t.Setenv("JOB_TTL", "")
	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected WorkerCount 4, got %d", cfg.WorkerCount)
	}
	if cfg.DocTimeout != 10*time.Second {
		t.Errorf("expected DocTimeout 10s, got %s", cfg.DocTimeout)
	}
	if cfg.PassageWordCap != 200 {
		t.Errorf("expected PassageWordCap 200, got %d", cfg.PassageWordCap)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected JobTTL 1h, got %s", cfg.JobTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("DOC_TIMEOUT", "2s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("USE_BOOKMARKS", "false")
	cfg := Load()
	if cfg.WorkerCount != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.WorkerCount)
	}
	if cfg.DocTimeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %s", cfg.DocTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.LogLevel)
	}
	if cfg.UseBookmarks {
		t.Error("expected bookmarks disabled")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("DOC_TIMEOUT", "soon")
	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected fallback to 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.DocTimeout != 10*time.Second {
		t.Errorf("expected fallback timeout, got %s", cfg.DocTimeout)
	}
}

func TestValidate_SegmentMode(t *testing.T) {
	cfg := Config{SegmentMode: "chapters", Heuristics: DefaultHeuristics()}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown segment mode")
	}
}

func TestHeuristicsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Heuristics)
		wantErr bool
	}{
		{"defaults", func(h *Heuristics) {}, false},
		{"inverted sizes", func(h *Heuristics) { h.H1Size = 13 }, true},
		{"zero h3", func(h *Heuristics) { h.H3Size = 0 }, true},
		{"bold floor above h3", func(h *Heuristics) { h.BoldMinSize = 13 }, true},
		{"multiplier not above one", func(h *Heuristics) { h.TitleMultiplier = 1 }, true},
	}
	for _, tt := range tests {
		h := DefaultHeuristics()
		tt.mutate(&h)
		err := h.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error=%v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestLoadHeuristicsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.toml")
	data := "h1_size = 18.0\nheading_keywords = [\"Scope\"]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	h := DefaultHeuristics()
	if err := LoadHeuristicsFile(path, &h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.H1Size != 18 {
		t.Errorf("expected h1_size 18, got %.1f", h.H1Size)
	}
	if h.H2Size != 14 {
		t.Errorf("expected untouched h2_size 14, got %.1f", h.H2Size)
	}
	if len(h.HeadingKeywords) != 1 || h.HeadingKeywords[0] != "Scope" {
		t.Errorf("expected keywords [Scope], got %v", h.HeadingKeywords)
	}
}

func TestLoadHeuristicsFile_Missing(t *testing.T) {
	h := DefaultHeuristics()
	if err := LoadHeuristicsFile(filepath.Join(t.TempDir(), "nope.toml"), &h); err == nil {
		t.Error("expected error for missing file")
	}
}
