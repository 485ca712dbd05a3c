package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Errorf("missing file reported as existing")
	}
	if cfg.Media.WebPTarget != ".webp" {
		t.Errorf("webp target = %q, want default .webp", cfg.Media.WebPTarget)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
	if len(cfg.Conversion.CoverNames) == 0 {
		t.Errorf("default cover names empty")
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[conversion]\ncompendium = true\ncover_names = [\" Finale \"]\n\n[media]\nwebp_target = \"jpg\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Errorf("existing file reported missing")
	}
	if !cfg.Conversion.Compendium {
		t.Errorf("compendium not overlaid")
	}
	if cfg.Media.WebPTarget != ".jpg" {
		t.Errorf("webp target = %q, want normalized .jpg", cfg.Media.WebPTarget)
	}
	if len(cfg.Conversion.CoverNames) != 1 || cfg.Conversion.CoverNames[0] != "finale" {
		t.Errorf("cover names = %v, want lowercased and trimmed", cfg.Conversion.CoverNames)
	}
}

func TestKeepWebPForcesTarget(t *testing.T) {
	cfg := Default()
	cfg.Media.KeepWebP = true
	cfg.Media.WebPTarget = ".jpg"
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Media.WebPTarget != ".webp" {
		t.Errorf("webp target = %q, want .webp when keeping webp", cfg.Media.WebPTarget)
	}
	if cfg.ConvertWebP() {
		t.Errorf("ConvertWebP true while keeping webp")
	}
}

func TestValidateRejectsUnknownTarget(t *testing.T) {
	cfg := Default()
	cfg.Media.WebPTarget = ".gif"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unsupported webp target")
	}
}
