package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Conversion contains the options steering a single conversion run.
type Conversion struct {
	// Output is the output archive path; empty means "<name>.module"
	// (or "<name>.pack" in asset-pack mode) in the working directory.
	Output string `toml:"output"`
	// PackDir switches to asset-pack mode: the given directory inside the
	// source tree is walked and emitted as a pack instead of a module.
	PackDir string `toml:"pack_dir"`
	// PackName appends the pack directory basename to the module name.
	PackName bool `toml:"pack_name"`
	// Compendium emits compendium.xml with actors and items.
	Compendium bool `toml:"compendium"`
	// LinkMaps attaches a bookmark marker to pages sharing a map's name.
	LinkMaps bool `toml:"link_maps"`
	// System restricts manifest packs to the named game system.
	System string `toml:"system"`
	// SkipJournals drops all journal entries from the output.
	SkipJournals bool `toml:"skip_journals"`
	// CoverNames lists scene names (lowercased) eligible as cover image.
	CoverNames []string `toml:"cover_names"`
}

// Media contains the image/video handling options.
type Media struct {
	// WebPTarget is the extension maps are re-encoded to when WebP
	// conversion is requested: ".webp" leaves maps alone, ".jpg" converts
	// maps to JPEG and tiles to PNG.
	WebPTarget string `toml:"webp_target"`
	// KeepWebP disables WebP re-encoding entirely.
	KeepWebP bool `toml:"keep_webp"`
	// FFmpeg and FFprobe override the binaries found on PATH.
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for the converter.
type Config struct {
	Conversion Conversion `toml:"conversion"`
	Media      Media      `toml:"media"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/foundrytoencounter/config.toml")
}

// Load parses and validates a configuration file. A missing file is not an
// error: defaults are returned and the second result reports existence.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, false, err
	}
	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if pathValue == "~" || (len(pathValue) > 1 && pathValue[0] == '~' && os.IsPathSeparator(pathValue[1])) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
