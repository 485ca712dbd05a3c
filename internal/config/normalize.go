package config

import (
	"fmt"
	"strings"
)

// Normalize trims and canonicalizes option values in place.
func (c *Config) Normalize() error {
	c.Conversion.Output = strings.TrimSpace(c.Conversion.Output)
	c.Conversion.PackDir = strings.TrimSpace(c.Conversion.PackDir)
	c.Conversion.System = strings.TrimSpace(c.Conversion.System)

	names := c.Conversion.CoverNames[:0]
	for _, name := range c.Conversion.CoverNames {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			names = append(names, name)
		}
	}
	c.Conversion.CoverNames = names

	target := strings.ToLower(strings.TrimSpace(c.Media.WebPTarget))
	if target != "" && !strings.HasPrefix(target, ".") {
		target = "." + target
	}
	if target == "" {
		target = ".webp"
	}
	c.Media.WebPTarget = target
	if c.Media.KeepWebP {
		c.Media.WebPTarget = ".webp"
	}
	c.Media.FFmpeg = strings.TrimSpace(c.Media.FFmpeg)
	c.Media.FFprobe = strings.TrimSpace(c.Media.FFprobe)

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

// Validate rejects option combinations the converter cannot honor.
func (c *Config) Validate() error {
	switch c.Media.WebPTarget {
	case ".webp", ".jpg", ".png":
	default:
		return fmt.Errorf("media webp_target: unsupported extension %q", c.Media.WebPTarget)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// ConvertWebP reports whether WebP sources should be re-encoded.
func (c *Config) ConvertWebP() bool {
	return !c.Media.KeepWebP && c.Media.WebPTarget != ".webp"
}
