package config

// defaultCoverNames mirrors the scene names the converter historically treats
// as a module's title card.
var defaultCoverNames = []string{
	"intro",
	"start",
	"start here",
	"title page",
	"title",
	"landing",
	"landing page",
}

// Default returns the baseline configuration before file and flag overlays.
func Default() Config {
	return Config{
		Conversion: Conversion{
			CoverNames: append([]string{}, defaultCoverNames...),
		},
		Media: Media{
			WebPTarget: ".webp",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
