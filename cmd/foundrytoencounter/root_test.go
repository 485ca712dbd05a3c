package main

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/rrgeorge/FoundryToEncounter/internal/config"
)

func parseTestFlags(t *testing.T, args []string) (*cobra.Command, *rootFlags) {
	t.Helper()
	fl := &rootFlags{}
	cmd := &cobra.Command{}
	bindFlags(cmd.Flags(), fl)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd, fl
}

func TestApplyFlagsOverridesConfig(t *testing.T) {
	cmd, fl := parseTestFlags(t, []string{
		"-o", "out.module", "-j", "--no-journal", "--cover", " Finale ", "--cover", "EPILOGUE",
	})
	cfg := config.Default()
	applyFlags(cmd, &cfg, fl)

	if cfg.Conversion.Output != "out.module" {
		t.Errorf("output = %q", cfg.Conversion.Output)
	}
	if !cfg.Conversion.SkipJournals {
		t.Errorf("no-journal flag not applied")
	}
	if cfg.Media.WebPTarget != ".jpg" {
		t.Errorf("webp target = %q, want .jpg", cfg.Media.WebPTarget)
	}
	want := []string{"finale", "epilogue"}
	if len(cfg.Conversion.CoverNames) != len(want) {
		t.Fatalf("cover names = %v", cfg.Conversion.CoverNames)
	}
	for i, name := range want {
		if cfg.Conversion.CoverNames[i] != name {
			t.Errorf("cover[%d] = %q, want %q", i, cfg.Conversion.CoverNames[i], name)
		}
	}
}

func TestApplyFlagsKeepsConfigDefaults(t *testing.T) {
	cmd, fl := parseTestFlags(t, []string{"-p", "tokens"})
	cfg := config.Default()
	cfg.Conversion.Output = "from-config.module"
	applyFlags(cmd, &cfg, fl)

	if cfg.Conversion.PackDir != "tokens" {
		t.Errorf("pack dir = %q", cfg.Conversion.PackDir)
	}
	if cfg.Conversion.Output != "from-config.module" {
		t.Errorf("unset flag clobbered config output: %q", cfg.Conversion.Output)
	}
	if cfg.Media.WebPTarget != ".webp" {
		t.Errorf("webp target = %q, want untouched default", cfg.Media.WebPTarget)
	}
	if len(cfg.Conversion.CoverNames) == 0 {
		t.Errorf("default cover names dropped")
	}
}

func TestFinishedMessage(t *testing.T) {
	if got := finishedMessage("adventure.module"); got != "Finished creating module: adventure.module" {
		t.Errorf("module message = %q", got)
	}
	if got := finishedMessage("tokens.pack"); got != "Finished creating pack: tokens.pack" {
		t.Errorf("pack message = %q", got)
	}
}
