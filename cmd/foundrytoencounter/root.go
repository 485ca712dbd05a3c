package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rrgeorge/FoundryToEncounter/internal/config"
	"github.com/rrgeorge/FoundryToEncounter/internal/converter"
	"github.com/rrgeorge/FoundryToEncounter/internal/logging"
)

type rootFlags struct {
	config     string
	output     string
	packDir    string
	packName   bool
	compendium bool
	jpeg       bool
	keepWebP   bool
	linkMaps   bool
	noJournal  bool
	system     string
	covers     []string
	gui        bool
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	fl := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "foundrytoencounter [flags] <world.zip|manifest-url>",
		Short:         "Convert a Foundry VTT world or module to an EncounterPlus module",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], fl)
		},
	}
	bindFlags(rootCmd.Flags(), fl)
	return rootCmd
}

func bindFlags(f *pflag.FlagSet, fl *rootFlags) {
	f.StringVar(&fl.config, "config", "", "configuration file path")
	f.StringVarP(&fl.output, "output", "o", "", "output archive path")
	f.StringVarP(&fl.packDir, "packdir", "p", "", "convert the named asset directory into an asset pack")
	f.BoolVar(&fl.packName, "packname", false, "append the pack directory name to the module name")
	f.BoolVarP(&fl.compendium, "compendium", "c", false, "include items and actors as a compendium")
	f.BoolVarP(&fl.jpeg, "jpeg", "j", false, "convert WebP maps to JPEG and WebP tiles to PNG")
	f.BoolVar(&fl.keepWebP, "keep-webp", false, "leave WebP artwork unconverted")
	f.BoolVar(&fl.linkMaps, "link-maps", false, "bookmark each map on the journal entry sharing its name")
	f.BoolVar(&fl.noJournal, "no-journal", false, "drop journal entries from the output")
	f.StringVar(&fl.system, "system", "", "restrict manifest packs to the named game system")
	f.StringSliceVar(&fl.covers, "cover", nil, "scene names eligible as the module cover")
	f.BoolVarP(&fl.gui, "gui", "g", false, "render conversion progress as a live display")
	f.StringVar(&fl.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&fl.logFormat, "log-format", "", "log format (console, json)")
}

func runConvert(cmd *cobra.Command, source string, fl *rootFlags) error {
	cfg, _, err := config.Load(fl.config)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, fl)

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: os.Stderr,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := converter.Options{
		Source:     source,
		Output:     cfg.Conversion.Output,
		PackDir:    cfg.Conversion.PackDir,
		PackName:   cfg.Conversion.PackName,
		Compendium: cfg.Conversion.Compendium,
		LinkMaps:   cfg.Conversion.LinkMaps,
		NoJournal:  cfg.Conversion.SkipJournals,
		System:     cfg.Conversion.System,
		CoverNames: cfg.Conversion.CoverNames,
		ImageExt:   cfg.Media.WebPTarget,
		FFmpeg:     cfg.Media.FFmpeg,
		FFprobe:    cfg.Media.FFprobe,
		Logger:     logger,
	}
	if fl.gui && interactiveTerminal(os.Stderr) {
		ui := newProgressUI(os.Stderr)
		defer ui.stop()
		opts.Progress = ui.report
	}

	out, err := converter.Run(ctx, opts)
	if err != nil {
		return err
	}
	// Status goes to stderr with the rest of the run's output; stdout
	// stays reserved.
	fmt.Fprintln(cmd.ErrOrStderr(), finishedMessage(out))
	return nil
}

func finishedMessage(out string) string {
	kind := "module"
	if strings.HasSuffix(out, ".pack") {
		kind = "pack"
	}
	return fmt.Sprintf("Finished creating %s: %s", kind, out)
}

// applyFlags overlays explicitly set command-line flags onto the loaded
// configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config, fl *rootFlags) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Conversion.Output = fl.output
	}
	if flags.Changed("packdir") {
		cfg.Conversion.PackDir = fl.packDir
	}
	if flags.Changed("packname") {
		cfg.Conversion.PackName = fl.packName
	}
	if flags.Changed("compendium") {
		cfg.Conversion.Compendium = fl.compendium
	}
	if flags.Changed("link-maps") {
		cfg.Conversion.LinkMaps = fl.linkMaps
	}
	if flags.Changed("no-journal") {
		cfg.Conversion.SkipJournals = fl.noJournal
	}
	if flags.Changed("system") {
		cfg.Conversion.System = fl.system
	}
	if flags.Changed("cover") {
		names := make([]string, 0, len(fl.covers))
		for _, name := range fl.covers {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				names = append(names, name)
			}
		}
		cfg.Conversion.CoverNames = names
	}
	if fl.jpeg {
		cfg.Media.WebPTarget = ".jpg"
		cfg.Media.KeepWebP = false
	}
	if fl.keepWebP {
		cfg.Media.KeepWebP = true
		cfg.Media.WebPTarget = ".webp"
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = fl.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = fl.logFormat
	}
}
