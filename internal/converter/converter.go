package converter

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rrgeorge/FoundryToEncounter/internal/compendium"
	"github.com/rrgeorge/FoundryToEncounter/internal/epmod"
	"github.com/rrgeorge/FoundryToEncounter/internal/fileutil"
	"github.com/rrgeorge/FoundryToEncounter/internal/foundry"
	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
	"github.com/rrgeorge/FoundryToEncounter/internal/logging"
	"github.com/rrgeorge/FoundryToEncounter/internal/media"
	"github.com/rrgeorge/FoundryToEncounter/internal/media/fontpack"
	"github.com/rrgeorge/FoundryToEncounter/internal/richtext"
	"github.com/rrgeorge/FoundryToEncounter/internal/scene"
)

// Stage identifies a phase of the run for progress reporting.
type Stage string

const (
	StageDownload   Stage = "download"
	StageFolders    Stage = "folders"
	StageJournal    Stage = "journal"
	StagePlaylists  Stage = "playlists"
	StageTables     Stage = "tables"
	StageMaps       Stage = "maps"
	StageAssets     Stage = "assets"
	StageCompendium Stage = "compendium"
	StagePackage    Stage = "package"
)

// ProgressFunc receives per-stage completion counts; total is zero for
// indeterminate work.
type ProgressFunc func(stage Stage, done, total int)

// DefaultCoverNames are the scene names eligible as module cover when no
// explicit cover scene is requested.
var DefaultCoverNames = []string{
	"intro", "start", "start here", "title page", "title", "landing", "landing page",
}

// Options steer one conversion run.
type Options struct {
	// Source is a local Foundry zip or a manifest URL.
	Source string
	// Output is the archive path; empty derives it from the module code.
	Output string
	// PackDir switches to asset-pack mode, walking the named directory of
	// the source tree instead of converting content.
	PackDir string
	// PackName appends the pack directory basename to the module name.
	PackName bool
	// Compendium emits compendium.xml and switches links to record ids.
	Compendium bool
	// LinkMaps pins each map to the first journal entry sharing its name.
	LinkMaps bool
	// NoJournal drops journal entries from the output.
	NoJournal bool
	// System restricts module packs to the named game system.
	System string
	// CoverNames lists lowercased scene names eligible as the cover image.
	CoverNames []string
	// ImageExt is the extension webp artwork converts to; ".webp" keeps
	// webp files untouched.
	ImageExt string
	// FFmpeg and FFprobe override binary discovery.
	FFmpeg  string
	FFprobe string

	Logger   *slog.Logger
	Progress ProgressFunc
}

type converter struct {
	opts   Options
	log    *slog.Logger
	ids    *ident.Context
	src    *foundry.Source
	module *epmod.Module
	text   *richtext.Index
	tools  media.Tools
	// root is the staging tree the archive is packaged from; record media
	// paths resolve relative to it.
	root string

	maxOrder  int
	groupSort int
}

var tagRe = regexp.MustCompile(`<.*?>`)

// Run executes a conversion and returns the written archive path.
func Run(ctx context.Context, opts Options) (string, error) {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	if opts.ImageExt == "" {
		opts.ImageExt = ".webp"
	}
	if len(opts.CoverNames) == 0 {
		opts.CoverNames = DefaultCoverNames
	}

	root, err := os.MkdirTemp("", "foundrytoencounter_")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(root)

	srcPath := opts.Source
	if foundry.IsURL(srcPath) {
		dlDir, err := os.MkdirTemp("", "foundrydl_")
		if err != nil {
			return "", fmt.Errorf("create download dir: %w", err)
		}
		defer os.RemoveAll(dlDir)
		srcPath, err = foundry.FetchManifest(ctx, opts.Source, dlDir, func(done, total int64) {
			if opts.Progress != nil {
				opts.Progress(StageDownload, int(done), int(total))
			}
		})
		if err != nil {
			return "", err
		}
	}

	src, err := foundry.ReadArchive(srcPath, root, foundry.ReadOptions{
		System:  opts.System,
		PackDir: opts.PackDir,
		Logger:  log,
	})
	if err != nil {
		return "", err
	}
	if src.PackDir != "" && opts.PackName {
		suffix := " " + filepath.Base(src.PackDir)
		src.Manifest.Name += suffix
		src.Manifest.Title += suffix
	}
	if opts.NoJournal {
		src.Journal = nil
	}

	c := &converter{
		opts:  opts,
		log:   log,
		ids:   ident.NewContextAt(src.Manifest.Name, root),
		src:   src,
		tools: media.Discover(opts.FFmpeg, opts.FFprobe),
		root:  root,
	}
	c.module = c.newDocument()
	c.text = c.newTextIndex()

	if src.PackDir != "" {
		return c.runPack(ctx)
	}
	return c.runModule(ctx)
}

// newDocument builds the output root element from the source manifest.
func (c *converter) newDocument() *epmod.Module {
	m := c.src.Manifest
	version := m.Version.String()
	if version == "" {
		version = "1"
	}
	var doc *epmod.Module
	if c.src.PackDir != "" {
		doc = epmod.NewPack(c.ids.Namespace().String(), version)
	} else {
		doc = epmod.NewModule(c.ids.Namespace().String(), version)
	}
	doc.Name = m.Title
	doc.Author = strings.Join(m.Author, ", ")
	doc.Code = m.Name
	doc.Slug = ident.Slugify(m.Title)
	doc.Description = tagRe.ReplaceAllString(html.UnescapeString(m.Description), "")
	return doc
}

// newTextIndex indexes every record the content rewriter can link to.
func (c *converter) newTextIndex() *richtext.Index {
	x := &richtext.Index{
		IDs:          c.ids,
		UseIDs:       c.opts.Compendium,
		PackEntities: map[string]string{},
	}
	for _, j := range c.src.Journal {
		x.Journal = append(x.Journal, richtext.Ref{ID: j.ID, Name: j.Name})
	}
	for _, s := range c.src.Scenes {
		x.Maps = append(x.Maps, richtext.Ref{ID: s.ID, Name: s.Name})
	}
	for _, a := range c.src.Actors {
		x.Actors = append(x.Actors, richtext.Ref{ID: a.ID, Name: a.Name})
	}
	for _, i := range c.src.Items {
		x.Items = append(x.Items, richtext.Ref{
			ID:      i.ID,
			Name:    i.Name,
			IsSpell: strings.EqualFold(i.Type, "spell"),
		})
	}
	for _, p := range c.src.Manifest.Packs {
		x.PackEntities[p.Name] = p.Entity
	}
	return x
}

// runModule converts world/module content and packages the staging tree.
func (c *converter) runModule(ctx context.Context) (string, error) {
	c.assignSort()
	c.addFolders()
	c.addJournal()
	c.addPlaylists(ctx)
	c.addTables()
	if err := c.addCover(ctx, c.root); err != nil {
		c.log.Warn("cover image failed", logging.Error(err))
	}
	if err := c.addMaps(ctx); err != nil {
		return "", err
	}
	c.fallbackCover()
	c.module.PruneGroups()

	if err := c.module.WriteManifest(filepath.Join(c.root, c.module.ManifestName())); err != nil {
		return "", err
	}
	c.stageStyles()

	if c.opts.Compendium && len(c.src.Items)+len(c.src.Actors) > 0 {
		b := &compendium.Builder{
			IDs:        c.ids,
			Text:       c.text,
			StagingDir: c.root,
			ImageExt:   c.opts.ImageExt,
			Logger:     c.log,
			Progress: func(done, total int) {
				c.progress(StageCompendium, done, total)
			},
		}
		comp, err := b.Build(c.src.Items, c.src.Actors)
		if err != nil {
			return "", err
		}
		if err := epmod.WriteCompendium(filepath.Join(c.root, "compendium.xml"), comp); err != nil {
			return "", err
		}
	}
	return c.packageArchive()
}

// runPack walks the asset directory and packages a flattened asset pack.
func (c *converter) runPack(ctx context.Context) (string, error) {
	staging := filepath.Join(c.root, "packdir")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("create pack staging: %w", err)
	}
	if err := c.packAssets(ctx, staging); err != nil {
		return "", err
	}
	if err := c.addCover(ctx, staging); err != nil {
		c.log.Warn("cover image failed", logging.Error(err))
	}
	c.module.PruneGroups()
	if err := c.module.WriteManifest(filepath.Join(staging, c.module.ManifestName())); err != nil {
		return "", err
	}
	out := c.outputPath()
	c.progress(StagePackage, 0, 0)
	if err := epmod.Package(staging, out, true, c.log); err != nil {
		return "", err
	}
	c.log.Info("finished creating pack", logging.String("file", out))
	return out, nil
}

func (c *converter) packageArchive() (string, error) {
	out := c.outputPath()
	c.progress(StagePackage, 0, 0)
	if err := epmod.Package(c.root, out, false, c.log); err != nil {
		return "", err
	}
	c.log.Info("finished creating module", logging.String("file", out))
	return out, nil
}

func (c *converter) outputPath() string {
	if c.opts.Output != "" {
		return c.opts.Output
	}
	return c.module.DefaultArchiveName()
}

func (c *converter) progress(stage Stage, done, total int) {
	if c.opts.Progress != nil {
		c.opts.Progress(stage, done, total)
	}
}

// stageStyles concatenates the module's stylesheets into a single custom
// stylesheet and carries its fonts directory over.
func (c *converter) stageStyles() {
	m := c.src.Manifest
	if len(m.Styles) > 0 {
		cssDir := filepath.Join(c.root, "assets", "css")
		if err := os.MkdirAll(cssDir, 0o755); err != nil {
			c.log.Warn("create css dir failed", logging.Error(err))
			return
		}
		out, err := os.OpenFile(filepath.Join(cssDir, "custom.css"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			c.log.Warn("write custom.css failed", logging.Error(err))
			return
		}
		defer out.Close()
		for _, style := range m.Styles {
			src := filepath.Join(c.src.ContentRoot, filepath.FromSlash(style))
			data, err := os.ReadFile(src)
			if err != nil {
				continue
			}
			if _, err := out.Write(data); err != nil {
				c.log.Warn("write custom.css failed", logging.Error(err))
				return
			}
		}
	}
	fonts := filepath.Join(c.src.ContentRoot, "fonts")
	if fileutil.Exists(fonts) {
		if err := os.MkdirAll(filepath.Join(c.root, "assets"), 0o755); err != nil {
			return
		}
		if err := os.Rename(fonts, filepath.Join(c.root, "assets", "fonts")); err != nil {
			c.log.Warn("move fonts failed", logging.Error(err))
		}
	}
}

// newAssembler wires the scene assembler for this run.
func (c *converter) newAssembler() *scene.Assembler {
	return &scene.Assembler{
		IDs:            c.ids,
		Module:         c.module,
		Tools:          c.tools,
		Fonts:          fontpack.NewResolver(filepath.Join(c.src.ContentRoot, "fonts"), c.root),
		Root:           c.root,
		ImageExt:       c.opts.ImageExt,
		UseIDs:         c.opts.Compendium,
		LinkMapsByName: c.opts.LinkMaps,
		Journal:        c.src.Journal,
		Actors:         c.src.Actors,
		Logger:         c.log,
	}
}
