package scene

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rrgeorge/FoundryToEncounter/internal/epmod"
	"github.com/rrgeorge/FoundryToEncounter/internal/fileutil"
	"github.com/rrgeorge/FoundryToEncounter/internal/foundry"
	"github.com/rrgeorge/FoundryToEncounter/internal/geometry"
	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
	"github.com/rrgeorge/FoundryToEncounter/internal/logging"
	"github.com/rrgeorge/FoundryToEncounter/internal/media"
	"github.com/rrgeorge/FoundryToEncounter/internal/media/fontpack"
)

// Assembler builds map entries for one conversion run. Record media paths
// are relative to Root, which doubles as the staging tree the archive is
// packaged from; derived artifacts (composed backgrounds, text tiles) land
// at its top level.
type Assembler struct {
	IDs    *ident.Context
	Module *epmod.Module
	Tools  media.Tools
	Fonts  *fontpack.Resolver
	Root   string
	// ImageExt is the target extension webp stills re-encode to.
	ImageExt string
	// UseIDs switches monster references to deterministic ids.
	UseIDs bool
	// LinkMapsByName pins the journal entry whose name prefixes the map's.
	LinkMapsByName bool
	Journal        []foundry.JournalEntry
	Actors         []foundry.Actor
	Logger         *slog.Logger

	// Progress receives transcode percentages while video backgrounds
	// convert.
	Progress media.Progress
}

func round(v float64) int { return int(math.Round(v)) }

func (a *Assembler) log() *slog.Logger {
	if a.Logger == nil {
		return logging.NewNop()
	}
	return a.Logger
}

// abs resolves a record-relative media path against the staging root.
func (a *Assembler) abs(rel string) string {
	return filepath.Join(a.Root, filepath.FromSlash(rel))
}

// CreateMap converts one scene and appends it to the module. parentGroup
// overrides the scene's own folder as the navigation parent. The returned
// slug identifies the map for cover and link resolution.
func (a *Assembler) CreateMap(ctx context.Context, sc *foundry.Scene, parentGroup string) (string, error) {
	log := a.log()
	var padding *float64
	if sc.Padding != nil {
		p := sc.Padding.Float()
		padding = &p
	}
	t := geometry.New(
		sc.Width.Float(), sc.Height.Float(),
		sc.GridSize(), sc.GridKind(),
		sc.ShiftX.Float(), sc.ShiftY.Float(),
		padding)
	slug := a.IDs.UniqueSlug(sc.Name)

	img := media.Unquote(sc.Img)
	if img == "" {
		composed, err := a.composeBackground(sc, t, slug)
		if err != nil {
			return "", err
		}
		img = composed
	}
	t.ClampMapSize()

	entry := &epmod.Map{
		ID:   a.IDs.ID(sc.ID),
		Sort: sc.Sort.Int(),
		Name: sc.Name,
		Slug: slug,
	}
	if parentGroup != "" {
		entry.Parent = parentGroup
	} else if sc.Folder != "" {
		entry.Parent = a.IDs.ID(sc.Folder)
	}

	if fileutil.Exists(a.abs(img)) {
		resolved, err := a.resolveBackground(ctx, entry, t, img)
		if err != nil {
			return "", err
		}
		img = resolved
	} else {
		log.Warn("scene has no usable background", logging.String("map", sc.Name), logging.String("image", img))
		a.placeholderBackground(entry, t, slug)
		a.attachSnapshot(entry, sc)
	}
	t.FinishGrid()

	entry.GridSize = t.GridSize()
	entry.Scale = t.Realign
	entry.GridScale = int(math.Round(sc.GridDistance.Float()))
	entry.GridUnits = sc.GridUnits
	entry.GridVisible = epmod.YesNo(t.GridType != geometry.Gridless && sc.GridAlpha.Float() > 0)
	entry.GridColor = sc.GridColor
	entry.GridOffsetX, entry.GridOffsetY = t.GridOffset()
	entry.GridType = geometry.GridTypeName(t.GridType)
	entry.LineOfSight = epmod.YesNo(sc.TokenVision)
	if sc.FogExploration.Bool() {
		yes := epmod.YesNo(true)
		entry.FogOfWar = &yes
		entry.FogExploration = &yes
	}
	if sc.GlobalLight.Bool() {
		daylight := 1.0 - sc.Darkness.Float()
		entry.LosDaylight = &daylight
	}

	a.addWalls(entry, sc, t)
	a.addTiles(ctx, entry, sc, t)
	a.addLights(entry, sc, t, slug)
	a.addTokens(entry, sc, t, slug)
	a.addDrawings(ctx, entry, sc, t)
	a.addMarkers(entry, sc, t)
	a.addSoundPages(ctx, entry, sc, t)

	a.Module.Maps = append(a.Module.Maps, entry)
	return slug, nil
}

// composeBackground builds a background for scenes that declare none. When
// the first tile covers at least 90% of the canvas it is treated as the
// background and consumed; otherwise the canvas stays gray.
func (a *Assembler) composeBackground(sc *foundry.Scene, t *geometry.Transform, slug string) (string, error) {
	canvasW, canvasH := t.Width, t.Height
	var canvas = media.Placeholder(canvasW, canvasH, color.Gray{Y: 0x80})
	if len(sc.Tiles) > 0 &&
		sc.Tiles[0].Width.Float() >= float64(canvasW)*0.9 &&
		sc.Tiles[0].Height.Float() >= float64(canvasH)*0.9 {
		bg := sc.Tiles[0]
		sc.Tiles = sc.Tiles[1:]
		src := media.Unquote(bg.Img)
		tile, err := media.OpenImage(a.abs(src))
		if err != nil {
			return "", fmt.Errorf("compose background for %s: %w", sc.Name, err)
		}
		tile = media.ResizeTo(tile, bg.Width.Int(), bg.Height.Int())
		scale := bg.Scale.Float()
		if scale == 0 {
			scale = 1
		}
		x := int(math.Round(bg.X.Float() - t.OffsetX))
		y := int(math.Round(bg.Y.Float() - t.OffsetY))
		canvas = media.ComposeBackground(canvasW, canvasH, tile, x, y, scale)
	}
	// No webp encoder; composed backgrounds always carry jpg.
	name := slug + "_bg.jpg"
	if err := media.SaveImage(canvas, a.abs(name)); err != nil {
		return "", fmt.Errorf("compose background for %s: %w", sc.Name, err)
	}
	return name, nil
}

// resolveBackground turns the scene's declared background into the map's
// image (and video) elements, converging the transform on the real pixel
// dimensions.
func (a *Assembler) resolveBackground(ctx context.Context, entry *epmod.Map, t *geometry.Transform, img string) (string, error) {
	log := a.log()
	ext := strings.ToLower(path.Ext(img))
	if ext == ".webm" || ext == ".mp4" {
		converted, err := a.resolveVideo(ctx, entry, t, img, ext)
		if err != nil {
			log.Warn("video background failed", logging.String("image", img), logging.Error(err))
		} else {
			img = converted
			ext = strings.ToLower(path.Ext(img))
		}
	}

	if ext == ".webp" && !strings.EqualFold(a.ImageExt, ".webp") {
		entry.Image = fileutil.SwapExt(img, a.ImageExt)
	} else {
		entry.Image = img
	}

	pix, err := media.OpenImage(a.abs(img))
	if err != nil {
		return "", fmt.Errorf("open background %s: %w", img, err)
	}
	b := pix.Bounds()
	mapAspect := float64(t.Width) / float64(t.Height)
	imgAspect := float64(b.Dx()) / float64(b.Dy())
	if mapAspect != imgAspect && (b.Dx() != t.Width || b.Dy() != t.Height) {
		log.Info("resizing background to declared canvas",
			logging.String("image", img),
			logging.Int("width", t.Width), logging.Int("height", t.Height))
		pix = media.ResizeTo(pix, t.Width, t.Height)
		if err := media.SaveImage(pix, a.abs(img)); err != nil {
			return "", err
		}
		b = pix.Bounds()
	}
	switch {
	case b.Dx() > media.MaxMapDim || b.Dy() > media.MaxMapDim:
		pix, _ = media.FitMapLimit(pix)
		if ext == ".webp" && !strings.EqualFold(a.ImageExt, ".webp") {
			dst := fileutil.SwapExt(img, a.ImageExt)
			if err := media.SaveImage(pix, a.abs(dst)); err != nil {
				return "", err
			}
			os.Remove(a.abs(img))
			img = dst
		} else if err := media.SaveImage(pix, a.abs(img)); err != nil {
			return "", err
		}
		b = pix.Bounds()
	case ext == ".webp" && !strings.EqualFold(a.ImageExt, ".webp"):
		dst := fileutil.SwapExt(img, a.ImageExt)
		if err := media.SaveImage(pix, a.abs(dst)); err != nil {
			return "", err
		}
		os.Remove(a.abs(img))
		img = dst
	}
	t.ReconcileImage(b.Dx(), b.Dy())
	return img, nil
}

// resolveVideo swaps a video background for an extracted still plus a video
// element, rescaling the map to the still's dimensions.
func (a *Assembler) resolveVideo(ctx context.Context, entry *epmod.Map, t *geometry.Transform, img, ext string) (string, error) {
	if !a.Tools.HaveVideo() {
		return "", fmt.Errorf("video background %s: ffmpeg not available", img)
	}
	src := a.abs(img)
	probe, err := media.Probe(ctx, a.Tools.FFprobe, src)
	if err != nil {
		return "", err
	}
	if ext == ".webm" {
		if _, err := a.Tools.VideoToMP4(ctx, src, probe.Frames, a.Progress); err != nil {
			return "", err
		}
	}
	if _, err := a.Tools.ExtractStill(ctx, src); err != nil {
		return "", err
	}
	if ext == ".webm" {
		os.Remove(src)
	}
	still := fileutil.SwapExt(img, ".jpg")
	entry.Video = fileutil.SwapExt(img, ".mp4")

	pix, err := media.OpenImage(a.abs(still))
	if err != nil {
		return "", err
	}
	b := pix.Bounds()
	t.RescaleToImage(b.Dx(), b.Dy())
	return still, nil
}

// placeholderBackground stands in for a missing background file.
func (a *Assembler) placeholderBackground(entry *epmod.Map, t *geometry.Transform, slug string) {
	canvas := media.Placeholder(t.Width, t.Height, color.Black)
	fitted, _ := media.FitMapLimit(canvas)
	name := slug + "_bg.png"
	if err := media.SaveImage(fitted, a.abs(name)); err != nil {
		a.log().Warn("write placeholder background failed", logging.Error(err))
	}
	entry.Image = name
	b := fitted.Bounds()
	t.ReconcileImage(b.Dx(), b.Dy())
}

// attachSnapshot reuses the scene's thumbnail when the background itself was
// missing.
func (a *Assembler) attachSnapshot(entry *epmod.Map, sc *foundry.Scene) {
	thumb := media.Unquote(sc.Thumb)
	if thumb == "" || !fileutil.Exists(a.abs(thumb)) {
		return
	}
	if strings.EqualFold(path.Ext(thumb), ".webp") && !strings.EqualFold(a.ImageExt, ".webp") {
		converted, err := media.Reencode(a.abs(thumb), a.ImageExt)
		if err != nil {
			a.log().Warn("convert snapshot failed", logging.String("thumb", thumb), logging.Error(err))
			return
		}
		rel, err := filepath.Rel(a.Root, converted)
		if err != nil {
			return
		}
		entry.Snapshot = filepath.ToSlash(rel)
		return
	}
	entry.Snapshot = thumb
}
