package scene

import (
	"context"
	"fmt"
	"io"
	"net/http"
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
	"github.com/rrgeorge/FoundryToEncounter/internal/walls"
)

// addWalls folds the scene's wall segments into merged polylines.
func (a *Assembler) addWalls(entry *epmod.Map, sc *foundry.Scene, t *geometry.Transform) {
	if len(sc.Walls) == 0 {
		return
	}
	var b walls.Builder
	for _, w := range sc.Walls {
		move, sense := w.Move.Int(), w.Sense.Int()
		if w.Sight != nil {
			move, sense = walls.FoldSight(move, w.Sight.Int())
		}
		x0, y0 := t.Point(w.C[0], w.C[1])
		x1, y1 := t.Point(w.C[2], w.C[3])
		seg := walls.Segment{
			ID: w.ID,
			X0: x0, Y0: y0, X1: x1, Y1: y1,
			Move:      move,
			Sense:     sense,
			Door:      w.Door.Int(),
			DoorState: w.Ds.Int(),
		}
		if w.Dir != nil {
			dir := w.Dir.Int()
			seg.Dir = &dir
		}
		b.Add(seg)
	}
	for _, w := range b.Walls() {
		entry.Walls = append(entry.Walls, &epmod.Wall{
			ID:        a.IDs.ID(w.ID),
			Data:      w.Data,
			Type:      w.Type,
			Color:     w.Color,
			Door:      w.DoorState,
			Side:      w.Side,
			Generated: true,
		})
	}
}

// addTiles places the scene's tile overlays, converting animated webm tiles
// and oversized or webp stills on the way.
func (a *Assembler) addTiles(ctx context.Context, entry *epmod.Map, sc *foundry.Scene, t *geometry.Transform) {
	log := a.log()
	for _, src := range sc.Tiles {
		if src.Img == "" {
			continue
		}
		img := media.Unquote(src.Img)
		scale := src.Scale.Float()
		if scale == 0 {
			scale = 1
		}
		tile := &epmod.Tile{
			X:        round((src.X.Float() - t.OffsetX + src.Width.Float()*scale/2) * t.Rescale),
			Y:        round((src.Y.Float() - t.OffsetY + src.Height.Float()*scale/2) * t.Rescale),
			ZIndex:   src.Z.Int(),
			Width:    round(src.Width.Float() * scale * t.Rescale),
			Height:   round(src.Height.Float() * scale * t.Rescale),
			Opacity:  1.0,
			Rotation: src.Rotation.Float(),
			Locked:   epmod.YesNo(src.Locked),
			Layer:    "object",
			Hidden:   epmod.YesNo(src.Hidden),
			Asset: &epmod.TileAsset{
				Name: strings.TrimSuffix(path.Base(img), path.Ext(img)),
			},
		}
		entry.Tiles = append(entry.Tiles, tile)

		ext := strings.ToLower(path.Ext(img))
		if ext == ".webm" {
			a.animatedTile(ctx, tile, img)
			continue
		}
		tile.Asset.Type = "image"

		if strings.HasPrefix(img, "http") {
			local, err := a.download(img)
			if err != nil {
				log.Warn("download tile failed", logging.String("tile", img), logging.Error(err))
				continue
			}
			img = local
		}
		if !fileutil.Exists(a.abs(img)) {
			if png := fileutil.SwapExt(img, ".png"); fileutil.Exists(a.abs(png)) {
				img = png
				ext = ".png"
			} else {
				log.Warn("missing tile resource", logging.String("tile", img))
				continue
			}
		}
		pix, err := media.OpenImage(a.abs(img))
		if err != nil {
			log.Warn("open tile failed", logging.String("tile", img), logging.Error(err))
			continue
		}
		b := pix.Bounds()
		oversized := b.Dx() > media.MaxTileDim || b.Dy() > media.MaxTileDim
		if ext == ".webp" && !strings.EqualFold(a.ImageExt, ".webp") {
			dst := fileutil.SwapExt(img, ".png")
			tile.Asset.Resource = dst
			if oversized {
				pix = media.FitLimit(pix, media.MaxTileDim)
			}
			if err := media.SaveImage(pix, a.abs(dst)); err != nil {
				log.Warn("convert tile failed", logging.String("tile", img), logging.Error(err))
				continue
			}
			os.Remove(a.abs(img))
		} else {
			tile.Asset.Resource = img
			if oversized {
				pix = media.FitLimit(pix, media.MaxTileDim)
				if err := media.SaveImage(pix, a.abs(img)); err != nil {
					log.Warn("resize tile failed", logging.String("tile", img), logging.Error(err))
				}
			}
		}
	}
}

// animatedTile converts a webm tile to an animated webp asset. Without
// ffmpeg the tile stays, pointing at no resource.
func (a *Assembler) animatedTile(ctx context.Context, tile *epmod.Tile, img string) {
	log := a.log()
	src := a.abs(img)
	if !fileutil.Exists(src) || !a.Tools.HaveVideo() {
		log.Warn("cannot convert animated tile", logging.String("tile", img))
		return
	}
	probe, err := media.Probe(ctx, a.Tools.FFprobe, src)
	if err != nil {
		log.Warn("probe animated tile failed", logging.String("tile", img), logging.Error(err))
		return
	}
	if _, err := a.Tools.WebmToAnimatedWebP(ctx, src, probe.CodecName, probe.Frames, a.Progress); err != nil {
		log.Warn("convert animated tile failed", logging.String("tile", img), logging.Error(err))
		return
	}
	tile.Asset.Type = "animatedImage"
	tile.Asset.Resource = img + ".webp"
}

// download fetches a remote tile next to the staging root, returning the
// local relative path.
func (a *Assembler) download(rawURL string) (string, error) {
	resp, err := http.Get(rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: %s", rawURL, resp.Status)
	}
	name := path.Base(rawURL)
	f, err := os.Create(filepath.Join(a.Root, name))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", err
	}
	return name, nil
}

// addLights emits ambient lights, skipping ghost-animated ones the output
// format cannot express.
func (a *Assembler) addLights(entry *epmod.Map, sc *foundry.Scene, t *geometry.Transform, slug string) {
	for i, l := range sc.Lights {
		dim, bright := l.Dim.Float(), l.Bright.Float()
		tint, alpha := l.TintColor, l.TintAlpha.Float()
		if l.Config != nil {
			dim, bright = l.Config.Dim.Float(), l.Config.Bright.Float()
			if l.Config.Color != "" {
				tint = l.Config.Color
			}
			alpha = l.Config.Alpha.Float()
		}
		if l.Animation != nil && l.Animation.Type == "ghost" {
			continue
		}
		if tint == "" {
			tint = "#ffffff"
		}
		x, y := t.PointRound(l.X.Float(), l.Y.Float())
		entry.Lights = append(entry.Lights, &epmod.Light{
			ID:            a.IDs.ID(slug, "/lights/", fmt.Sprint(i), "light"),
			RadiusMax:     round(dim),
			RadiusMin:     round(bright),
			Color:         tint,
			Opacity:       alpha,
			AlwaysVisible: epmod.YesNo(l.T == "u"),
			X:             x,
			Y:             y,
		})
	}
}

// addTokens places pre-set tokens with their vision blocks and monster
// references.
func (a *Assembler) addTokens(entry *epmod.Map, sc *foundry.Scene, t *geometry.Transform, slug string) {
	for _, tok := range sc.Tokens {
		dimLight, brightLight, lightAlpha := 0.0, 0.0, 1.0
		if tok.Light != nil {
			dimLight = tok.Light.Dim.Float()
			brightLight = tok.Light.Bright.Float()
			lightAlpha = tok.Light.Alpha.Float()
		}
		if tok.DimLight != nil {
			dimLight = tok.DimLight.Float()
		}
		if tok.BrightLight != nil {
			brightLight = tok.BrightLight.Float()
		}
		if tok.LightAlpha != nil {
			lightAlpha = tok.LightAlpha.Float()
		}

		w, h := tok.Width.Float(), tok.Height.Float()
		place := t.TokenOffsets(w, h)
		scale := tok.Scale.Float()
		if scale == 0 {
			scale = 1
		}
		scale /= place.ScaleDiv

		x, y := t.PointRound(tok.X.Float(), tok.Y.Float())
		el := &epmod.Token{
			ID:        a.IDs.ID(slug, "/token/", tok.ID),
			Name:      tok.Name,
			X:         x + place.OffsetX,
			Y:         y + place.OffsetY,
			Hidden:    epmod.YesNo(tok.Hidden),
			Scale:     scale,
			Size:      geometry.TokenSize(w, h),
			Rotation:  tok.Rotation.Float(),
			Elevation: tok.Elevation.Float(),
			Reference: a.monsterRef(tok),
		}
		if img := media.Unquote(tok.Img); img != "" && fileutil.Exists(a.abs(img)) {
			el.Asset = &epmod.TokenAsset{
				ID:       a.IDs.ID(slug, "/token/", tok.ID, "/asset"),
				Name:     tok.Name,
				Type:     "image",
				Resource: img,
			}
		}
		el.Vision = &epmod.Vision{
			ID:             a.IDs.ID(slug, "/token/", tok.ID, "/vision"),
			Enabled:        epmod.YesNo(tok.Vision),
			Light:          epmod.YesNo(dimLight > 0 || brightLight > 0),
			LightRadiusMin: round(brightLight),
			LightRadiusMax: round(dimLight),
			LightOpacity:   lightAlpha,
			Dark:           epmod.YesNo(tok.DimSight.Float() > 0 || tok.BrightSight.Float() > 0),
			DarkRadiusMin:  round(tok.BrightSight.Float()),
			DarkRadiusMax:  round(tok.DimSight.Float()),
		}
		entry.Tokens = append(entry.Tokens, el)
	}
}

// monsterRef resolves a token to its compendium monster: by actor id, then
// (in compendium mode) by token name, then by slug of the token's own name.
func (a *Assembler) monsterRef(tok foundry.Token) string {
	for _, actor := range a.Actors {
		if actor.ID == tok.ActorID {
			return "/monster/" + a.actorRef(actor)
		}
	}
	if a.UseIDs {
		for _, actor := range a.Actors {
			if actor.Token.Name == tok.Name {
				return "/monster/" + a.actorRef(actor)
			}
		}
	}
	return "/monster/" + ident.Slugify(tok.Name)
}

func (a *Assembler) actorRef(actor foundry.Actor) string {
	if a.UseIDs {
		return a.IDs.ID(actor.ID)
	}
	return ident.Slugify(actor.Name)
}
