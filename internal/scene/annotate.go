package scene

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
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

// addDrawings converts text drawings into rendered text tiles and polyline
// drawings into drawing elements.
func (a *Assembler) addDrawings(ctx context.Context, entry *epmod.Map, sc *foundry.Scene, t *geometry.Transform) {
	log := a.log()
	for _, d := range sc.Drawings {
		switch d.Type {
		case "t":
			// Foundry font sizes are in pt at 0.75 px/pt.
			size := float64(round(d.FontSize.Float() / 0.75))
			face := a.Fonts.Face(ctx, d.FontFamily, size)
			w, h := round(d.Width.Float()), round(d.Height.Float())
			img := fontpack.Render(face, d.Text, w, h)
			name := "text_" + d.ID + ".png"
			if err := media.SaveImage(img, a.abs(name)); err != nil {
				log.Warn("render text drawing failed", logging.String("drawing", d.ID), logging.Error(err))
				continue
			}
			entry.Tiles = append(entry.Tiles, &epmod.Tile{
				X:        round((d.X.Float() - t.OffsetX + d.Width.Float()/2) * t.Rescale),
				Y:        round((d.Y.Float() - t.OffsetY + d.Height.Float()/2) * t.Rescale),
				ZIndex:   d.Z.Int(),
				Width:    t.LengthRound(d.Width.Float()),
				Height:   t.LengthRound(d.Height.Float()),
				Opacity:  1.0,
				Rotation: d.Rotation.Float(),
				Locked:   epmod.YesNo(d.Locked),
				Layer:    "object",
				Hidden:   epmod.YesNo(d.Hidden),
				Asset: &epmod.TileAsset{
					Name:     d.Text,
					Type:     "image",
					Resource: name,
				},
			})
		case "p":
			layer := "map"
			if d.Hidden.Bool() {
				layer = "dm"
			}
			points := make([]string, 0, len(d.Points)*2)
			for _, p := range d.Points {
				x := (p[0] - t.OffsetX + d.X.Float()) * t.Rescale
				y := (p[1] - t.OffsetY + d.Y.Float()) * t.Rescale
				points = append(points,
					strconv.FormatFloat(x, 'g', -1, 64),
					strconv.FormatFloat(y, 'g', -1, 64))
			}
			entry.Drawings = append(entry.Drawings, &epmod.Drawing{
				ID:          a.IDs.ID(d.ID),
				Layer:       layer,
				StrokeWidth: d.StrokeWidth.Float(),
				StrokeColor: d.StrokeColor,
				Opacity:     d.StrokeAlpha.Float(),
				FillColor:   d.FillColor,
				Data:        strings.Join(points, ","),
			})
		}
	}
}

// addMarkers pins journal links onto the map: the linked (or name-matched)
// journal entry in the top-left cell, and each scene note at its position.
func (a *Assembler) addMarkers(entry *epmod.Map, sc *foundry.Scene, t *geometry.Transform) {
	grid := t.GridSize()
	if a.LinkMapsByName {
		sorted := make([]foundry.JournalEntry, len(a.Journal))
		copy(sorted, a.Journal)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		for _, j := range sorted {
			if strings.HasPrefix(j.Name, sc.Name) {
				entry.Markers = append(entry.Markers, bookMarker(grid, grid, "", "/page/"+a.IDs.ID(j.ID)))
				break
			}
		}
	} else if sc.Journal != "" {
		entry.Markers = append(entry.Markers, bookMarker(grid, grid, "", "/page/"+a.IDs.ID(sc.Journal)))
	}
	for _, n := range sc.Notes {
		name := ""
		for _, j := range a.Journal {
			if j.ID == n.EntryID {
				name = j.Name
				break
			}
		}
		x, y := t.PointRound(n.X.Float(), n.Y.Float())
		m := bookMarker(x, y, name, "/page/"+a.IDs.ID(n.EntryID))
		entry.Markers = append(entry.Markers, m)
	}
}

func bookMarker(x, y int, name, ref string) *epmod.Marker {
	return &epmod.Marker{
		Name:    name,
		Label:   "\U0001F4D6",
		Shape:   "circle",
		X:       x,
		Y:       y,
		Hidden:  true,
		Content: &epmod.MarkerContent{Ref: ref},
	}
}

// addSoundPages turns ambient sounds into speaker markers plus audio pages
// grouped under the map, converting unsupported containers to AAC.
func (a *Assembler) addSoundPages(ctx context.Context, entry *epmod.Map, sc *foundry.Scene, t *geometry.Transform) {
	log := a.log()
	for _, s := range sc.Sounds {
		ref := a.IDs.ID(sc.ID, s.ID)
		x, y := t.PointRound(s.X.Float(), s.Y.Float())
		entry.Markers = append(entry.Markers, &epmod.Marker{
			Label:   "\U0001F50A",
			Shape:   "circle",
			X:       x,
			Y:       y,
			Hidden:  true,
			Content: &epmod.MarkerContent{Ref: "/page/" + ref},
		})

		soundPath := media.Unquote(s.Path)
		stem := strings.TrimSuffix(path.Base(soundPath), path.Ext(soundPath))
		title := s.Name
		if title == "" {
			title = stem
		}
		if !fileutil.Exists(a.abs(soundPath)) && fileutil.Exists(a.abs(fileutil.SwapExt(soundPath, ".mp4"))) {
			soundPath = fileutil.SwapExt(soundPath, ".mp4")
		}
		mime := ""
		if fileutil.Exists(a.abs(soundPath)) {
			mime = media.AudioMIME(a.abs(soundPath))
			if !media.SupportedAudio(mime) {
				if converted, err := a.Tools.AudioToMP4(ctx, a.abs(soundPath)); err != nil {
					log.Warn("convert ambient sound failed", logging.String("sound", soundPath), logging.Error(err))
				} else {
					os.Remove(a.abs(soundPath))
					soundPath = fileutil.SwapExt(soundPath, ".mp4")
					mime = media.AudioMIME(converted)
				}
			}
		}

		var content strings.Builder
		fmt.Fprintf(&content, "<h1>Sound: %s</h1>", title)
		fmt.Fprintf(&content, "<figure id=%s>", s.ID)
		fmt.Fprintf(&content, "<figcaption>%s</figcaption>", title)
		loop := ""
		if s.Repeat.Bool() {
			loop = " loop"
		}
		if mime != "" {
			fmt.Fprintf(&content, `<audio controls%s><source src="%s" type="%s"></audio>`, loop, soundPath, mime)
		} else {
			fmt.Fprintf(&content, `<audio controls%s><source src="%s"></audio>`, loop, soundPath)
		}
		content.WriteString("</figure>")

		a.Module.Pages = append(a.Module.Pages, &epmod.Page{
			ID:      ref,
			Parent:  a.IDs.ID(sc.ID),
			Name:    sc.Name + " Sound: " + stem,
			Slug:    ident.Slugify(sc.Name + " Sound: " + stem),
			Content: content.String(),
		})
	}
}
