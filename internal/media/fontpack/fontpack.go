// Package fontpack resolves the fonts scene text drawings name and renders
// their text into transparent tiles. Resolution tries the module's own
// fonts directory, then the community D&D font set, then the Google Fonts
// repository, and falls back to the bundled Go Regular face when all of
// those miss.
package fontpack

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// solberaFonts maps the font families D&D modules usually request to their
// free lookalikes.
var solberaFonts = map[string]string{
	"bookmania":            "https://raw.githubusercontent.com/jonathonf/solbera-dnd-fonts/master/Bookinsanity/Bookinsanity.otf",
	"scala sans caps":      "https://raw.githubusercontent.com/jonathonf/solbera-dnd-fonts/master/Scaly%20Sans%20Caps/Scaly%20Sans%20Caps.otf",
	"modesto condensed":    "https://raw.githubusercontent.com/jonathonf/solbera-dnd-fonts/master/Nodesto%20Caps%20Condensed/Nodesto%20Caps%20Condensed.otf",
	"mrs eaves small caps": "https://raw.githubusercontent.com/jonathonf/solbera-dnd-fonts/master/Mr%20Eaves/Mr%20Eaves%20Small%20Caps.otf",
	"dai vernon misdirect": "https://raw.githubusercontent.com/jonathonf/solbera-dnd-fonts/master/Zatanna%20Misdirection/Zatanna%20Misdirection.otf",
	"scala sans":           "https://raw.githubusercontent.com/jonathonf/solbera-dnd-fonts/master/Scaly%20Sans/Scaly%20Sans.otf",
}

var metadataFilename = regexp.MustCompile(`filename:\s*"([^"]+)"`)

// Resolver caches loaded font files per conversion run.
type Resolver struct {
	// FontsDir is the module's own fonts directory; may not exist.
	FontsDir string
	// CacheDir receives downloaded font files.
	CacheDir string
	Client   *http.Client

	loaded map[string][]byte
}

// NewResolver builds a resolver with a short-timeout HTTP client.
func NewResolver(fontsDir, cacheDir string) *Resolver {
	return &Resolver{
		FontsDir: fontsDir,
		CacheDir: cacheDir,
		Client:   &http.Client{Timeout: 30 * time.Second},
		loaded:   map[string][]byte{},
	}
}

// Face resolves a font family at the given size. It never fails: every
// fallback miss degrades to the bundled face.
func (r *Resolver) Face(ctx context.Context, family string, size float64) font.Face {
	data := r.lookup(ctx, family)
	if data != nil {
		if face, err := parseFace(data, size); err == nil {
			return face
		}
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		// goregular is a compiled-in asset; this cannot happen.
		panic(err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

func (r *Resolver) lookup(ctx context.Context, family string) []byte {
	key := strings.ToLower(family)
	if data, ok := r.loaded[key]; ok {
		return data
	}
	data := r.resolve(ctx, family)
	r.loaded[key] = data
	return data
}

func (r *Resolver) resolve(ctx context.Context, family string) []byte {
	if r.FontsDir != "" {
		if data, err := os.ReadFile(filepath.Join(r.FontsDir, family+".ttf")); err == nil {
			return data
		}
	}
	if u, ok := solberaFonts[strings.ToLower(family)]; ok {
		if data := r.fetch(ctx, u, family+".otf"); data != nil {
			return data
		}
	}
	return r.googleFont(ctx, family)
}

// googleFont reads the family's metadata file from the Google Fonts repo to
// learn the real filename, then fetches the font itself.
func (r *Resolver) googleFont(ctx context.Context, family string) []byte {
	slug := url.PathEscape(strings.ToLower(family))
	meta := r.fetch(ctx, fmt.Sprintf(
		"https://raw.githubusercontent.com/google/fonts/master/ofl/%s/METADATA.pb", slug), "")
	if meta == nil {
		return nil
	}
	m := metadataFilename.FindSubmatch(meta)
	if m == nil {
		return nil
	}
	return r.fetch(ctx, fmt.Sprintf(
		"https://raw.githubusercontent.com/google/fonts/master/ofl/%s/%s", slug, string(m[1])),
		family+".ttf")
}

func (r *Resolver) fetch(ctx context.Context, rawURL, cacheName string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	if cacheName != "" && r.CacheDir != "" {
		os.WriteFile(filepath.Join(r.CacheDir, cacheName), data, 0o644)
	}
	return data
}

// parseFace handles both TrueType and CFF-flavored OpenType files.
func parseFace(data []byte, size float64) (font.Face, error) {
	if f, err := truetype.Parse(data); err == nil {
		return truetype.NewFace(f, &truetype.Options{Size: size}), nil
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// Render draws text into a transparent canvas, wrapping on word boundaries
// when a line would overrun the canvas width.
func Render(face font.Face, text string, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	lines := wrap(d, text, width)
	metrics := face.Metrics()
	lineHeight := metrics.Height
	y := metrics.Ascent
	for _, line := range lines {
		d.Dot = fixed.Point26_6{X: 0, Y: y}
		d.DrawString(line)
		y += lineHeight
	}
	return img
}

func wrap(d *font.Drawer, text string, width int) []string {
	if d.MeasureString(text) <= fixed.I(width) {
		return strings.Split(text, "\n")
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(paragraph) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if d.MeasureString(candidate) <= fixed.I(width) || line == "" {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}
