package media

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/rrgeorge/FoundryToEncounter/internal/fileutil"
)

// MaxTileDim is the largest tile dimension the importer accepts; oversized
// tiles are scaled to just under it.
const (
	MaxTileDim    = 4096
	tileScaleEdge = 4095
)

// Unquote resolves URL escapes in a source media path.
func Unquote(p string) string {
	if u, err := url.PathUnescape(p); err == nil {
		return u
	}
	return p
}

// OpenImage decodes the image at path. webp decodes through the x/image
// decoder registered by this package.
func OpenImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// SaveImage encodes img by the destination extension. There is no webp
// encoder; callers keep original webp files instead of re-encoding to it.
func SaveImage(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return fmt.Errorf("save %s: webp encoding not supported", path)
	}
	return imaging.Save(img, path)
}

// FitLimit scales img down so neither dimension exceeds limit, keeping
// aspect. The target edge is one pixel under the limit, matching the
// importer's strict bound.
func FitLimit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	if b.Dx() <= limit && b.Dy() <= limit {
		return img
	}
	var scale float64
	if b.Dx() >= b.Dy() {
		scale = float64(tileScaleEdge) / float64(b.Dx())
	} else {
		scale = float64(tileScaleEdge) / float64(b.Dy())
	}
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// FitMapLimit scales a map background to the map texture limit.
func FitMapLimit(img image.Image) (image.Image, float64) {
	b := img.Bounds()
	if b.Dx() <= MaxMapDim && b.Dy() <= MaxMapDim {
		return img, 1.0
	}
	var scale float64
	if b.Dx() >= b.Dy() {
		scale = float64(MaxMapDim) / float64(b.Dx())
	} else {
		scale = float64(MaxMapDim) / float64(b.Dy())
	}
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	return imaging.Resize(img, w, h, imaging.Lanczos), scale
}

// MaxMapDim mirrors the geometry package's texture bound for callers that
// only deal in images.
const MaxMapDim = 8192

// ResizeTo resizes img to exactly w x h, ignoring aspect.
func ResizeTo(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// CoverCrop cuts the top-left square of img and bounds it to the cover
// size, for deriving a module cover from map artwork.
func CoverCrop(img image.Image) image.Image {
	b := img.Bounds()
	edge := b.Dx()
	if b.Dy() < edge {
		edge = b.Dy()
	}
	img = imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+edge, b.Min.Y+edge))
	if edge > 1024 {
		img = imaging.Resize(img, 1024, 1024, imaging.Lanczos)
	}
	return img
}

// Placeholder builds a flat-color canvas for scenes without a background.
func Placeholder(width, height int, c color.Color) *image.NRGBA {
	return imaging.New(width, height, c)
}

// ComposeBackground pastes a repositioned background tile onto a gray
// canvas, cropping whatever falls outside it. Scenes sometimes ship their
// artwork as a single near-full-size tile instead of a background image.
func ComposeBackground(canvasW, canvasH int, tile image.Image, x, y int, scale float64) *image.NRGBA {
	canvas := imaging.New(canvasW, canvasH, color.Gray{Y: 0x80})
	if scale != 1 {
		b := tile.Bounds()
		tile = imaging.Resize(tile,
			int(math.Round(float64(b.Dx())*scale)),
			int(math.Round(float64(b.Dy())*scale)),
			imaging.Lanczos)
	}
	b := tile.Bounds()
	if x > 0 && b.Dx()+x > canvasW {
		tile = imaging.Crop(tile, image.Rect(0, 0, b.Dx()-x, b.Dy()))
	} else if x < 0 {
		tile = imaging.Crop(tile, image.Rect(-x, 0, b.Dx()+x, b.Dy()))
		x = 0
	}
	b = tile.Bounds()
	if y > 0 && b.Dy()+y > canvasH {
		tile = imaging.Crop(tile, image.Rect(0, 0, b.Dx(), b.Dy()-y))
	} else if y < 0 {
		tile = imaging.Crop(tile, image.Rect(0, -y, b.Dx(), b.Dy()+y))
		y = 0
	}
	draw.Draw(canvas, tile.Bounds().Add(image.Pt(x, y)), tile, tile.Bounds().Min, draw.Over)
	return canvas
}

// Reencode converts an image file to the target extension and removes the
// original. Its main use is webp tiles and backgrounds when the output
// format should carry jpg or png instead.
func Reencode(path, targetExt string) (string, error) {
	img, err := OpenImage(path)
	if err != nil {
		return "", err
	}
	dst := fileutil.SwapExt(path, targetExt)
	if err := SaveImage(img, dst); err != nil {
		return "", err
	}
	if dst != path {
		os.Remove(path)
	}
	return dst, nil
}
