package media

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestUnquote(t *testing.T) {
	if got := Unquote("maps/The%20Keep.png"); got != "maps/The Keep.png" {
		t.Fatalf("unquote = %q", got)
	}
	if got := Unquote("plain.png"); got != "plain.png" {
		t.Fatalf("unquote = %q", got)
	}
}

func TestFitLimit(t *testing.T) {
	img := Placeholder(8000, 2000, color.Black)
	got := FitLimit(img, MaxTileDim)
	if got.Bounds().Dx() != 4095 {
		t.Fatalf("width = %d, want 4095", got.Bounds().Dx())
	}
	if got.Bounds().Dy() != 1024 {
		t.Fatalf("height = %d, want 1024", got.Bounds().Dy())
	}
	small := Placeholder(100, 100, color.Black)
	if FitLimit(small, MaxTileDim) != small {
		t.Fatalf("small image should pass through")
	}
}

func TestFitMapLimit(t *testing.T) {
	img := Placeholder(16384, 8192, color.Black)
	got, scale := FitMapLimit(img)
	if got.Bounds().Dx() != 8192 || got.Bounds().Dy() != 4096 {
		t.Fatalf("dims = %dx%d", got.Bounds().Dx(), got.Bounds().Dy())
	}
	if scale != 0.5 {
		t.Fatalf("scale = %v", scale)
	}
}

func TestComposeBackgroundCrops(t *testing.T) {
	tile := Placeholder(200, 200, color.White)
	got := ComposeBackground(100, 100, tile, -50, -50, 1.0)
	if got.Bounds().Dx() != 100 || got.Bounds().Dy() != 100 {
		t.Fatalf("canvas dims = %dx%d", got.Bounds().Dx(), got.Bounds().Dy())
	}
	r, _, _, _ := got.At(50, 50).RGBA()
	if r == 0 {
		t.Fatalf("tile not pasted onto canvas")
	}
}

func TestConvertImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tile.png")
	if err := SaveImage(Placeholder(10, 10, color.White), src); err != nil {
		t.Fatalf("save: %v", err)
	}
	dst, err := Reencode(src, ".jpg")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if filepath.Ext(dst) != ".jpg" {
		t.Fatalf("dst = %q", dst)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source not removed")
	}
	if _, err := OpenImage(dst); err != nil {
		t.Fatalf("reopen converted: %v", err)
	}
}

func TestSaveImageRefusesWebP(t *testing.T) {
	if err := SaveImage(Placeholder(4, 4, color.White), filepath.Join(t.TempDir(), "x.webp")); err == nil {
		t.Fatalf("expected webp encode to be refused")
	}
}
