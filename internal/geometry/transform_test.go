package geometry

import (
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPaddingOffsets(t *testing.T) {
	padding := 0.25
	tr := New(4000, 3000, 100, Square, 0, 0, &padding)
	if !almost(tr.OffsetX, 1000) || !almost(tr.OffsetY, 800) {
		t.Fatalf("offsets = %v,%v, want 1000,800", tr.OffsetX, tr.OffsetY)
	}
}

func TestPaddingOffsetsPartialCell(t *testing.T) {
	// 0.25*1050 = 262.5 -> ceil to 3 cells of 100.
	padding := 0.25
	tr := New(1050, 1050, 100, Square, 0, 0, &padding)
	if !almost(tr.OffsetX, 300) {
		t.Fatalf("offsetX = %v, want 300", tr.OffsetX)
	}
}

func TestLegacyCenteringOffsets(t *testing.T) {
	tr := New(1000, 1000, 100, Square, 0, 0, nil)
	if !almost(tr.OffsetX, 300) || !almost(tr.OffsetY, 300) {
		t.Fatalf("offsets = %v,%v, want 300,300", tr.OffsetX, tr.OffsetY)
	}
}

func TestShiftMovesOffsets(t *testing.T) {
	padding := 0.25
	tr := New(4000, 3000, 100, Square, 40, -60, &padding)
	if !almost(tr.OffsetX, 960) || !almost(tr.OffsetY, 860) {
		t.Fatalf("offsets = %v,%v, want 960,860", tr.OffsetX, tr.OffsetY)
	}
}

func TestClampMapSize(t *testing.T) {
	padding := 0.0
	tr := New(16384, 8192, 128, Square, 0, 0, &padding)
	tr.ClampMapSize()
	if tr.Width != 8192 || tr.Height != 4096 {
		t.Fatalf("clamped to %dx%d", tr.Width, tr.Height)
	}
	if !almost(tr.Rescale, 0.5) {
		t.Fatalf("rescale = %v, want 0.5", tr.Rescale)
	}
	tr.FinishGrid()
	if tr.GridSize() != 64 {
		t.Fatalf("grid = %d, want 64", tr.GridSize())
	}
}

func TestReconcileImageSmallMismatch(t *testing.T) {
	padding := 0.0
	tr := New(1000, 1000, 100, Square, 0, 0, &padding)
	tr.ReconcileImage(900, 900)
	if !almost(tr.Scale, 1000.0/900.0) {
		t.Fatalf("scale = %v", tr.Scale)
	}
	if !almost(tr.Rescale, 1.0) {
		t.Fatalf("rescale = %v, want 1", tr.Rescale)
	}
}

func TestReconcileImageLargeMismatch(t *testing.T) {
	// Map says 1000 but the image is only 500 wide: past the 25% band the
	// image wins and the rescale shrinks everything to image space.
	padding := 0.0
	tr := New(1000, 1000, 100, Square, 0, 0, &padding)
	tr.ReconcileImage(500, 500)
	if !almost(tr.Scale, 1.0) {
		t.Fatalf("scale = %v, want 1", tr.Scale)
	}
	if !almost(tr.Rescale, 0.5) {
		t.Fatalf("rescale = %v, want 0.5", tr.Rescale)
	}
}

func TestRescaleToImageCompounds(t *testing.T) {
	padding := 0.0
	tr := New(16384, 16384, 128, Square, 0, 0, &padding)
	tr.ClampMapSize()
	tr.RescaleToImage(4096, 4096)
	if !almost(tr.Rescale, 0.25) {
		t.Fatalf("rescale = %v, want 0.25", tr.Rescale)
	}
	if tr.Width != 4096 || tr.Height != 4096 {
		t.Fatalf("dims = %dx%d", tr.Width, tr.Height)
	}
}

func TestFinishGridRealignsFractionalCell(t *testing.T) {
	padding := 0.0
	tr := New(1000, 1000, 100.4, Square, 0, 0, &padding)
	tr.FinishGrid()
	if tr.GridSize() != 100 {
		t.Fatalf("grid = %d, want 100", tr.GridSize())
	}
	if !almost(tr.Realign, 100.0/100.4) {
		t.Fatalf("realign = %v", tr.Realign)
	}
	if !almost(tr.Rescale, 100.0/100.4) {
		t.Fatalf("rescale = %v", tr.Rescale)
	}
}

func TestFinishGridHexPointyOdd(t *testing.T) {
	tr := New(1000, 1000, 100, HexOddRow, 0, 0, nil)
	tr.FinishGrid()
	if tr.GridSize() != 50 {
		t.Fatalf("grid = %d, want 50", tr.GridSize())
	}
	sx, sy := tr.GridOffset()
	if sx != 0 || sy != 50 {
		t.Fatalf("grid offset = %d,%d, want 0,50", sx, sy)
	}
	if GridTypeName(tr.GridType) != "hexPointy" {
		t.Fatalf("type = %s", GridTypeName(tr.GridType))
	}
}

func TestFinishGridHexFlatParity(t *testing.T) {
	odd := New(1000, 1000, 100, HexOddCol, 0, 0, nil)
	odd.FinishGrid()
	sx, sy := odd.GridOffset()
	if sx != -50 || sy != 25 {
		t.Fatalf("odd col offset = %d,%d, want -50,25", sx, sy)
	}
	even := New(1000, 1000, 100, HexEvenCol, 0, 0, nil)
	even.FinishGrid()
	sx, sy = even.GridOffset()
	if sx != 25 || sy != 25 {
		t.Fatalf("even col offset = %d,%d, want 25,25", sx, sy)
	}
	if GridTypeName(odd.GridType) != "hexFlat" {
		t.Fatalf("type = %s", GridTypeName(odd.GridType))
	}
}

func TestFinishGridHexEvenRow(t *testing.T) {
	tr := New(1000, 1000, 100, HexEvenRow, 0, 0, nil)
	tr.FinishGrid()
	_, sy := tr.GridOffset()
	if sy != -25 {
		t.Fatalf("even row offsetY = %d, want -25", sy)
	}
}

func TestPointTransform(t *testing.T) {
	padding := 0.0
	tr := New(1000, 1000, 100, Square, 0, 0, &padding)
	tr.Rescale = 0.5
	tr.OffsetX, tr.OffsetY = 100, 200
	x, y := tr.Point(300, 300)
	if !almost(x, 100) || !almost(y, 50) {
		t.Fatalf("point = %v,%v, want 100,50", x, y)
	}
	if tr.LengthRound(101) != 51 {
		t.Fatalf("length = %d, want 51", tr.LengthRound(101))
	}
}

func TestTokenOffsetsSquare(t *testing.T) {
	tr := New(1000, 1000, 100, Square, 0, 0, nil)
	tr.FinishGrid()
	p := tr.TokenOffsets(2, 2)
	if p.OffsetX != 100 || p.OffsetY != 100 || p.ScaleDiv != 1.0 {
		t.Fatalf("placement = %+v", p)
	}
}

func TestTokenOffsetsHexPointy(t *testing.T) {
	tr := New(1000, 1000, 100, HexOddRow, 0, 0, nil)
	tr.FinishGrid()
	p := tr.TokenOffsets(1, 1)
	if p.OffsetX != 43 || p.OffsetY != 50 {
		t.Fatalf("placement = %+v, want 43,50", p)
	}
	even := New(1000, 1000, 100, HexEvenRow, 0, 0, nil)
	even.FinishGrid()
	p = even.TokenOffsets(1, 1)
	if p.OffsetX != 93 {
		t.Fatalf("even row offsetX = %d, want 93", p.OffsetX)
	}
}

func TestTokenOffsetsHexFlatShrinksArt(t *testing.T) {
	tr := New(1000, 1000, 100, HexOddCol, 0, 0, nil)
	tr.FinishGrid()
	p := tr.TokenOffsets(1, 1)
	if p.OffsetX != 50 || p.OffsetY != 43 {
		t.Fatalf("placement = %+v, want 50,43", p)
	}
	if p.ScaleDiv != 0.8 {
		t.Fatalf("scaleDiv = %v, want 0.8", p.ScaleDiv)
	}
}

func TestTokenSizeCodes(t *testing.T) {
	cases := []struct {
		w, h float64
		want string
	}{
		{0.5, 0.5, "T"},
		{0.75, 0.75, "S"},
		{1, 1, "M"},
		{2, 2, "L"},
		{3, 3, "H"},
		{4, 4, "G"},
		{6, 6, "C"},
		{2, 3, "2x3"},
		{7, 7, "7x7"},
	}
	for _, c := range cases {
		if got := TokenSize(c.w, c.h); got != c.want {
			t.Fatalf("TokenSize(%v,%v) = %q, want %q", c.w, c.h, got, c.want)
		}
	}
}
