package geometry

import "math"

// Foundry grid types. Values above Square are hex layouts: odd/even row
// (pointy-top) and odd/even column (flat-top).
const (
	Gridless   = 0
	Square     = 1
	HexOddRow  = 2
	HexEvenRow = 3
	HexOddCol  = 4
	HexEvenCol = 5
)

// MaxMapDim is the largest background dimension the importer accepts.
const MaxMapDim = 8192

// GridTypeName returns the output format's name for a grid type.
func GridTypeName(gridType int) string {
	switch {
	case gridType >= HexOddCol:
		return "hexFlat"
	case gridType >= HexOddRow:
		return "hexPointy"
	default:
		return "square"
	}
}

// Transform carries a scene's coordinate mapping. Construct with New, then
// apply ClampMapSize, the image reconciliation step and FinishGrid in that
// order; the transform methods are only meaningful after FinishGrid.
type Transform struct {
	// OffsetX/Y is the source-space translation removing the padding
	// border (already net of the scene's grid shift).
	OffsetX float64
	OffsetY float64
	// Rescale is the cumulative source-to-output scale factor.
	Rescale float64
	// Scale is the display scale of the background image relative to the
	// declared map size, set during image reconciliation.
	Scale float64
	// Grid is the output cell size: halved for hex layouts.
	Grid     float64
	GridType int
	// ShiftX/Y is the output grid origin offset.
	ShiftX float64
	ShiftY float64
	// Realign is the residual factor that makes the output grid size a
	// whole number of pixels.
	Realign float64
	// Width and Height are the output map dimensions.
	Width  int
	Height int
}

// New computes the padding offsets for a scene. Scenes that declare a
// padding ratio pad each axis up to a whole grid cell; older scenes center
// the canvas on a two-cell boundary. The scene's own grid shift moves the
// offsets in the opposite direction.
func New(width, height, grid float64, gridType int, shiftX, shiftY float64, padding *float64) *Transform {
	t := &Transform{
		Rescale:  1.0,
		Scale:    1.0,
		Realign:  1.0,
		Grid:     grid,
		GridType: gridType,
		ShiftX:   shiftX,
		ShiftY:   shiftY,
		Width:    int(math.Round(width)),
		Height:   int(math.Round(height)),
	}
	if padding != nil {
		t.OffsetX = math.Ceil(*padding*width/grid) * grid
		t.OffsetY = math.Ceil(*padding*height/grid) * grid
	} else {
		t.OffsetX = (width + math.Ceil(0.5*width/(grid*2))*(grid*2) - width) * 0.5
		t.OffsetY = (height + math.Ceil(0.5*height/(grid*2))*(grid*2) - height) * 0.5
	}
	t.OffsetX -= shiftX
	t.OffsetY -= shiftY
	return t
}

// ClampMapSize rescales the declared map dimensions down to the texture
// limit, keeping aspect.
func (t *Transform) ClampMapSize() {
	if t.Width <= MaxMapDim && t.Height <= MaxMapDim {
		return
	}
	if t.Width >= t.Height {
		t.Rescale = float64(MaxMapDim) / float64(t.Width)
	} else {
		t.Rescale = float64(MaxMapDim) / float64(t.Height)
	}
	t.Width = int(math.Round(float64(t.Width) * t.Rescale))
	t.Height = int(math.Round(float64(t.Height) * t.Rescale))
}

// RescaleToImage grows or shrinks the map to match a replacement background
// whose dimensions differ from the declared canvas, as happens when a video
// background is swapped for its extracted still. The factor compounds into
// Rescale.
func (t *Transform) RescaleToImage(imgWidth, imgHeight int) {
	if t.Width == imgWidth && t.Height == imgHeight {
		return
	}
	var factor float64
	if t.Width >= t.Height {
		factor = float64(imgWidth) / float64(t.Width)
	} else {
		factor = float64(imgHeight) / float64(t.Height)
	}
	t.Width = int(math.Round(float64(t.Width) * factor))
	t.Height = int(math.Round(float64(t.Height) * factor))
	t.Rescale *= factor
}

// ReconcileImage resolves the final background dimensions against the map
// dimensions. A small mismatch becomes a display scale on the image; past
// 25% the image is taken as authoritative and the map rescale is recomputed
// from it instead.
func (t *Transform) ReconcileImage(imgWidth, imgHeight int) {
	if t.Width == imgWidth && t.Height == imgHeight {
		t.Scale = 1.0
		return
	}
	sw := float64(t.Width) / float64(imgWidth)
	sh := float64(t.Height) / float64(imgHeight)
	if sw >= sh {
		t.Scale = sw
	} else {
		t.Scale = sh
	}
	if t.Scale > 1.25 {
		t.Scale = 1.0
		rw := float64(imgWidth) / float64(t.Width)
		rh := float64(imgHeight) / float64(t.Height)
		if rw >= rh {
			t.Rescale = rw
		} else {
			t.Rescale = rh
		}
	}
}

// FinishGrid folds the accumulated rescale into the grid, snaps the cell
// size to whole pixels and converts hex layouts to the output convention:
// the cell size is halved and the origin shifts by the layout's parity.
func (t *Transform) FinishGrid() {
	t.Grid *= t.Rescale
	t.ShiftX *= t.Rescale
	t.ShiftY *= t.Rescale
	switch {
	case math.Round(t.Grid) != t.Grid:
		t.Realign = math.Round(t.Grid) / t.Grid
	case t.GridType > Square && math.Round(t.Grid/2) != t.Grid/2:
		t.Realign = math.Round(t.Grid/2) / (t.Grid / 2)
	default:
		t.Realign = 1.0
	}
	if t.GridType > Square {
		t.Grid = math.Round(t.Grid / 2)
		switch t.GridType {
		case HexOddRow:
			t.ShiftY += t.Grid
		case HexEvenRow:
			t.ShiftY -= t.Grid / 2
		case HexOddCol:
			t.ShiftY += t.Grid / 2
			t.ShiftX -= t.Grid
		case HexEvenCol:
			t.ShiftY += t.Grid / 2
			t.ShiftX += t.Grid / 2
		}
		t.ShiftX *= t.Realign
		t.ShiftY *= t.Realign
	}
	t.Rescale *= t.Realign
}

// Point maps a source coordinate to output space.
func (t *Transform) Point(x, y float64) (float64, float64) {
	return (x - t.OffsetX) * t.Rescale, (y - t.OffsetY) * t.Rescale
}

// PointRound maps a source coordinate to the nearest output pixel.
func (t *Transform) PointRound(x, y float64) (int, int) {
	px, py := t.Point(x, y)
	return int(math.Round(px)), int(math.Round(py))
}

// Length maps a source distance to output space.
func (t *Transform) Length(v float64) float64 { return v * t.Rescale }

// LengthRound maps a source distance to whole output pixels.
func (t *Transform) LengthRound(v float64) int {
	return int(math.Round(v * t.Rescale))
}

// GridSize returns the output grid cell size in whole pixels.
func (t *Transform) GridSize() int { return int(math.Round(t.Grid)) }

// GridOffset returns the output grid origin in whole pixels.
func (t *Transform) GridOffset() (int, int) {
	return int(math.Round(t.ShiftX)), int(math.Round(t.ShiftY))
}
