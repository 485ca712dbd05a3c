package geometry

import (
	"math"
	"strconv"
)

// TokenPlacement positions a token of the given cell footprint. Foundry
// anchors tokens at their top-left corner while the output format anchors
// at center, so the offset is half the rendered footprint, computed in the
// layout's own cell metric. Flat-top layouts additionally shrink the token
// art, which the output compensates for by dividing the display scale.
type TokenPlacement struct {
	OffsetX int
	OffsetY int
	// ScaleDiv divides the token's display scale; 1 except for flat-top
	// hex layouts.
	ScaleDiv float64
}

// TokenOffsets computes the anchor correction for a token spanning width x
// height cells on this transform's grid.
func (t *Transform) TokenOffsets(width, height float64) TokenPlacement {
	p := TokenPlacement{ScaleDiv: 1.0}
	switch {
	case t.GridType >= HexOddCol:
		p.OffsetX = int(math.Round(((2 * t.Grid * 0.75 * width) + t.Grid/2) / 2))
		p.OffsetY = int(math.Round(math.Sqrt(3) * t.Grid * height / 2))
		if t.GridType == HexEvenCol {
			p.OffsetX += int(math.Round(t.Grid))
		}
		p.ScaleDiv = 0.8
	case t.GridType >= HexOddRow:
		p.OffsetX = int(math.Round(math.Sqrt(3) * t.Grid * width / 2))
		p.OffsetY = int(math.Round(((2 * t.Grid * 0.75 * height) + t.Grid/2) / 2))
		if t.GridType == HexEvenRow {
			p.OffsetX += int(math.Round(t.Grid))
		}
	default:
		p.OffsetX = int(math.Round(width * t.Grid / 2))
		p.OffsetY = int(math.Round(height * t.Grid / 2))
	}
	return p
}

// TokenSize renders a token footprint as the output size code: the standard
// creature sizes when the footprint is square, otherwise "WxH".
func TokenSize(width, height float64) string {
	if width == height && width >= 1 && width <= 6 {
		switch {
		case width > 4:
			return "C"
		case width > 3:
			return "G"
		case width > 2:
			return "H"
		case width > 1:
			return "L"
		default:
			return "M"
		}
	}
	if width == height && width < 1 {
		if width <= 0.5 {
			return "T"
		}
		return "S"
	}
	return formatDim(width) + "x" + formatDim(height)
}

func formatDim(v float64) string {
	if v == math.Trunc(v) {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
