// Package geometry maps Foundry scene coordinates into output map space.
// A scene's canvas is larger than its background image by a padding border,
// may exceed the renderer's texture limits, and may use one of four hex
// layouts whose cell size and origin differ from the output format's. The
// Transform type accumulates those corrections in a fixed order: padding
// offsets, texture-limit rescale, image-dimension reconciliation, then grid
// realignment. All later placements (walls, tiles, lights, tokens, markers)
// go through the same transform.
package geometry
