// Package scene assembles playable maps from source scene records: it
// resolves the background (still image, composed tile or video), fits the
// coordinate transform, and emits the walls, tiles, lights, tokens,
// drawings and markers in output space.
package scene
