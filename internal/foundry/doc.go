// Package foundry reads a Foundry VTT world or module archive: the manifest,
// the line-delimited JSON databases and compendium packs, and the embedded
// media tree. Dynamic source records are converted to typed structs once, at
// this boundary; absent or mistyped fields decode to zero values instead of
// being probed defensively at every use site.
package foundry
