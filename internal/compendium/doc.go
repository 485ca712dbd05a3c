// Package compendium maps source item and actor records onto compendium
// entries: spells, equipment and monster stat blocks. Artwork referenced by
// the records is copied (or re-encoded) into the staging tree alongside the
// manifest.
package compendium
