// Package converter drives a full conversion run: it loads the source
// archive, converts folders, journal entries, playlists, roll tables and
// scenes into the output document, optionally builds compendium data or an
// asset pack, and packages the staged tree into the final archive.
package converter
