// Package richtext rewrites the HTML content of journal pages and
// compendium entries: source-format entity anchors and @Type[id] reference
// tags become importer links, inline roll expressions become roll links,
// and compendium text is flattened to the reduced markup stat blocks use.
package richtext
