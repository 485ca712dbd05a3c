package richtext

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
)

// Ref is the minimal record view the rewriter needs for lookups.
type Ref struct {
	ID      string
	Name    string
	IsSpell bool
}

// Index resolves source record references to importer paths. UseIDs selects
// deterministic-id links (compendium mode) over name slugs.
type Index struct {
	IDs    *ident.Context
	UseIDs bool

	Journal []Ref
	Maps    []Ref
	Actors  []Ref
	Items   []Ref
	// PackEntities maps a module pack's name to its entity type, which
	// disambiguates Compendium tags.
	PackEntities map[string]string
}

var (
	entityLinkRe = regexp.MustCompile(`<a(.*?)data-entity="?(.*?)"? (.*?)data-id="?(.*?)"?( .*?)?>`)
	refTagRe     = regexp.MustCompile(`@(.*?)\[(.*?)\](?:\{(.*?)\})?`)
	rollRe       = regexp.MustCompile(`\[\[(?:/(?:gm)?r(?:oll)? )?(.*?)(?: ?# ?(.*?))?\]\]`)
)

// Rewrite applies every content pass in the order pages need: entity
// anchors, reference tags, then rolls.
func (x *Index) Rewrite(html string) string {
	html = x.RewriteEntityLinks(html)
	html = x.RewriteRefTags(html)
	return RewriteRolls(html)
}

// RewriteEntityLinks converts <a data-entity=... data-id=...> anchors.
func (x *Index) RewriteEntityLinks(html string) string {
	return replace(entityLinkRe, html, func(g []string) string {
		switch g[2] {
		case "JournalEntry":
			return fmt.Sprintf(`<a href="/page/%s" %s %s %s>`, x.IDs.ID(g[4]), g[1], g[3], g[5])
		case "Actor":
			if a, ok := find(x.Actors, g[4]); ok {
				return fmt.Sprintf(`<a href="/monster/%s" %s %s %s>`, ident.Slugify(a.Name), g[1], g[3], g[5])
			}
		}
		return g[0]
	})
}

// RewriteRefTags converts @Type[id]{label} references.
func (x *Index) RewriteRefTags(html string) string {
	return replace(refTagRe, html, func(g []string) string {
		kind, id, label := g[1], g[2], g[3]
		switch kind {
		case "JournalEntry":
			if j, ok := find(x.Journal, id); ok {
				return link("/page/"+x.IDs.ID(j.ID), orElse(label, j.Name))
			}
			return link("/page/"+x.IDs.ID(id), orElse(label, "Journal Entry"))
		case "RollTable":
			return link("/page/"+x.IDs.ID(id), orElse(label, "Roll Table"))
		case "Scene":
			if m, ok := find(x.Maps, id); ok {
				return link("/map/"+x.IDs.ID(m.ID), orElse(label, m.Name))
			}
			return link("/map/"+x.IDs.ID(id), orElse(label, "Map"))
		case "Actor":
			if a, ok := find(x.Actors, id); ok {
				return link("/monster/"+x.ref(a), orElse(label, a.Name))
			}
		case "Item":
			if i, ok := find(x.Items, id); ok {
				return link("/item/"+x.ref(i), orElse(label, i.Name))
			}
		case "Compendium":
			if label != "" {
				return x.compendiumLink(id, label)
			}
		case "Macro":
			if label != "" {
				return fmt.Sprintf("<details><summary>%s</summary>This was a Foundry Macro, which cannot be converted.</details>", label)
			}
			return "<details><summary>Unsupported</summary>This was a Foundry Macro, which cannot be converted.</details>"
		}
		return g[0]
	})
}

// compendiumLink resolves a Compendium tag of the form system.type.id. The
// path segment is normalized and corrected against the module's own pack
// declarations, which know whether a pack holds actors or items.
func (x *Index) compendiumLink(ref, label string) string {
	parts := strings.SplitN(ref, ".", 3)
	if len(parts) < 3 {
		return "@Compendium[" + ref + "]{" + label + "}"
	}
	entryType, id := parts[1], parts[2]
	var slug string
	if x.UseIDs {
		slug = x.IDs.ID(id)
	} else {
		slug = ident.Slugify(label)
	}
	entryType = strings.TrimRight(strings.ReplaceAll(strings.ToLower(entryType), "actor", "monster"), "s")
	for name, entity := range x.PackEntities {
		if name != entryType {
			continue
		}
		switch entity {
		case "Actor":
			entryType = "monster"
		case "Item":
			entryType = "item"
			for _, i := range x.Items {
				if i.ID == id && i.IsSpell {
					entryType = "spell"
				}
			}
		}
	}
	return link("/"+entryType+"/"+slug, label)
}

// ref renders an actor or item link target: the deterministic id in
// compendium mode, the name slug otherwise.
func (x *Index) ref(r Ref) string {
	if x.UseIDs {
		return x.IDs.ID(r.ID)
	}
	return ident.Slugify(r.Name)
}

// RewriteRolls converts [[1d6]] and [[/roll 2d8+3 # label]] expressions
// into roll links.
func RewriteRolls(html string) string {
	return replace(rollRe, html, func(g []string) string {
		if g[2] != "" {
			return fmt.Sprintf(`<a href="/roll/%s/%s">%s</a>`, g[1], g[2], g[1])
		}
		return fmt.Sprintf(`<a href="/roll/%s">%s</a>`, g[1], g[1])
	})
}

func link(href, text string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, href, text)
}

func orElse(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func find(refs []Ref, idOrName string) (Ref, bool) {
	for _, r := range refs {
		if r.ID == idOrName || r.Name == idOrName {
			return r, true
		}
	}
	return Ref{}, false
}

// replace runs fn over every match with its submatches; fn receives the
// whole match as g[0].
func replace(re *regexp.Regexp, s string, fn func(g []string) string) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		return fn(re.FindStringSubmatch(m))
	})
}
