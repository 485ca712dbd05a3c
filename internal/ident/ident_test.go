package ident

import (
	"regexp"
	"testing"

	"pgregory.net/rapid"
)

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Café Noir", "cafe-noir"},
		{"The  Dungeon!", "the-dungeon"},
		{"--Already--Sluggish--", "already-sluggish"},
		{"Chapter 2: Ruins", "chapter-2-ruins"},
		{"!!!", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

var slugShape = regexp.MustCompile(`^$|^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestSlugifyShape(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.String().Draw(t, "name")
		slug := Slugify(name)
		if !slugShape.MatchString(slug) {
			t.Fatalf("Slugify(%q) = %q, not a well-formed slug", name, slug)
		}
		if again := Slugify(slug); again != slug {
			t.Fatalf("Slugify not idempotent: %q -> %q -> %q", name, slug, again)
		}
	})
}

func TestIDDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		module := rapid.StringMatching(`[a-z][a-z0-9-]{0,20}`).Draw(t, "module")
		parts := rapid.SliceOfN(rapid.String(), 1, 4).Draw(t, "parts")

		a := NewContextAt(module, "")
		b := NewContextAt(module, "")
		if a.ID(parts...) != b.ID(parts...) {
			t.Fatalf("same module and parts produced different ids")
		}
		if a.Namespace() != b.Namespace() {
			t.Fatalf("same module produced different namespaces")
		}

		other := NewContextAt(module+"x", "")
		if a.ID(parts...) == other.ID(parts...) {
			t.Fatalf("distinct modules produced the same id")
		}
	})
}

func TestUniqueSlugDistinct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 1, 20).Draw(t, "names")
		ctx := NewContextAt("test", "")
		seen := make(map[string]bool)
		for _, name := range names {
			slug := ctx.UniqueSlug(name)
			if seen[slug] {
				t.Fatalf("UniqueSlug repeated %q for input %v", slug, names)
			}
			seen[slug] = true
		}
	})
}

func TestUniqueSlugCountsRepeats(t *testing.T) {
	ctx := NewContextAt("test", "")
	if got := ctx.UniqueSlug("playlists"); got != "playlists0" {
		t.Errorf("first slug = %q, want playlists0", got)
	}
	if got := ctx.UniqueSlug("playlists"); got != "playlists1" {
		t.Errorf("second slug = %q, want playlists1", got)
	}
}
