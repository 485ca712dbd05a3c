package richtext

import (
	"strings"
	"testing"

	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	ids := ident.NewContextAt("test-module", t.TempDir())
	return &Index{
		IDs: ids,
		Journal: []Ref{
			{ID: "j1", Name: "Chapter One"},
		},
		Maps: []Ref{
			{ID: "s1", Name: "Goblin Cave"},
		},
		Actors: []Ref{
			{ID: "a1", Name: "Goblin Boss"},
		},
		Items: []Ref{
			{ID: "i1", Name: "Longsword"},
			{ID: "sp1", Name: "Fireball", IsSpell: true},
		},
	}
}

func TestRewriteEntityLinks(t *testing.T) {
	x := testIndex(t)
	in := `see <a class="entity-link" data-entity="JournalEntry" data-id="j1">Chapter One</a>`
	out := x.RewriteEntityLinks(in)
	want := `href="/page/` + x.IDs.ID("j1") + `"`
	if !strings.Contains(out, want) {
		t.Fatalf("journal link not rewritten: %s", out)
	}

	in = `<a class="entity-link" data-entity="Actor" data-id="a1">boss</a>`
	out = x.RewriteEntityLinks(in)
	if !strings.Contains(out, `href="/monster/goblin-boss"`) {
		t.Fatalf("actor link not rewritten: %s", out)
	}

	in = `<a data-entity="Actor" data-id="nope" class="x">gone</a>`
	if out = x.RewriteEntityLinks(in); out != in {
		t.Fatalf("unknown actor should pass through, got %s", out)
	}
}

func TestRewriteRefTags(t *testing.T) {
	x := testIndex(t)
	cases := []struct {
		in   string
		want string
	}{
		{"@JournalEntry[j1]", `<a href="/page/` + x.IDs.ID("j1") + `">Chapter One</a>`},
		{"@JournalEntry[missing]{Notes}", `<a href="/page/` + x.IDs.ID("missing") + `">Notes</a>`},
		{"@JournalEntry[missing]", `<a href="/page/` + x.IDs.ID("missing") + `">Journal Entry</a>`},
		{"@RollTable[t1]{Treasure}", `<a href="/page/` + x.IDs.ID("t1") + `">Treasure</a>`},
		{"@Scene[s1]", `<a href="/map/` + x.IDs.ID("s1") + `">Goblin Cave</a>`},
		{"@Actor[a1]{the boss}", `<a href="/monster/goblin-boss">the boss</a>`},
		{"@Item[i1]", `<a href="/item/longsword">Longsword</a>`},
		{"@Unknown[x]{y}", "@Unknown[x]{y}"},
	}
	for _, c := range cases {
		if got := x.RewriteRefTags(c.in); got != c.want {
			t.Fatalf("RewriteRefTags(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRewriteRefTagsCompendiumMode(t *testing.T) {
	x := testIndex(t)
	x.UseIDs = true
	want := `<a href="/monster/` + x.IDs.ID("a1") + `">Goblin Boss</a>`
	if got := x.RewriteRefTags("@Actor[a1]"); got != want {
		t.Fatalf("compendium actor link = %q, want %q", got, want)
	}
}

func TestCompendiumTag(t *testing.T) {
	x := testIndex(t)
	x.PackEntities = map[string]string{
		"bestiary": "Actor",
		"gear":     "Item",
	}
	cases := []struct {
		in   string
		want string
	}{
		{"@Compendium[mod.bestiary.a1]{Goblin Boss}", `<a href="/monster/goblin-boss">Goblin Boss</a>`},
		{"@Compendium[mod.gear.i1]{Longsword}", `<a href="/item/longsword">Longsword</a>`},
		{"@Compendium[mod.gear.sp1]{Fireball}", `<a href="/spell/fireball">Fireball</a>`},
		{"@Compendium[dnd5e.monsters.xyz]{Wolf}", `<a href="/monster/wolf">Wolf</a>`},
		{"@Compendium[dnd5e.spells.xyz]{Shield}", `<a href="/spell/shield">Shield</a>`},
		{"@Compendium[broken]{Label}", "@Compendium[broken]{Label}"},
	}
	for _, c := range cases {
		if got := x.RewriteRefTags(c.in); got != c.want {
			t.Fatalf("RewriteRefTags(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMacroTag(t *testing.T) {
	x := testIndex(t)
	out := x.RewriteRefTags("@Macro[m1]{Roll Initiative}")
	if !strings.Contains(out, "<summary>Roll Initiative</summary>") {
		t.Fatalf("macro tag = %q", out)
	}
	out = x.RewriteRefTags("@Macro[m1]")
	if !strings.Contains(out, "<summary>Unsupported</summary>") {
		t.Fatalf("bare macro tag = %q", out)
	}
}

func TestRewriteRolls(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"take [[1d6]] damage", `take <a href="/roll/1d6">1d6</a> damage`},
		{"[[/roll 2d8+3]]", `<a href="/roll/2d8+3">2d8+3</a>`},
		{"[[/gmroll 1d20 # Perception]]", `<a href="/roll/1d20/Perception">1d20</a>`},
		{"[[/r 1d4]]", `<a href="/roll/1d4">1d4</a>`},
	}
	for _, c := range cases {
		if got := RewriteRolls(c.in); got != c.want {
			t.Fatalf("RewriteRolls(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFlatten(t *testing.T) {
	x := testIndex(t)
	in := `<h2>History</h2><p>The cave is <em>old</em> and <strong>dark</strong>.</p>` +
		`<table><tr><td>Roll</td><td>Result</td></tr><tr><td>1</td><td>Nothing</td></tr></table>` +
		`<!-- gm note --><p>Deal [[2d6]] damage.</p>`
	out := x.Flatten(in)
	for _, want := range []string{
		"<b>History</b>\n",
		"<i>old</i>",
		"<b>dark</b>",
		"Roll | Result\n",
		"1 | Nothing\n",
		`<a href="/roll/2d6">2d6</a>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("flatten missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "gm note") {
		t.Fatalf("comment survived flatten:\n%s", out)
	}
}

func TestFlattenSecretSection(t *testing.T) {
	x := testIndex(t)
	in := `<p>public</p><section id="s" class="secret"><p>hidden twist</p></section><p>trailing</p>`
	out := x.Flatten(in)
	if !strings.Contains(out, "hidden twist") {
		t.Fatalf("secret body lost:\n%s", out)
	}
	if strings.Contains(out, "trailing") {
		t.Fatalf("text after secret section should be dropped:\n%s", out)
	}
}
