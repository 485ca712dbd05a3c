package compendium

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rrgeorge/FoundryToEncounter/internal/foundry"
	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
	"github.com/rrgeorge/FoundryToEncounter/internal/richtext"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	ids := ident.NewContextAt("test-module", t.TempDir())
	return &Builder{
		IDs:        ids,
		Text:       &richtext.Index{IDs: ids},
		StagingDir: t.TempDir(),
		ImageExt:   ".jpg",
	}
}

func TestSpellConversion(t *testing.T) {
	b := testBuilder(t)
	it := foundry.Item{
		ID:   "sp1",
		Name: "Fireball",
		Type: "spell",
		Data: foundry.ItemData{
			Level:  3,
			School: "evo",
			Source: "Basic Rules",
			Components: foundry.CompMap{
				"vocal":    true,
				"somatic":  true,
				"material": true,
			},
		},
	}
	it.Data.Description.Value = "<p>A bright streak.</p>"
	it.Data.Materials.Value = "a tiny ball of bat guano"
	it.Data.Activation.Cost = 1
	it.Data.Activation.Type = "action"
	it.Data.Range.Value = 150
	it.Data.Range.Units = "ft"
	it.Data.Duration.Units = "inst"

	comp, err := b.Build([]foundry.Item{it}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(comp.Spells) != 1 || len(comp.Items) != 0 {
		t.Fatalf("entries = %d spells, %d items", len(comp.Spells), len(comp.Items))
	}
	s := comp.Spells[0]
	if s.School != "EV" {
		t.Fatalf("school = %q", s.School)
	}
	if s.Time != "1 action" {
		t.Fatalf("time = %q", s.Time)
	}
	if s.Range != "150 ft" {
		t.Fatalf("range = %q", s.Range)
	}
	if s.Components != "V,S,M (a tiny ball of bat guano)" {
		t.Fatalf("components = %q", s.Components)
	}
	if s.Duration != "Instantaneous" {
		t.Fatalf("duration = %q", s.Duration)
	}
	if !strings.Contains(s.Text, "<i>Source: Basic Rules</i>") {
		t.Fatalf("text = %q", s.Text)
	}
}

func TestSpellConcentrationAndConsumedMaterial(t *testing.T) {
	b := testBuilder(t)
	it := foundry.Item{ID: "sp2", Name: "Test", Type: "spell"}
	it.Data.Components = foundry.CompMap{"material": true, "concentration": true}
	it.Data.Materials.Value = "a diamond"
	it.Data.Materials.Consumed = true
	it.Data.Duration.Value = "10"
	it.Data.Duration.Units = "minute"

	comp, _ := b.Build([]foundry.Item{it}, nil)
	s := comp.Spells[0]
	if s.Components != "M (a diamond, which the spell consumes)" {
		t.Fatalf("components = %q", s.Components)
	}
	if s.Duration != "Concentration, 10 minute" {
		t.Fatalf("duration = %q", s.Duration)
	}
}

func TestItemTypesAndValue(t *testing.T) {
	b := testBuilder(t)
	cases := []struct {
		name string
		item foundry.Item
		typ  string
	}{
		{"potion", consumable("potion"), "P"},
		{"wand", consumable("wand"), "WD"},
		{"scroll", consumable("scroll"), "SC"},
		{"ammo", consumable("ammo"), "A"},
		{"food", consumable("food"), "G"},
		{"mystery", consumable("mystery"), "G"},
		{"loot", foundry.Item{Type: "loot"}, "G"},
		{"tool", foundry.Item{Type: "tool"}, "G"},
	}
	for _, c := range cases {
		c.item.ID = c.name
		c.item.Name = c.name
		comp, err := b.Build([]foundry.Item{c.item}, nil)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got := comp.Items[0].Type; got != c.typ {
			t.Fatalf("%s type = %q, want %q", c.name, got, c.typ)
		}
	}
}

func consumable(kind string) foundry.Item {
	it := foundry.Item{Type: "consumable"}
	it.Data.ConsumableType = kind
	return it
}

func TestItemPrice(t *testing.T) {
	b := testBuilder(t)
	cases := []struct {
		price float64
		want  string
	}{
		{150, "1.5 gp"},
		{100, "1 gp"},
		{25, "2.5 sp"},
		{5, "5 cp"},
	}
	for _, c := range cases {
		it := foundry.Item{ID: "i", Name: "thing", Type: "loot"}
		it.Data.Price = foundry.Num(c.price)
		comp, _ := b.Build([]foundry.Item{it}, nil)
		if got := comp.Items[0].Value; got != c.want {
			t.Fatalf("price %v = %q, want %q", c.price, got, c.want)
		}
	}
}

func TestArmorItem(t *testing.T) {
	b := testBuilder(t)
	it := foundry.Item{ID: "a1", Name: "Chain Mail", Type: "equipment"}
	it.Data.Armor = &foundry.Armor{Type: "heavy", Value: 16}

	comp, _ := b.Build([]foundry.Item{it}, nil)
	got := comp.Items[0]
	if got.Type != "HA" || got.AC != "16" {
		t.Fatalf("armor = %q ac %q", got.Type, got.AC)
	}
}

func TestWeaponItem(t *testing.T) {
	b := testBuilder(t)
	it := foundry.Item{ID: "w1", Name: "Longsword", Type: "weapon"}
	it.Data.WeaponType = "martialM"
	it.Data.Properties = map[string]foundry.Flag{"ver": true, "fin": false}
	it.Data.Damage.Parts = [][]foundry.Str{{"1d8 + @mod", "slashing"}}
	it.Data.Damage.Versatile = "1d10 + @mod"

	comp, _ := b.Build([]foundry.Item{it}, nil)
	got := comp.Items[0]
	if got.Type != "M" {
		t.Fatalf("type = %q", got.Type)
	}
	if got.Property != "V" {
		t.Fatalf("property = %q", got.Property)
	}
	if got.Dmg1 != "1d8" {
		t.Fatalf("dmg1 = %q", got.Dmg1)
	}
	if got.DmgType != "S" {
		t.Fatalf("dmgType = %q", got.DmgType)
	}
}

func TestFeatSkipped(t *testing.T) {
	b := testBuilder(t)
	comp, err := b.Build([]foundry.Item{{ID: "f1", Name: "Lucky", Type: "feat"}}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(comp.Items)+len(comp.Spells) != 0 {
		t.Fatalf("feat converted")
	}
}

func TestItemImageResolvedAgainstStagingRoot(t *testing.T) {
	b := testBuilder(t)
	iconDir := filepath.Join(b.StagingDir, "icons")
	if err := os.MkdirAll(iconDir, 0o755); err != nil {
		t.Fatalf("create icon dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(iconDir, "sword.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	it := foundry.Item{ID: "i1", Name: "Longsword", Type: "loot", Img: "icons/sword.png"}

	comp, err := b.Build([]foundry.Item{it}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got := comp.Items[0]
	if got.Image != "longsword_sword.png" {
		t.Errorf("image = %q, want staged icon", got.Image)
	}
	if _, err := os.Stat(filepath.Join(b.StagingDir, "items", "longsword_sword.png")); err != nil {
		t.Errorf("icon not staged under items/: %v", err)
	}
}
