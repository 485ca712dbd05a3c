package compendium

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rrgeorge/FoundryToEncounter/internal/epmod"
	"github.com/rrgeorge/FoundryToEncounter/internal/fileutil"
	"github.com/rrgeorge/FoundryToEncounter/internal/foundry"
	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
	"github.com/rrgeorge/FoundryToEncounter/internal/logging"
	"github.com/rrgeorge/FoundryToEncounter/internal/media"
	"github.com/rrgeorge/FoundryToEncounter/internal/richtext"
)

// Builder turns item and actor records into a compendium tree. StagingDir
// receives the items/, spells/ and monsters/ artwork directories. ImageExt
// is the target extension for webp artwork; ".webp" keeps it as-is.
type Builder struct {
	IDs        *ident.Context
	Text       *richtext.Index
	StagingDir string
	ImageExt   string
	Logger     *slog.Logger

	// Progress, when set, is called after each converted record.
	Progress func(done, total int)
}

// abs resolves a record-relative media path against the staging root.
func (b *Builder) abs(rel string) string {
	return filepath.Join(b.StagingDir, filepath.FromSlash(rel))
}

var schoolCodes = map[string]string{
	"abj": "A",
	"con": "C",
	"div": "D",
	"enc": "EN",
	"evo": "EV",
	"ill": "I",
	"nec": "N",
	"trs": "T",
}

var skillNames = []struct{ code, name string }{
	{"acr", "Acrobatics"},
	{"ani", "Animal Handling"},
	{"arc", "Arcana"},
	{"ath", "Athletics"},
	{"dec", "Deception"},
	{"his", "History"},
	{"ins", "Insight"},
	{"inv", "Investigation"},
	{"itm", "Intimidation"},
	{"med", "Medicine"},
	{"nat", "Nature"},
	{"per", "Persuasion"},
	{"prc", "Perception"},
	{"prf", "Performance"},
	{"rel", "Religion"},
	{"slt", "Sleight of Hand"},
	{"ste", "Stealth"},
	{"sur", "Survival"},
}

var abilityOrder = []string{"str", "dex", "con", "int", "wis", "cha"}

var titler = cases.Title(language.Und)

// Build converts every item and actor. Feats are not standalone compendium
// content and are skipped.
func (b *Builder) Build(items []foundry.Item, actors []foundry.Actor) (*epmod.Compendium, error) {
	log := b.Logger
	if log == nil {
		log = logging.NewNop()
	}
	for _, sub := range []string{"items", "spells", "monsters"} {
		if err := os.MkdirAll(filepath.Join(b.StagingDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", sub, err)
		}
	}
	comp := &epmod.Compendium{}
	total := len(items) + len(actors)
	done := 0
	for _, it := range items {
		done++
		b.report(done, total)
		switch it.Type {
		case "feat":
			continue
		case "spell":
			comp.Spells = append(comp.Spells, b.spell(it))
		default:
			comp.Items = append(comp.Items, b.item(it, log))
		}
	}
	for _, a := range actors {
		done++
		b.report(done, total)
		comp.Monsters = append(comp.Monsters, b.monster(a, log))
	}
	return comp, nil
}

func (b *Builder) report(done, total int) {
	if b.Progress != nil {
		b.Progress(done, total)
	}
}

func (b *Builder) spell(it foundry.Item) *epmod.Spell {
	d := it.Data
	s := &epmod.Spell{
		ID:     b.IDs.ID(it.ID),
		Name:   it.Name,
		Slug:   ident.Slugify(it.Name),
		Level:  d.Level.Int(),
		School: d.School,
		Ritual: epmod.YesNo(d.Components["ritual"]),
		Time:   fmt.Sprintf("%s %s", num(d.Activation.Cost), d.Activation.Type),
		Range:  rangeText(d.Range.Value, d.Range.Long, d.Range.Units),
		Source: d.Source,
		Text:   d.Description.Value + "\n<i>Source: " + d.Source + "</i>",
	}
	if code, ok := schoolCodes[d.School]; ok {
		s.School = code
	}

	var comps []string
	for _, component := range []string{"vocal", "somatic", "material"} {
		if !d.Components[component].Bool() {
			continue
		}
		c := strings.ToUpper(component[:1])
		if c == "M" && d.Materials.Value != "" {
			material := d.Materials.Value
			if d.Materials.Consumed.Bool() {
				material += ", which the spell consumes"
			}
			c += fmt.Sprintf(" (%s)", material)
		}
		comps = append(comps, c)
	}
	s.Components = strings.Join(comps, ",")

	if d.Duration.Units == "inst" {
		s.Duration = "Instantaneous"
	} else {
		s.Duration = fmt.Sprintf("%s %s", d.Duration.Value, d.Duration.Units)
	}
	if d.Components["concentration"].Bool() {
		s.Duration = "Concentration, " + s.Duration
	}
	return s
}

func (b *Builder) item(it foundry.Item, log *slog.Logger) *epmod.CompendiumItem {
	d := it.Data
	out := &epmod.CompendiumItem{
		ID:   b.IDs.ID(it.ID),
		Name: it.Name,
		Slug: ident.Slugify(it.Name),
		Text: b.Text.Flatten(d.Description.Value),
	}
	if d.Weight.Float() != 0 {
		out.Weight = num(d.Weight)
	}
	if d.Rarity != "" {
		out.Rarity = titler.String(d.Rarity)
	}
	if price := d.Price.Float(); price != 0 {
		switch {
		case price >= 100:
			out.Value = fmt.Sprintf("%g gp", price/100)
		case price >= 10:
			out.Value = fmt.Sprintf("%g sp", price/10)
		default:
			out.Value = fmt.Sprintf("%g cp", price)
		}
	}

	switch it.Type {
	case "consumable":
		switch d.ConsumableType {
		case "potion":
			out.Type = "P"
		case "wand":
			out.Type = "WD"
		case "scroll":
			out.Type = "SC"
		case "food", "trinket":
			out.Type = "G"
		case "ammo":
			out.Type = "A"
		default:
			log.Warn("unknown consumable type", logging.String("item", it.Name), logging.String("type", d.ConsumableType))
			out.Type = "G"
		}
	case "equipment":
		armorType := ""
		if d.Armor != nil {
			armorType = d.Armor.Type
		}
		switch armorType {
		case "clothing", "light":
			out.Type = "LA"
		case "medium":
			out.Type = "MA"
		case "heavy":
			out.Type = "HA"
		case "shield":
			out.Type = "S"
		case "trinket":
			out.Type = "G"
		default:
			log.Warn("unknown armor type", logging.String("item", it.Name), logging.String("type", armorType))
			out.Type = "AA"
		}
		if d.Armor != nil && d.Armor.Value.Float() != 0 {
			out.AC = num(d.Armor.Value)
		}
	case "weapon":
		b.weapon(it, out, log)
	case "loot", "backpack", "tool":
		out.Type = "G"
	default:
		log.Warn("unknown item type", logging.String("item", it.Name), logging.String("type", it.Type))
	}

	if img := media.Unquote(it.Img); img != "" && fileutil.Exists(b.abs(img)) {
		name := out.Slug + "_" + filepath.Base(img)
		dst := filepath.Join(b.StagingDir, "items", name)
		if err := fileutil.CopyFile(b.abs(img), dst); err != nil {
			log.Warn("copy item image failed", logging.String("item", it.Name), logging.Error(err))
		} else {
			out.Image = name
		}
	}
	return out
}

var weaponProps = []struct{ key, code string }{
	{"amm", "A"},
	{"fin", "F"},
	{"hvy", "H"},
	{"lgt", "L"},
	{"lod", "LD"},
	{"rch", "R"},
	{"spc", "S"},
	{"thr", "T"},
	{"two", "2H"},
	{"ver", "V"},
}

var (
	dmgModRe       = regexp.MustCompile(`[ ]?\+[ ]?@mod`)
	versatileModRe = regexp.MustCompile(`\[\[a-z]*\]?[ ]?\+[ ]?(@mod)?`)
)

func (b *Builder) weapon(it foundry.Item, out *epmod.CompendiumItem, log *slog.Logger) {
	d := it.Data
	switch d.WeaponType {
	case "simpleR", "martialR":
		out.Type = "R"
	case "simpleM", "martialM":
		out.Type = "M"
	default:
		if d.Staff.Bool() {
			out.Type = "ST"
			break
		}
		if d.WeaponType != "natural" {
			log.Warn("unknown weapon type", logging.String("item", it.Name), logging.String("type", d.WeaponType))
		}
		out.Type = "WW"
	}

	var props []string
	for _, p := range weaponProps {
		if d.Properties[p.key].Bool() {
			props = append(props, p.code)
		}
	}
	out.Property = strings.Join(props, ",")

	if len(d.Damage.Parts) > 0 && len(d.Damage.Parts[0]) > 0 {
		out.Dmg1 = dmgModRe.ReplaceAllString(d.Damage.Parts[0][0].String(), "")
		if len(d.Damage.Parts[0]) > 1 {
			if dt := d.Damage.Parts[0][1].String(); dt != "" {
				out.DmgType = strings.ToUpper(dt[:1])
			}
		}
	}
	if d.Damage.Versatile != "" {
		out.Dmg2 = versatileModRe.ReplaceAllString(d.Damage.Versatile, "")
	}
	if d.Range.Value.Float() != 0 || d.Range.Units != "" {
		out.Range = rangeText(d.Range.Value, d.Range.Long, d.Range.Units)
	}
}

func rangeText(value, long foundry.Num, units string) string {
	if long.Float() != 0 {
		return fmt.Sprintf("%s/%s %s", num(value), num(long), units)
	}
	return fmt.Sprintf("%s %s", num(value), units)
}

func num(n foundry.Num) string {
	return strconv.FormatFloat(n.Float(), 'g', -1, 64)
}
