package compendium

import (
	"fmt"
	"log/slog"
	"math/big"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rrgeorge/FoundryToEncounter/internal/epmod"
	"github.com/rrgeorge/FoundryToEncounter/internal/fileutil"
	"github.com/rrgeorge/FoundryToEncounter/internal/foundry"
	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
	"github.com/rrgeorge/FoundryToEncounter/internal/logging"
	"github.com/rrgeorge/FoundryToEncounter/internal/media"
)

func (b *Builder) monster(a foundry.Actor, log *slog.Logger) *epmod.Monster {
	d := a.Data
	m := &epmod.Monster{
		ID:        b.IDs.ID(a.ID),
		Name:      a.Name,
		Slug:      ident.Slugify(a.Name),
		Alignment: d.Details.Alignment,
		Source:    d.Details.Source,
	}
	if d.Traits.Size != "" {
		m.Size = strings.ToUpper(d.Traits.Size[:1])
	}
	m.Type = monsterType(d.Details.Type)
	m.AC = armorClass(d.Attributes)
	m.HP = hitPoints(d.Attributes)
	m.Speed = speed(d.Attributes)

	m.Str = ability(d, "str")
	m.Dex = ability(d, "dex")
	m.Con = ability(d, "con")
	m.Int = ability(d, "int")
	m.Wis = ability(d, "wis")
	m.Cha = ability(d, "cha")

	m.Save = saves(d)
	m.Skill = skillList(d)
	m.Immune = damageList(d.Traits.DI, "; ")
	m.Vulnerable = damageList(d.Traits.DV, "; ")
	m.Resist = damageList(d.Traits.DR, "; ")
	m.ConditionImmune = damageList(d.Traits.CI, ", ")
	m.Senses = sensesText(d.Traits.Senses)
	if prc, ok := d.Skills["prc"]; ok && prc.Passive != nil {
		m.Passive = fmt.Sprintf("%d", prc.Passive.Int())
	}
	m.Languages = damageList(d.Traits.Languages, ", ")

	bio := strings.TrimRight(d.Details.Biography.Value+"\n"+d.Details.Biography.Public, " \n\t")
	m.Description = b.Text.Flatten(bio)

	if d.Details.CR != nil {
		m.CR = challengeRating(d.Details.CR.Float())
	}
	m.Environments = d.Details.Environment

	b.monsterArt(a, m, log)
	b.monsterFeatures(a, m)
	return m
}

func monsterType(t foundry.CreatureType) string {
	if t.Custom != "" {
		return t.Custom
	}
	value := t.Value
	if t.Swarm != "" {
		value = fmt.Sprintf("swarm of %s %ss", titler.String(t.Swarm), value)
	}
	if t.Subtype != "" {
		value += fmt.Sprintf(" (%s)", t.Subtype)
	}
	return value
}

func armorClass(attr foundry.Attributes) string {
	switch {
	case attr.AC.Value != nil:
		return fmt.Sprintf("%d", attr.AC.Value.Int())
	case attr.AC.Flat != nil:
		return fmt.Sprintf("%d", attr.AC.Flat.Int())
	}
	return ""
}

func hitPoints(attr foundry.Attributes) string {
	if attr.HP.Formula != "" {
		return fmt.Sprintf("%d (%s)", attr.HP.Value.Int(), attr.HP.Formula)
	}
	return fmt.Sprintf("%d", attr.HP.Value.Int())
}

// speed prefers the legacy flat field unless it is marked deprecated, then
// falls back to the per-mode movement map with walking speed listed first.
func speed(attr foundry.Attributes) string {
	if attr.Speed != nil && !attr.Speed.Deprecated.Bool() {
		if attr.Speed.Special != "" {
			return attr.Speed.Value.String() + ", " + attr.Speed.Special.String()
		}
		return attr.Speed.Value.String()
	}
	if len(attr.Movement) == 0 {
		return ""
	}
	units := attr.Movement["units"].String()
	if units == "" {
		units = "ft"
	}
	var modes []string
	for k := range attr.Movement {
		if k == "units" || k == "hover" || k == "walk" || attr.Movement[k] == "" || attr.Movement[k] == "0" {
			continue
		}
		modes = append(modes, k)
	}
	sort.Strings(modes)
	var parts []string
	if walk := attr.Movement["walk"]; walk != "" && walk != "0" {
		parts = append(parts, fmt.Sprintf("%s %s", walk, units))
	}
	for _, k := range modes {
		parts = append(parts, fmt.Sprintf("%s %s %s", k, attr.Movement[k], units))
	}
	return strings.Join(parts, ", ")
}

func ability(d foundry.ActorData, key string) int {
	return d.Abilities[key].Value.Int()
}

// saves lists only proficient saves whose bonus differs from the raw
// ability modifier.
func saves(d foundry.ActorData) string {
	var parts []string
	for _, key := range abilityOrder {
		ab, ok := d.Abilities[key]
		if !ok || !ab.Proficient.Bool() || ab.Save == ab.Mod {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %+d", titler.String(key), ab.Save.Int()))
	}
	return strings.Join(parts, ", ")
}

func skillList(d foundry.ActorData) string {
	var parts []string
	for _, sk := range skillNames {
		v, ok := d.Skills[sk.code]
		if !ok {
			continue
		}
		abilityMod := d.Abilities[v.Ability].Mod
		trained := false
		if v.Total != nil {
			trained = v.Mod != *v.Total
		} else {
			trained = v.Mod != abilityMod
		}
		if !trained {
			continue
		}
		bonus := v.Mod
		if v.Total != nil {
			bonus = *v.Total
		} else if v.Prof != nil {
			bonus = v.Mod + *v.Prof
		}
		parts = append(parts, fmt.Sprintf("%s %+d", sk.name, bonus.Int()))
	}
	return strings.Join(parts, ", ")
}

func damageList(l foundry.DamageList, sep string) string {
	out := strings.Join(l.Value, sep)
	if l.Special != "" {
		out += " " + l.Special
	}
	return out
}

func sensesText(s foundry.Senses) string {
	if s.Ranges == nil {
		return s.Text
	}
	var keys []string
	for k, v := range s.Ranges {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %g %s", k, s.Ranges[k], s.Units))
	}
	out := strings.Join(parts, ", ")
	if s.Extra != "" {
		if out != "" {
			out += ", "
		}
		out += s.Extra
	}
	return out
}

// challengeRating renders fractional ratings as exact fractions (1/8, 1/4,
// 1/2) and everything else as a plain number.
func challengeRating(cr float64) string {
	if cr > 0 && cr < 1 {
		return new(big.Rat).SetFloat64(cr).RatString()
	}
	return fmt.Sprintf("%g", cr)
}

// monsterArt stages the portrait and token artwork under monsters/,
// re-encoding webp when the output format differs.
func (b *Builder) monsterArt(a foundry.Actor, m *epmod.Monster, log *slog.Logger) {
	if img := media.Unquote(a.Img); img != "" && fileutil.Exists(b.abs(img)) {
		if name, err := b.stageArt(b.abs(img), m.Slug+"_", b.imageExt()); err != nil {
			log.Warn("stage monster image failed", logging.String("monster", a.Name), logging.Error(err))
		} else {
			m.Image = name
		}
	}
	// Tokens need alpha, so webp tokens re-encode to png rather than the
	// configured still format.
	if img := media.Unquote(a.Token.Img); img != "" && fileutil.Exists(b.abs(img)) {
		if name, err := b.stageArt(b.abs(img), "token_"+m.Slug+"_", ".png"); err != nil {
			log.Warn("stage monster token failed", logging.String("monster", a.Name), logging.Error(err))
		} else {
			m.Token = name
		}
	}
}

func (b *Builder) imageExt() string {
	if b.ImageExt == "" {
		return ".png"
	}
	return b.ImageExt
}

// stageArt copies src into the monsters directory under prefix+basename and
// returns the staged file name. webp sources re-encode to ext unless the
// output format is webp itself.
func (b *Builder) stageArt(src, prefix, ext string) (string, error) {
	name := prefix + filepath.Base(src)
	dst := filepath.Join(b.StagingDir, "monsters", name)
	if err := fileutil.CopyFile(src, dst); err != nil {
		return "", err
	}
	if strings.EqualFold(filepath.Ext(src), ".webp") && !strings.EqualFold(b.imageExt(), ".webp") {
		staged, err := media.Reencode(dst, ext)
		if err != nil {
			return "", err
		}
		return filepath.Base(staged), nil
	}
	return name, nil
}

// monsterFeatures folds the actor's nested items into stat block entries.
// Feats become traits or the action type their activation names, weapons
// become actions, and carried equipment is collected into one trait.
func (b *Builder) monsterFeatures(a foundry.Actor, m *epmod.Monster) {
	var equip []string
	for _, it := range a.Items {
		var kind string
		switch it.Type {
		case "feat":
			switch it.Data.Activation.Type {
			case "action", "reaction", "legendary":
				kind = it.Data.Activation.Type
			default:
				kind = "trait"
			}
		case "weapon":
			kind = "action"
		case "equipment":
			equip = append(equip, fmt.Sprintf("<item>%s</item>", it.Name))
			continue
		default:
			continue
		}
		entry := &epmod.StatBlockEntry{
			Name: it.Name,
			Text: stripNamePrefix(b.Text.Flatten(it.Data.Description.Value), it.Name),
		}
		switch kind {
		case "action":
			m.Actions = append(m.Actions, entry)
		case "reaction":
			m.Reactions = append(m.Reactions, entry)
		case "legendary":
			m.Legendaries = append(m.Legendaries, entry)
		default:
			m.Traits = append(m.Traits, entry)
		}
	}
	if len(equip) > 0 {
		m.Traits = append(m.Traits, &epmod.StatBlockEntry{
			Name: "Equipment",
			Text: strings.Join(equip, ", "),
		})
	}
}

// stripNamePrefix drops a feature description's leading restatement of its
// own name, tags included.
func stripNamePrefix(text, name string) string {
	re := regexp.MustCompile(`^((?:<[^>]*?>)*)` + regexp.QuoteMeta(name) + `\.?((?:</[^>]*?>)*)\.?`)
	return re.ReplaceAllString(text, "$1$2")
}
