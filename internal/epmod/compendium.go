package epmod

import "encoding/xml"

// Compendium is the root of compendium.xml, holding the game content
// extracted from the source's item and actor databases.
type Compendium struct {
	XMLName  xml.Name          `xml:"compendium"`
	Spells   []*Spell          `xml:"spell"`
	Items    []*CompendiumItem `xml:"item"`
	Monsters []*Monster        `xml:"monster"`
}

// Spell is one spell entry.
type Spell struct {
	ID         string `xml:"id,attr"`
	Name       string `xml:"name"`
	Slug       string `xml:"slug"`
	Level      int    `xml:"level"`
	School     string `xml:"school"`
	Ritual     YesNo  `xml:"ritual"`
	Time       string `xml:"time"`
	Range      string `xml:"range"`
	Components string `xml:"components"`
	Duration   string `xml:"duration"`
	Source     string `xml:"source"`
	Text       string `xml:"text"`
}

// CompendiumItem is one equipment entry. Type carries the importer's item
// category code.
type CompendiumItem struct {
	ID       string `xml:"id,attr"`
	Name     string `xml:"name"`
	Slug     string `xml:"slug"`
	Weight   string `xml:"weight,omitempty"`
	Rarity   string `xml:"rarity,omitempty"`
	Value    string `xml:"value,omitempty"`
	Type     string `xml:"type,omitempty"`
	AC       string `xml:"ac,omitempty"`
	Property string `xml:"property,omitempty"`
	Dmg1     string `xml:"dmg1,omitempty"`
	DmgType  string `xml:"dmgType,omitempty"`
	Dmg2     string `xml:"dmg2,omitempty"`
	Range    string `xml:"range,omitempty"`
	Text     string `xml:"text"`
	Image    string `xml:"image,omitempty"`
}

// Monster is one stat-block entry.
type Monster struct {
	ID        string `xml:"id,attr"`
	Name      string `xml:"name"`
	Slug      string `xml:"slug"`
	Size      string `xml:"size"`
	Type      string `xml:"type,omitempty"`
	Alignment string `xml:"alignment,omitempty"`
	AC        string `xml:"ac"`
	HP        string `xml:"hp"`
	Speed     string `xml:"speed,omitempty"`

	Str int `xml:"str"`
	Dex int `xml:"dex"`
	Con int `xml:"con"`
	Int int `xml:"int"`
	Wis int `xml:"wis"`
	Cha int `xml:"cha"`

	Save            string `xml:"save"`
	Skill           string `xml:"skill"`
	Immune          string `xml:"immune"`
	Vulnerable      string `xml:"vulnerable"`
	Resist          string `xml:"resist"`
	ConditionImmune string `xml:"conditionImmune"`
	Senses          string `xml:"senses,omitempty"`
	Passive         string `xml:"passive"`
	Languages       string `xml:"languages"`
	Description     string `xml:"description"`
	CR              string `xml:"cr,omitempty"`
	Source          string `xml:"source,omitempty"`
	Environments    string `xml:"environments,omitempty"`
	Image           string `xml:"image,omitempty"`
	Token           string `xml:"token,omitempty"`

	Traits      []*StatBlockEntry `xml:"trait"`
	Actions     []*StatBlockEntry `xml:"action"`
	Reactions   []*StatBlockEntry `xml:"reaction"`
	Legendaries []*StatBlockEntry `xml:"legendary"`
}

// StatBlockEntry is a named trait, action, reaction or legendary action.
type StatBlockEntry struct {
	Name string `xml:"name"`
	Text string `xml:"text"`
}
