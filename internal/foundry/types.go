package foundry

import "encoding/json"

// Manifest is the world.json / module.json descriptor.
type Manifest struct {
	Title            string      `json:"title"`
	Name             string      `json:"name"`
	Version          Str         `json:"version"`
	Author           StringList  `json:"author"`
	Description      string      `json:"description"`
	Styles           []string    `json:"styles"`
	Packs            []PackDecl  `json:"packs"`
	Media            []MediaDecl `json:"media"`
	EncounterPackDir string      `json:"EncounterPackDir"`
}

// PackDecl declares a compendium pack file inside a module manifest.
type PackDecl struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Entity string `json:"entity"`
	System string `json:"system"`
}

// MediaDecl declares module-level media such as the cover image.
type MediaDecl struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Link string `json:"link"`
}

// Href returns the declared location, whichever field carries it.
func (m MediaDecl) Href() string {
	if m.URL != "" {
		return m.URL
	}
	return m.Link
}

// Folder is one source folder record.
type Folder struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Parent  string `json:"parent"`
	Sort    Num    `json:"sort"`
	Deleted Flag   `json:"$$deleted"`
}

// JournalEntry is one source journal record.
type JournalEntry struct {
	ID      string          `json:"_id"`
	Name    string          `json:"name"`
	Content string          `json:"content"`
	Img     string          `json:"img"`
	Folder  string          `json:"folder"`
	Sort    Num             `json:"sort"`
	Flags   json.RawMessage `json:"flags"`
	Deleted Flag            `json:"$$deleted"`
}

// HandoutOrder returns the Roll20 converter ordering hint, if present.
func (j JournalEntry) HandoutOrder() int {
	if len(j.Flags) == 0 {
		return 0
	}
	var flags struct {
		R20Converter struct {
			HandoutOrder Num `json:"handout-order"`
		} `json:"R20Converter"`
	}
	if err := json.Unmarshal(j.Flags, &flags); err != nil {
		return 0
	}
	return flags.R20Converter.HandoutOrder.Int()
}

// WallSegment is one raw wall line on a scene, in source pixel space.
type WallSegment struct {
	ID    string     `json:"_id"`
	C     [4]float64 `json:"c"`
	Move  Num        `json:"move"`
	Sense Num        `json:"sense"`
	Sight *Num       `json:"sight"`
	Door  Num        `json:"door"`
	Ds    Num        `json:"ds"`
	Dir   *Num       `json:"dir"`
}

// Tile is a positioned image overlay on a scene.
type Tile struct {
	Img      string `json:"img"`
	X        Num    `json:"x"`
	Y        Num    `json:"y"`
	Width    Num    `json:"width"`
	Height   Num    `json:"height"`
	Scale    Num    `json:"scale"`
	Z        Num    `json:"z"`
	Rotation Num    `json:"rotation"`
	Locked   Flag   `json:"locked"`
	Hidden   Flag   `json:"hidden"`
}

// Light is an ambient light source on a scene. Newer scene versions nest the
// photometric fields under config.
type Light struct {
	X         Num             `json:"x"`
	Y         Num             `json:"y"`
	Dim       Num             `json:"dim"`
	Bright    Num             `json:"bright"`
	TintColor string          `json:"tintColor"`
	TintAlpha Num             `json:"tintAlpha"`
	T         string          `json:"t"`
	Config    *LightConfig    `json:"config"`
	Animation *LightAnimation `json:"lightAnimation"`
}

// LightConfig is the v9+ nested photometric block.
type LightConfig struct {
	Dim    Num    `json:"dim"`
	Bright Num    `json:"bright"`
	Color  string `json:"color"`
	Alpha  Num    `json:"alpha"`
}

// LightAnimation names the light's animation effect.
type LightAnimation struct {
	Type string `json:"type"`
}

// Token is a positioned actor representation on a scene.
type Token struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Img         string `json:"img"`
	X           Num    `json:"x"`
	Y           Num    `json:"y"`
	Width       Num    `json:"width"`
	Height      Num    `json:"height"`
	Scale       Num    `json:"scale"`
	Rotation    Num    `json:"rotation"`
	Elevation   Num    `json:"elevation"`
	Hidden      Flag   `json:"hidden"`
	Vision      Flag   `json:"vision"`
	DimSight    Num    `json:"dimSight"`
	BrightSight Num    `json:"brightSight"`
	DimLight    *Num   `json:"dimLight"`
	BrightLight *Num   `json:"brightLight"`
	LightAlpha  *Num   `json:"lightAlpha"`
	ActorID     string `json:"actorId"`
	Light       *struct {
		Dim    Num `json:"dim"`
		Bright Num `json:"bright"`
		Alpha  Num `json:"alpha"`
	} `json:"light"`
}

// Drawing is a freeform polyline ("p") or text label ("t") on a scene.
type Drawing struct {
	ID          string       `json:"_id"`
	Type        string       `json:"type"`
	X           Num          `json:"x"`
	Y           Num          `json:"y"`
	Width       Num          `json:"width"`
	Height      Num          `json:"height"`
	Z           Num          `json:"z"`
	Rotation    Num          `json:"rotation"`
	Locked      Flag         `json:"locked"`
	Hidden      Flag         `json:"hidden"`
	Text        string       `json:"text"`
	FontFamily  string       `json:"fontFamily"`
	FontSize    Num          `json:"fontSize"`
	StrokeWidth Num          `json:"strokeWidth"`
	StrokeColor string       `json:"strokeColor"`
	StrokeAlpha Num          `json:"strokeAlpha"`
	FillColor   string       `json:"fillColor"`
	Points      [][2]float64 `json:"points"`
}

// Note is a journal pin on a scene.
type Note struct {
	EntryID string `json:"entryId"`
	X       Num    `json:"x"`
	Y       Num    `json:"y"`
}

// AmbientSound is a positioned audio cue on a scene.
type AmbientSound struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	X      Num    `json:"x"`
	Y      Num    `json:"y"`
	Repeat Flag   `json:"repeat"`
}

// Scene is one source map record.
type Scene struct {
	ID             string         `json:"_id"`
	Name           string         `json:"name"`
	Width          Num            `json:"width"`
	Height         Num            `json:"height"`
	Grid           GridField      `json:"grid"`
	GridType       Num            `json:"gridType"`
	GridDistance   Num            `json:"gridDistance"`
	GridUnits      string         `json:"gridUnits"`
	GridColor      string         `json:"gridColor"`
	GridAlpha      Num            `json:"gridAlpha"`
	ShiftX         Num            `json:"shiftX"`
	ShiftY         Num            `json:"shiftY"`
	Padding        *Num           `json:"padding"`
	Img            string         `json:"img"`
	Thumb          string         `json:"thumb"`
	TokenVision    Flag           `json:"tokenVision"`
	FogExploration Flag           `json:"fogExploration"`
	GlobalLight    Flag           `json:"globalLight"`
	Darkness       Num            `json:"darkness"`
	Journal        string         `json:"journal"`
	Folder         string         `json:"folder"`
	Sort           Num            `json:"sort"`
	Walls          []WallSegment  `json:"walls"`
	Tiles          []Tile         `json:"tiles"`
	Lights         []Light        `json:"lights"`
	Tokens         []Token        `json:"tokens"`
	Drawings       []Drawing      `json:"drawings"`
	Notes          []Note         `json:"notes"`
	Sounds         []AmbientSound `json:"sounds"`
	Deleted        Flag           `json:"$$deleted"`
}

// GridField accepts both the legacy flat number and the v10 object form.
type GridField struct {
	Size Num
	Type *Num
}

func (g *GridField) UnmarshalJSON(data []byte) error {
	var nested struct {
		Size Num  `json:"size"`
		Type *Num `json:"type"`
	}
	if err := json.Unmarshal(data, &nested); err == nil {
		g.Size = nested.Size
		g.Type = nested.Type
		return nil
	}
	var flat Num
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	g.Size = flat
	return nil
}

// GridSize returns the nominal grid cell size in source pixels.
func (s Scene) GridSize() float64 { return s.Grid.Size.Float() }

// GridKind returns the numeric grid type, preferring the v10 nested form.
func (s Scene) GridKind() int {
	if s.Grid.Type != nil {
		return s.Grid.Type.Int()
	}
	return s.GridType.Int()
}

// Actor is one compendium actor (monster) record.
type Actor struct {
	ID      string    `json:"_id"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Img     string    `json:"img"`
	Data    ActorData `json:"data"`
	Token   struct {
		Name string `json:"name"`
		Img  string `json:"img"`
	} `json:"token"`
	Items   []ActorItem `json:"items"`
	Deleted Flag        `json:"$$deleted"`
}

// ActorItem is a nested feature/weapon/equipment record on an actor.
type ActorItem struct {
	Name string   `json:"name"`
	Type string   `json:"type"`
	Data ItemData `json:"data"`
}

// ActorData is the typed view of an actor's nested data blob.
type ActorData struct {
	Abilities  map[string]Ability `json:"abilities"`
	Attributes Attributes         `json:"attributes"`
	Details    Details            `json:"details"`
	Traits     Traits             `json:"traits"`
	Skills     map[string]Skill   `json:"skills"`
}

type Ability struct {
	Value      Num  `json:"value"`
	Mod        Num  `json:"mod"`
	Save       Num  `json:"save"`
	Proficient Flag `json:"proficient"`
}

type Skill struct {
	Mod     Num    `json:"mod"`
	Total   *Num   `json:"total"`
	Prof    *Num   `json:"prof"`
	Passive *Num   `json:"passive"`
	Ability string `json:"ability"`
}

type Attributes struct {
	AC struct {
		Value *Num `json:"value"`
		Flat  *Num `json:"flat"`
	} `json:"ac"`
	HP struct {
		Value   Num    `json:"value"`
		Formula string `json:"formula"`
	} `json:"hp"`
	Speed    *LegacySpeed   `json:"speed"`
	Movement map[string]Str `json:"movement"`
}

// LegacySpeed is the flat pre-v9 speed block. Newer actors carry a movement
// map instead and mark this block deprecated.
type LegacySpeed struct {
	Value      Str  `json:"value"`
	Special    Str  `json:"special"`
	Deprecated Flag `json:"_deprecated"`
}

type Details struct {
	Type        CreatureType `json:"type"`
	Alignment   string       `json:"alignment"`
	CR          *Num         `json:"cr"`
	CRText      string       `json:"-"`
	Source      string       `json:"source"`
	Environment string       `json:"environment"`
	Biography   struct {
		Value  string `json:"value"`
		Public string `json:"public"`
	} `json:"biography"`
}

// CreatureType accepts the plain-string and structured forms.
type CreatureType struct {
	Value   string
	Subtype string
	Swarm   string
	Custom  string
}

func (t *CreatureType) UnmarshalJSON(data []byte) error {
	var nested struct {
		Value   string `json:"value"`
		Subtype string `json:"subtype"`
		Swarm   string `json:"swarm"`
		Custom  string `json:"custom"`
	}
	if err := json.Unmarshal(data, &nested); err == nil {
		*t = CreatureType(nested)
		return nil
	}
	var plain string
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	t.Value = plain
	return nil
}

type DamageList struct {
	Value   []string `json:"value"`
	Special string   `json:"special"`
}

type Traits struct {
	Size      string     `json:"size"`
	DI        DamageList `json:"di"`
	DV        DamageList `json:"dv"`
	DR        DamageList `json:"dr"`
	CI        DamageList `json:"ci"`
	Senses    Senses     `json:"senses"`
	Languages DamageList `json:"languages"`
}

// Senses accepts the plain-string and structured (per-sense range) forms.
type Senses struct {
	Text   string
	Ranges map[string]float64
	Units  string
	Extra  string
}

func (s *Senses) UnmarshalJSON(data []byte) error {
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(data, &nested); err == nil {
		s.Ranges = map[string]float64{}
		s.Units = "ft"
		for key, raw := range nested {
			switch key {
			case "units":
				var u Str
				if json.Unmarshal(raw, &u) == nil && u != "" {
					s.Units = u.String()
				}
			case "special":
				var extra Str
				_ = json.Unmarshal(raw, &extra)
				s.Extra = extra.String()
			default:
				var n Num
				if json.Unmarshal(raw, &n) == nil {
					s.Ranges[key] = n.Float()
				}
			}
		}
		return nil
	}
	var plain Str
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	s.Text = plain.String()
	return nil
}

// Item is one compendium item record.
type Item struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Img     string   `json:"img"`
	Data    ItemData `json:"data"`
	Deleted Flag     `json:"$$deleted"`
}

// ItemData is the typed view of an item's nested data blob.
type ItemData struct {
	Description struct {
		Value string `json:"value"`
	} `json:"description"`
	Source     string  `json:"source"`
	Weight     Num     `json:"weight"`
	Rarity     string  `json:"rarity"`
	Price      Num     `json:"price"`
	Level      Num     `json:"level"`
	School     string  `json:"school"`
	Components CompMap `json:"components"`
	Materials  struct {
		Value    string `json:"value"`
		Consumed Flag   `json:"consumed"`
	} `json:"materials"`
	Activation struct {
		Cost Num    `json:"cost"`
		Type string `json:"type"`
	} `json:"activation"`
	Range struct {
		Value Num    `json:"value"`
		Long  Num    `json:"long"`
		Units string `json:"units"`
	} `json:"range"`
	Duration struct {
		Value Str    `json:"value"`
		Units string `json:"units"`
	} `json:"duration"`
	ConsumableType string          `json:"consumableType"`
	Armor          *Armor          `json:"armor"`
	WeaponType     string          `json:"weaponType"`
	Staff          Flag            `json:"staff"`
	Properties     map[string]Flag `json:"properties"`
	Damage     struct {
		Parts     [][]Str `json:"parts"`
		Versatile string  `json:"versatile"`
	} `json:"damage"`
}

// Armor is an equipment item's armor block.
type Armor struct {
	Type  string `json:"type"`
	Value Num    `json:"value"`
}

// CompMap holds the spell component switches plus ritual/concentration.
type CompMap map[string]Flag

// RollTable is one source roll table record.
type RollTable struct {
	ID      string        `json:"_id"`
	Name    string        `json:"name"`
	Formula string        `json:"formula"`
	Folder  string        `json:"folder"`
	Sort    Num           `json:"sort"`
	Results []TableResult `json:"results"`
	Deleted Flag          `json:"$$deleted"`
}

type TableResult struct {
	Range      [2]Num `json:"range"`
	Text       string `json:"text"`
	Img        string `json:"img"`
	Collection string `json:"collection"`
	ResultID   string `json:"resultId"`
}

// Playlist is one source playlist record.
type Playlist struct {
	ID      string          `json:"_id"`
	Name    string          `json:"name"`
	Sort    Num             `json:"sort"`
	Sounds  []PlaylistSound `json:"sounds"`
	Deleted Flag            `json:"$$deleted"`
}

type PlaylistSound struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Repeat Flag   `json:"repeat"`
}
