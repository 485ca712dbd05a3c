package epmod

import "encoding/xml"

// YesNo marshals a bool the way the importer expects.
type YesNo bool

func (y YesNo) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	v := "NO"
	if y {
		v = "YES"
	}
	return e.EncodeElement(v, start)
}

// Module is the root manifest. The same structure serializes as <pack> for
// asset packs; the root element name follows the Kind field.
type Module struct {
	XMLName     xml.Name
	ID          string `xml:"id,attr"`
	Version     string `xml:"version,attr"`
	Name        string `xml:"name"`
	Author      string `xml:"author"`
	Category    string `xml:"category"`
	Code        string `xml:"code"`
	Slug        string `xml:"slug"`
	Description string `xml:"description"`
	Image       string `xml:"image"`

	Groups []*Group `xml:"group"`
	Pages  []*Page  `xml:"page"`
	Maps   []*Map   `xml:"map"`
	Assets []*Asset `xml:"asset"`
}

// NewModule builds an adventure module manifest.
func NewModule(id, version string) *Module {
	return &Module{XMLName: xml.Name{Local: "module"}, ID: id, Version: version, Category: "adventure"}
}

// NewPack builds a personal asset pack manifest.
func NewPack(id, version string) *Module {
	return &Module{XMLName: xml.Name{Local: "pack"}, ID: id, Version: version, Category: "personal"}
}

// IsPack reports whether the manifest serializes as an asset pack.
func (m *Module) IsPack() bool { return m.XMLName.Local == "pack" }

// Group is a navigation folder.
type Group struct {
	ID     string `xml:"id,attr"`
	Parent string `xml:"parent,attr,omitempty"`
	Sort   int    `xml:"sort,attr"`
	Name   string `xml:"name"`
	Slug   string `xml:"slug,omitempty"`
}

// Page is an HTML content page.
type Page struct {
	ID      string `xml:"id,attr"`
	Parent  string `xml:"parent,attr,omitempty"`
	Sort    int    `xml:"sort,attr"`
	Name    string `xml:"name"`
	Slug    string `xml:"slug"`
	Content string `xml:"content"`
}

// Map is a playable battle map.
type Map struct {
	ID     string `xml:"id,attr"`
	Parent string `xml:"parent,attr,omitempty"`
	Sort   int    `xml:"sort,attr"`
	Name   string `xml:"name"`
	Slug   string `xml:"slug"`

	Image    string `xml:"image"`
	Video    string `xml:"video,omitempty"`
	Snapshot string `xml:"snapshot,omitempty"`

	GridSize    int     `xml:"gridSize"`
	Scale       float64 `xml:"scale"`
	GridScale   int     `xml:"gridScale"`
	GridUnits   string  `xml:"gridUnits"`
	GridVisible YesNo   `xml:"gridVisible"`
	GridColor   string  `xml:"gridColor"`
	GridOffsetX int     `xml:"gridOffsetX"`
	GridOffsetY int     `xml:"gridOffsetY"`
	GridType    string  `xml:"gridType"`

	LineOfSight    YesNo    `xml:"lineOfSight"`
	FogOfWar       *YesNo   `xml:"fogOfWar,omitempty"`
	FogExploration *YesNo   `xml:"fogExploration,omitempty"`
	LosDaylight    *float64 `xml:"losDaylight,omitempty"`

	Walls    []*Wall    `xml:"wall"`
	Tiles    []*Tile    `xml:"tile"`
	Lights   []*Light   `xml:"light"`
	Tokens   []*Token   `xml:"token"`
	Drawings []*Drawing `xml:"drawing"`
	Markers  []*Marker  `xml:"marker"`
}

// Wall is a line-of-sight polyline.
type Wall struct {
	ID        string `xml:"id,attr"`
	Data      string `xml:"data"`
	Type      string `xml:"type"`
	Color     string `xml:"color"`
	Door      string `xml:"door,omitempty"`
	Side      string `xml:"side,omitempty"`
	Generated YesNo  `xml:"generated"`
}

// Tile is a placed image or animated image.
type Tile struct {
	X        int        `xml:"x"`
	Y        int        `xml:"y"`
	ZIndex   int        `xml:"zIndex"`
	Width    int        `xml:"width"`
	Height   int        `xml:"height"`
	Opacity  float64    `xml:"opacity"`
	Rotation float64    `xml:"rotation"`
	Locked   YesNo      `xml:"locked"`
	Layer    string     `xml:"layer"`
	Hidden   YesNo      `xml:"hidden"`
	Asset    *TileAsset `xml:"asset"`
}

// TileAsset names the tile's backing resource.
type TileAsset struct {
	Name     string `xml:"name"`
	Type     string `xml:"type"`
	Resource string `xml:"resource,omitempty"`
}

// Light is an ambient light source.
type Light struct {
	ID            string  `xml:"id,attr"`
	RadiusMax     int     `xml:"radiusMax"`
	RadiusMin     int     `xml:"radiusMin"`
	Color         string  `xml:"color"`
	Opacity       float64 `xml:"opacity"`
	AlwaysVisible YesNo   `xml:"alwaysVisible"`
	X             int     `xml:"x"`
	Y             int     `xml:"y"`
}

// Token is a pre-placed creature token.
type Token struct {
	ID        string      `xml:"id,attr"`
	Name      string      `xml:"name"`
	X         int         `xml:"x"`
	Y         int         `xml:"y"`
	Asset     *TokenAsset `xml:"asset,omitempty"`
	Hidden    YesNo       `xml:"hidden"`
	Scale     float64     `xml:"scale"`
	Size      string      `xml:"size"`
	Rotation  float64     `xml:"rotation"`
	Elevation float64     `xml:"elevation"`
	Vision    *Vision     `xml:"vision"`
	Reference string      `xml:"reference"`
}

// TokenAsset names the token's artwork.
type TokenAsset struct {
	ID       string `xml:"id,attr"`
	Name     string `xml:"name"`
	Type     string `xml:"type"`
	Resource string `xml:"resource"`
}

// Vision is the token's light emission and darkvision block.
type Vision struct {
	ID             string  `xml:"id,attr"`
	Enabled        YesNo   `xml:"enabled"`
	Light          YesNo   `xml:"light"`
	LightRadiusMin int     `xml:"lightRadiusMin"`
	LightRadiusMax int     `xml:"lightRadiusMax"`
	LightOpacity   float64 `xml:"lightOpacity"`
	Dark           YesNo   `xml:"dark"`
	DarkRadiusMin  int     `xml:"darkRadiusMin"`
	DarkRadiusMax  int     `xml:"darkRadiusMax"`
}

// Drawing is a freeform polyline annotation.
type Drawing struct {
	ID          string  `xml:"id,attr"`
	Layer       string  `xml:"layer"`
	StrokeWidth float64 `xml:"strokeWidth"`
	StrokeColor string  `xml:"strokeColor"`
	Opacity     float64 `xml:"opacity"`
	FillColor   string  `xml:"fillColor"`
	Data        string  `xml:"data"`
}

// Marker is a map pin, usually linking a page.
type Marker struct {
	Name    string         `xml:"name"`
	Label   string         `xml:"label"`
	Shape   string         `xml:"shape"`
	X       int            `xml:"x"`
	Y       int            `xml:"y"`
	Hidden  YesNo          `xml:"hidden"`
	Content *MarkerContent `xml:"content,omitempty"`
}

// MarkerContent references the linked page.
type MarkerContent struct {
	Ref string `xml:"ref,attr"`
}

// Asset is a pack-mode art asset.
type Asset struct {
	ID       string `xml:"id,attr"`
	Parent   string `xml:"parent,attr,omitempty"`
	Name     string `xml:"name"`
	Tags     string `xml:"tags,omitempty"`
	Type     string `xml:"type"`
	Scale    string `xml:"scale,omitempty"`
	Size     string `xml:"size,omitempty"`
	Resource string `xml:"resource,omitempty"`
}
