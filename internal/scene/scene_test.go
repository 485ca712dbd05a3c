package scene

import (
	"context"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rrgeorge/FoundryToEncounter/internal/epmod"
	"github.com/rrgeorge/FoundryToEncounter/internal/fileutil"
	"github.com/rrgeorge/FoundryToEncounter/internal/foundry"
	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
	"github.com/rrgeorge/FoundryToEncounter/internal/media"
)

func testAssembler(t *testing.T) *Assembler {
	t.Helper()
	root := t.TempDir()
	ids := ident.NewContextAt("test-module", root)
	return &Assembler{
		IDs:    ids,
		Module: epmod.NewModule(ids.Namespace().String(), "1"),
		Root:   root,
	}
}

func writeImage(t *testing.T, root, rel string, w, h int) {
	t.Helper()
	img := media.Placeholder(w, h, color.Black)
	if err := media.SaveImage(img, filepath.Join(root, rel)); err != nil {
		t.Fatalf("write fixture image: %v", err)
	}
}

func testScene() *foundry.Scene {
	return &foundry.Scene{
		ID:           "scene1",
		Name:         "Test Scene",
		Width:        1000,
		Height:       800,
		Grid:         foundry.GridField{Size: 100},
		GridType:     1,
		GridDistance: 5,
		GridUnits:    "ft",
		GridColor:    "#000000",
		GridAlpha:    1,
		TokenVision:  true,
		Img:          "bg.png",
	}
}

func TestCreateMapSquareGrid(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	writeImage(t, a.Root, "bg.png", 1000, 800)

	slug, err := a.CreateMap(context.Background(), sc, "")
	if err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	if slug != "test-scene0" {
		t.Fatalf("slug = %q, want test-scene0", slug)
	}
	if len(a.Module.Maps) != 1 {
		t.Fatalf("maps = %d, want 1", len(a.Module.Maps))
	}
	m := a.Module.Maps[0]
	if m.Image != "bg.png" {
		t.Errorf("image = %q, want bg.png", m.Image)
	}
	if m.GridSize != 100 {
		t.Errorf("gridSize = %d, want 100", m.GridSize)
	}
	if m.GridType != "square" {
		t.Errorf("gridType = %q, want square", m.GridType)
	}
	if m.Scale != 1.0 {
		t.Errorf("scale = %v, want 1", m.Scale)
	}
	if m.GridScale != 5 || m.GridUnits != "ft" {
		t.Errorf("grid scale/units = %d/%q", m.GridScale, m.GridUnits)
	}
	if m.GridVisible != epmod.YesNo(true) {
		t.Errorf("gridVisible = %v, want YES", m.GridVisible)
	}
	if m.LineOfSight != epmod.YesNo(true) {
		t.Errorf("lineOfSight = %v, want YES", m.LineOfSight)
	}
	if m.FogOfWar != nil {
		t.Errorf("fogOfWar set without fog exploration")
	}
	if m.GridOffsetX != 0 || m.GridOffsetY != 0 {
		t.Errorf("grid offset = %d,%d, want 0,0", m.GridOffsetX, m.GridOffsetY)
	}
}

func TestCreateMapHexGridOffset(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	sc.GridType = 2
	writeImage(t, a.Root, "bg.png", 1000, 800)

	if _, err := a.CreateMap(context.Background(), sc, ""); err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	m := a.Module.Maps[0]
	if m.GridType != "hexPointy" {
		t.Errorf("gridType = %q, want hexPointy", m.GridType)
	}
	// Hex output halves the cell and shifts odd-row layouts down one cell.
	if m.GridSize != 50 {
		t.Errorf("gridSize = %d, want 50", m.GridSize)
	}
	if m.GridOffsetX != 0 || m.GridOffsetY != 50 {
		t.Errorf("grid offset = %d,%d, want 0,50", m.GridOffsetX, m.GridOffsetY)
	}
}

func TestCreateMapWallFolding(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	// The padding border is 300x200 for this canvas, so source (300,200)
	// lands on output (0,0).
	sc.Walls = []foundry.WallSegment{
		{ID: "w1", C: [4]float64{300, 200, 500, 200}, Move: 1, Sense: 1},
		{ID: "w2", C: [4]float64{500, 200, 500, 400}, Move: 1, Sense: 1},
		{ID: "w3", C: [4]float64{700, 600, 800, 600}, Move: 1, Sense: 0},
	}
	writeImage(t, a.Root, "bg.png", 1000, 800)

	if _, err := a.CreateMap(context.Background(), sc, ""); err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	m := a.Module.Maps[0]
	if len(m.Walls) != 2 {
		t.Fatalf("walls = %d, want 2 after chaining", len(m.Walls))
	}
	want := "0.0,0.0,200.0,0.0,200.0,0.0,200.0,200.0"
	if m.Walls[0].Data != want {
		t.Errorf("wall data = %q, want %q", m.Walls[0].Data, want)
	}
	if m.Walls[0].Type != "normal" {
		t.Errorf("wall type = %q, want normal", m.Walls[0].Type)
	}
	if m.Walls[1].Type != "invisible" {
		t.Errorf("wall type = %q, want invisible", m.Walls[1].Type)
	}
	if m.Walls[0].Generated != epmod.YesNo(true) {
		t.Errorf("generated = %v, want YES", m.Walls[0].Generated)
	}
}

func TestCreateMapTokenPlacement(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	sc.Tokens = []foundry.Token{{
		ID:          "tok1",
		Name:        "Goblin",
		X:           400,
		Y:           300,
		Width:       1,
		Height:      1,
		Vision:      true,
		DimSight:    60,
		BrightSight: 0,
	}}
	writeImage(t, a.Root, "bg.png", 1000, 800)

	if _, err := a.CreateMap(context.Background(), sc, ""); err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	m := a.Module.Maps[0]
	if len(m.Tokens) != 1 {
		t.Fatalf("tokens = %d, want 1", len(m.Tokens))
	}
	tok := m.Tokens[0]
	// Source (400,300) maps to (100,100); the center anchor adds half a cell.
	if tok.X != 150 || tok.Y != 150 {
		t.Errorf("token at %d,%d, want 150,150", tok.X, tok.Y)
	}
	if tok.Size != "M" {
		t.Errorf("size = %q, want M", tok.Size)
	}
	if tok.Scale != 1.0 {
		t.Errorf("scale = %v, want 1", tok.Scale)
	}
	if tok.Reference != "/monster/goblin" {
		t.Errorf("reference = %q, want /monster/goblin", tok.Reference)
	}
	if tok.Vision == nil {
		t.Fatalf("missing vision block")
	}
	if tok.Vision.Dark != epmod.YesNo(true) || tok.Vision.DarkRadiusMax != 60 {
		t.Errorf("darkvision = %v/%d, want YES/60", tok.Vision.Dark, tok.Vision.DarkRadiusMax)
	}
	if tok.Vision.Light != epmod.YesNo(false) {
		t.Errorf("light = %v, want NO", tok.Vision.Light)
	}
}

func TestCreateMapLights(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	sc.Lights = []foundry.Light{
		{X: 400, Y: 300, Dim: 40, Bright: 20, TintAlpha: 0.5},
		{X: 500, Y: 300, Dim: 40, Bright: 20, Animation: &foundry.LightAnimation{Type: "ghost"}},
	}
	writeImage(t, a.Root, "bg.png", 1000, 800)

	if _, err := a.CreateMap(context.Background(), sc, ""); err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	m := a.Module.Maps[0]
	if len(m.Lights) != 1 {
		t.Fatalf("lights = %d, want 1 (ghost animation skipped)", len(m.Lights))
	}
	l := m.Lights[0]
	if l.X != 100 || l.Y != 100 {
		t.Errorf("light at %d,%d, want 100,100", l.X, l.Y)
	}
	if l.RadiusMax != 40 || l.RadiusMin != 20 {
		t.Errorf("radii = %d/%d, want 40/20", l.RadiusMax, l.RadiusMin)
	}
	if l.Color != "#ffffff" {
		t.Errorf("color = %q, want default #ffffff", l.Color)
	}
}

func TestCreateMapJournalMarker(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	sc.Journal = "j1"
	writeImage(t, a.Root, "bg.png", 1000, 800)

	if _, err := a.CreateMap(context.Background(), sc, ""); err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	m := a.Module.Maps[0]
	if len(m.Markers) != 1 {
		t.Fatalf("markers = %d, want 1", len(m.Markers))
	}
	mk := m.Markers[0]
	if mk.X != 100 || mk.Y != 100 {
		t.Errorf("marker at %d,%d, want one grid cell in", mk.X, mk.Y)
	}
	if mk.Hidden != epmod.YesNo(true) {
		t.Errorf("marker not hidden")
	}
	if mk.Content == nil || mk.Content.Ref != "/page/"+a.IDs.ID("j1") {
		t.Errorf("marker ref = %+v", mk.Content)
	}
}

func TestCreateMapPlaceholderBackground(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	sc.Img = "missing/background.png"

	slug, err := a.CreateMap(context.Background(), sc, "")
	if err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	m := a.Module.Maps[0]
	want := slug + "_bg.png"
	if m.Image != want {
		t.Errorf("image = %q, want %q", m.Image, want)
	}
	if !fileutil.Exists(filepath.Join(a.Root, want)) {
		t.Errorf("placeholder background not written")
	}
}

func TestCreateMapComposedBackground(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	sc.Img = ""
	sc.Tiles = []foundry.Tile{{
		Img:    "tile.png",
		X:      300,
		Y:      200,
		Width:  1000,
		Height: 800,
	}}
	writeImage(t, a.Root, "tile.png", 1000, 800)

	slug, err := a.CreateMap(context.Background(), sc, "")
	if err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	m := a.Module.Maps[0]
	want := slug + "_bg.jpg"
	if m.Image != want {
		t.Errorf("image = %q, want %q", m.Image, want)
	}
	if !fileutil.Exists(filepath.Join(a.Root, want)) {
		t.Errorf("composed background not written")
	}
	// The covering tile became the background; no tile element remains.
	if len(m.Tiles) != 0 {
		t.Errorf("tiles = %d, want 0", len(m.Tiles))
	}
}

func TestCreateMapParentGroup(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	sc.Folder = "folder1"
	writeImage(t, a.Root, "bg.png", 1000, 800)

	if _, err := a.CreateMap(context.Background(), sc, "group-override"); err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	if got := a.Module.Maps[0].Parent; got != "group-override" {
		t.Errorf("parent = %q, want group-override", got)
	}

	sc2 := testScene()
	sc2.ID = "scene2"
	sc2.Folder = "folder1"
	if _, err := a.CreateMap(context.Background(), sc2, ""); err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	if got := a.Module.Maps[1].Parent; got != a.IDs.ID("folder1") {
		t.Errorf("parent = %q, want folder id", got)
	}
}

func TestCreateMapSoundPage(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	sc.Sounds = []foundry.AmbientSound{{
		ID:     "snd1",
		Name:   "Dripping Water",
		Path:   "audio/drip.mp3",
		X:      400,
		Y:      300,
		Repeat: true,
	}}
	writeImage(t, a.Root, "bg.png", 1000, 800)

	if _, err := a.CreateMap(context.Background(), sc, ""); err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	m := a.Module.Maps[0]
	if len(m.Markers) != 1 {
		t.Fatalf("markers = %d, want 1", len(m.Markers))
	}
	if m.Markers[0].Label != "\U0001F50A" {
		t.Errorf("marker label = %q, want speaker", m.Markers[0].Label)
	}
	if len(a.Module.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(a.Module.Pages))
	}
	p := a.Module.Pages[0]
	if p.ID != a.IDs.ID("scene1", "snd1") {
		t.Errorf("page id = %q", p.ID)
	}
	if p.Parent != a.IDs.ID("scene1") {
		t.Errorf("page parent = %q", p.Parent)
	}
	if p.Name != "Test Scene Sound: drip" {
		t.Errorf("page name = %q", p.Name)
	}
	if !strings.Contains(p.Content, `<audio controls loop>`) {
		t.Errorf("content missing loop audio element: %q", p.Content)
	}
	if !strings.Contains(p.Content, `src="audio/drip.mp3"`) {
		t.Errorf("content missing source: %q", p.Content)
	}
}

func TestCreateMapPolylineDrawing(t *testing.T) {
	a := testAssembler(t)
	sc := testScene()
	sc.Drawings = []foundry.Drawing{{
		ID:          "d1",
		Type:        "p",
		X:           400,
		Y:           300,
		StrokeWidth: 2,
		StrokeColor: "#ff0000",
		StrokeAlpha: 1,
		Hidden:      true,
		Points:      [][2]float64{{0, 0}, {100, 0}},
	}}
	writeImage(t, a.Root, "bg.png", 1000, 800)

	if _, err := a.CreateMap(context.Background(), sc, ""); err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	m := a.Module.Maps[0]
	if len(m.Drawings) != 1 {
		t.Fatalf("drawings = %d, want 1", len(m.Drawings))
	}
	d := m.Drawings[0]
	if d.Layer != "dm" {
		t.Errorf("layer = %q, want dm for hidden drawing", d.Layer)
	}
	if d.Data != "100,100,200,100" {
		t.Errorf("points = %q, want 100,100,200,100", d.Data)
	}
}
