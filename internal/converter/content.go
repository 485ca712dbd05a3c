package converter

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rrgeorge/FoundryToEncounter/internal/epmod"
	"github.com/rrgeorge/FoundryToEncounter/internal/fileutil"
	"github.com/rrgeorge/FoundryToEncounter/internal/foundry"
	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
	"github.com/rrgeorge/FoundryToEncounter/internal/logging"
	"github.com/rrgeorge/FoundryToEncounter/internal/media"
	"github.com/rrgeorge/FoundryToEncounter/internal/richtext"
)

// assignSort gives every unsorted folder, journal entry and scene a stable
// name-ordered position and records the highest sort seen.
func (c *converter) assignSort() {
	assign := func(n int, name func(i int) string, get func(i int) int, set func(i, v int)) {
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return name(order[a]) < name(order[b]) })
		seq := 1
		for _, i := range order {
			if get(i) == 0 {
				set(i, seq)
			}
			if get(i) > c.maxOrder {
				c.maxOrder = get(i)
			}
			seq++
		}
	}
	f := c.src.Folders
	assign(len(f),
		func(i int) string { return f[i].Name },
		func(i int) int { return f[i].Sort.Int() },
		func(i, v int) { f[i].Sort = foundry.Num(v) })
	j := c.src.Journal
	assign(len(j),
		func(i int) string { return j[i].Name },
		func(i int) int { return j[i].Sort.Int() },
		func(i, v int) { j[i].Sort = foundry.Num(v) })
	// Journal ordering additionally honors the Roll20 converter's
	// handout-order hint.
	for i := range j {
		j[i].Sort = foundry.Num(j[i].Sort.Int() + j[i].HandoutOrder())
		if j[i].Sort.Int() > c.maxOrder {
			c.maxOrder = j[i].Sort.Int()
		}
	}
	s := c.src.Scenes
	assign(len(s),
		func(i int) string { return s[i].Name },
		func(i int) int { return s[i].Sort.Int() },
		func(i, v int) { s[i].Sort = foundry.Num(v) })
	if c.maxOrder == 0 {
		c.maxOrder = len(f) + len(j)
	}
}

// addFolders emits navigation groups for the folder types the output can
// hold content under.
func (c *converter) addFolders() {
	for i, f := range c.src.Folders {
		c.progress(StageFolders, i+1, len(c.src.Folders))
		switch f.Type {
		case "JournalEntry", "RollTable", "Scene":
		default:
			continue
		}
		g := &epmod.Group{
			ID:   c.ids.ID(f.ID),
			Sort: f.Sort.Int(),
			Name: f.Name,
		}
		if f.Parent != "" {
			g.Parent = c.ids.ID(f.Parent)
		}
		c.module.Groups = append(c.module.Groups, g)
	}
}

// addJournal converts journal entries to pages. Entries with neither text
// nor an image are dropped.
func (c *converter) addJournal() {
	for i, j := range c.src.Journal {
		c.progress(StageJournal, i+1, len(c.src.Journal))
		if j.Content == "" && j.Img == "" {
			continue
		}
		sortv := j.Sort.Int()
		if sortv == 0 {
			sortv = i + 1
		}
		content := c.text.Rewrite(j.Content)
		if j.Img != "" {
			content += fmt.Sprintf(`<img src="%s">`, j.Img)
		}
		page := &epmod.Page{
			ID:      c.ids.ID(j.ID),
			Sort:    sortv,
			Name:    j.Name,
			Slug:    ident.Slugify(j.Name),
			Content: content,
		}
		if j.Folder != "" {
			page.Parent = c.ids.ID(j.Folder)
		}
		c.module.Pages = append(c.module.Pages, page)
	}
}

// addPlaylists groups playlists under a generated folder, one page per
// playlist with an audio table. Tracks in containers the output cannot play
// are converted to AAC first.
func (c *converter) addPlaylists(ctx context.Context) {
	if len(c.src.Playlists) == 0 {
		return
	}
	groupID := c.addGeneratedGroup("Playlists", "playlists", c.maxOrder+1)
	for i, p := range c.src.Playlists {
		c.progress(StagePlaylists, i+1, len(c.src.Playlists))
		sortv := p.Sort.Int()
		if sortv == 0 {
			sortv = i + 1
		}
		var content strings.Builder
		fmt.Fprintf(&content, "<h1>%s</h1>", p.Name)
		content.WriteString("<table><thead><tr><td>Track</td></tr></thead><tbody>")
		for _, s := range p.Sounds {
			content.WriteString("<tr><td><figure>")
			fmt.Fprintf(&content, "<figcaption>%s</figcaption>", s.Name)
			content.WriteString(c.audioElement(ctx, s.Path, s.Repeat.Bool()))
			content.WriteString("</figure></td></tr>")
		}
		content.WriteString("</tbody></table>")
		c.module.Pages = append(c.module.Pages, &epmod.Page{
			ID:      c.ids.ID(p.ID),
			Parent:  groupID,
			Sort:    sortv,
			Name:    p.Name,
			Slug:    ident.Slugify(p.Name),
			Content: content.String(),
		})
	}
}

// audioElement renders one playable track, converting the file when its
// container is unsupported. Missing files keep their source reference so the
// listener sees what the module meant to play.
func (c *converter) audioElement(ctx context.Context, soundPath string, repeat bool) string {
	soundPath = media.Unquote(soundPath)
	abs := filepath.Join(c.root, filepath.FromSlash(soundPath))
	if !fileutil.Exists(abs) && fileutil.Exists(fileutil.SwapExt(abs, ".mp4")) {
		soundPath = fileutil.SwapExt(soundPath, ".mp4")
		abs = fileutil.SwapExt(abs, ".mp4")
	}
	loop := ""
	if repeat {
		loop = " loop"
	}
	if !fileutil.Exists(abs) {
		return fmt.Sprintf(`<audio controls%s><source src="%s"></audio>`, loop, soundPath)
	}
	mime := media.AudioMIME(abs)
	if !media.SupportedAudio(mime) {
		if converted, err := c.tools.AudioToMP4(ctx, abs); err != nil {
			c.log.Warn("convert playlist track failed",
				logging.String("track", soundPath), logging.Error(err))
		} else {
			os.Remove(abs)
			soundPath = fileutil.SwapExt(soundPath, ".mp4")
			mime = media.AudioMIME(converted)
		}
	}
	return fmt.Sprintf(`<audio controls%s><source src="%s" type="%s"></audio>`, loop, soundPath, mime)
}

// addTables groups roll tables under a generated folder, one page per table
// with a result table whose header rolls the formula.
func (c *converter) addTables() {
	if len(c.src.Tables) == 0 {
		return
	}
	groupID := c.addGeneratedGroup("Roll Tables", "tables", c.maxOrder+1)
	for i, t := range c.src.Tables {
		c.progress(StageTables, i+1, len(c.src.Tables))
		sortv := t.Sort.Int()
		if sortv == 0 {
			sortv = i + 1
		}
		parent := groupID
		if t.Folder != "" {
			parent = c.ids.ID(t.Folder)
		}
		var content strings.Builder
		fmt.Fprintf(&content, "<h1>%s</h1>", t.Name)
		fmt.Fprintf(&content, `<table><thead><tr><td><a href="/roll/%s/%s">%s</a></td>`,
			t.Formula, t.Name, t.Formula)
		fmt.Fprintf(&content, `<td colspan="2" align="center">%s</td></tr></thead><tbody>`, t.Name)
		for _, r := range t.Results {
			content.WriteString("<tr>")
			if r.Range[0] != r.Range[1] {
				fmt.Fprintf(&content, "<td>%d-%d</td>", r.Range[0].Int(), r.Range[1].Int())
			} else {
				fmt.Fprintf(&content, "<td>%d</td>", r.Range[0].Int())
			}
			content.WriteString("<td>" + c.tableResult(r) + "</td>")
			img := media.Unquote(r.Img)
			if img != "" && fileutil.Exists(filepath.Join(c.root, filepath.FromSlash(img))) {
				fmt.Fprintf(&content, `<td style="width:50px;height:50px;"><img src="%s"></td>`, r.Img)
			} else {
				content.WriteString(`<td style="width:50px;height:50px;">&nbsp;</td>`)
			}
			content.WriteString("</tr>")
		}
		content.WriteString("</tbody></table>")
		c.module.Pages = append(c.module.Pages, &epmod.Page{
			ID:      c.ids.ID(t.ID),
			Parent:  parent,
			Sort:    sortv,
			Name:    t.Name,
			Slug:    ident.Slugify(t.Name),
			Content: richtext.RewriteRolls(content.String()),
		})
	}
}

// tableResult renders one result cell, linking monster and item results when
// the referenced record is known.
func (c *converter) tableResult(r foundry.TableResult) string {
	switch r.Collection {
	case "dnd5e.monsters":
		return fmt.Sprintf(`<a href="/monster/%s">%s</a>`, ident.Slugify(r.Text), r.Text)
	case "Actor":
		for _, a := range c.src.Actors {
			if a.ID == r.ResultID {
				return fmt.Sprintf(`<a href="/monster/%s">%s</a>`, ident.Slugify(a.Name), r.Text)
			}
		}
	case "Item":
		for _, i := range c.src.Items {
			if i.ID == r.ResultID {
				return fmt.Sprintf(`<a href="/item/%s">%s</a>`, ident.Slugify(i.Name), r.Text)
			}
		}
	}
	if r.Text == "" {
		return "&nbsp;"
	}
	return r.Text
}

// addMaps converts every scene carrying artwork. A generated Maps group
// holds them when other content exists and no scene has its own folder.
func (c *converter) addMaps(ctx context.Context) error {
	if len(c.src.Scenes) == 0 {
		return nil
	}
	hasOther := len(c.src.Journal) > 0 || len(c.src.Folders) > 0 ||
		len(c.src.Tables) > 0 || len(c.src.Playlists) > 0
	hasFolders := false
	for _, s := range c.src.Scenes {
		if s.Folder != "" {
			hasFolders = true
			break
		}
	}
	mapGroup := ""
	if hasOther && !hasFolders {
		mapGroup = c.addGeneratedGroup("Maps", "maps", c.maxOrder+2)
	}

	asm := c.newAssembler()
	done := 0
	for i := range c.src.Scenes {
		sc := &c.src.Scenes[i]
		if c.module.Image == "" && contains(c.opts.CoverNames, strings.ToLower(sc.Name)) {
			if err := c.coverFromScene(sc); err != nil {
				c.log.Warn("cover from scene failed",
					logging.String("map", sc.Name), logging.Error(err))
			}
		}
		if sc.Img == "" && len(sc.Tiles) == 0 {
			continue
		}
		done++
		c.progress(StageMaps, done, len(c.src.Scenes))
		if _, err := asm.CreateMap(ctx, sc, mapGroup); err != nil {
			return fmt.Errorf("convert map %s: %w", sc.Name, err)
		}
	}
	return nil
}

// addGeneratedGroup emits one synthetic top-level group, slug-disambiguated
// against the run's other slugs.
func (c *converter) addGeneratedGroup(name, baseSlug string, sortv int) string {
	slug := c.ids.UniqueSlug(baseSlug)
	id := c.ids.ID(slug)
	c.module.Groups = append(c.module.Groups, &epmod.Group{
		ID:   id,
		Sort: sortv,
		Name: name,
		Slug: slug,
	})
	return id
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// sceneImage returns the scene's background or, failing that, its first
// tile's image.
func sceneImage(sc *foundry.Scene) string {
	if sc.Img != "" {
		return sc.Img
	}
	if len(sc.Tiles) > 0 {
		return sc.Tiles[0].Img
	}
	return ""
}

func stem(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}
