package converter

import (
	"context"
	"fmt"
	"image/gif"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rrgeorge/FoundryToEncounter/internal/epmod"
	"github.com/rrgeorge/FoundryToEncounter/internal/fileutil"
	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
	"github.com/rrgeorge/FoundryToEncounter/internal/logging"
	"github.com/rrgeorge/FoundryToEncounter/internal/media"
)

var (
	// sizeTagRe reads a token footprint out of an asset filename: a reach
	// in feet, explicit WxH cells with an optional display scale, or a
	// creature size word.
	sizeTagRe = regexp.MustCompile(`(([0-9]+) ?ft|([0-9]+)[xX]([0-9]+)(?:x([0-9.]+))?|(tiny|small|medium|large|huge)(x[0-9.]+)?)`)
	// creatureTagRe strips the size word out of a tagged filename.
	creatureTagRe = regexp.MustCompile(`(?i)(.*)_(?:tiny|small|medium|large|huge)(?:plus)?_.*`)
	// serialTagRe drops a trailing serial number from an untagged filename.
	serialTagRe = regexp.MustCompile(`(?i)(?:VAM)?((.*?)(?:[0-9]+)|(.*))`)
)

var groupTitler = cases.Title(language.Und)

// packAssets walks the requested asset directory, emitting one group per
// subdirectory and one asset per usable image, staged flat into staging.
func (c *converter) packAssets(ctx context.Context, staging string) error {
	rel := strings.TrimPrefix(c.src.PackDir, c.src.Manifest.Name+"/")
	packRoot := filepath.Join(c.src.ContentRoot, filepath.FromSlash(rel))
	count := 0
	err := filepath.WalkDir(packRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		count++
		c.progress(StageAssets, count, 0)

		dirRel, err := filepath.Rel(packRoot, filepath.Dir(p))
		if err != nil {
			return err
		}
		groupID := c.assetGroup(filepath.ToSlash(dirRel))

		mime := assetMIME(p)
		if !strings.HasPrefix(mime, "image/") && mime != "video/webm" {
			c.log.Debug("skipping non-image asset", logging.String("file", d.Name()))
			return nil
		}
		if err := c.addAsset(ctx, staging, p, groupID, mime); err != nil {
			c.log.Warn("asset failed", logging.String("file", d.Name()), logging.Error(err))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk pack dir %s: %w", packRoot, err)
	}
	return nil
}

// assetGroup ensures a group chain exists for the directory path and returns
// the leaf group's id; files at the pack root stay ungrouped.
func (c *converter) assetGroup(dirRel string) string {
	if dirRel == "." || dirRel == "" {
		return ""
	}
	parts := strings.Split(dirRel, "/")
	parent := ""
	id := ""
	for i, part := range parts {
		if part == "" {
			continue
		}
		if id != "" {
			parent = id
		}
		id = c.ids.ID(ident.Slugify(strings.Join(parts[:i+1], "/")))
		if c.module.HasGroup(id) {
			continue
		}
		c.groupSort++
		c.module.Groups = append(c.module.Groups, &epmod.Group{
			ID:     id,
			Parent: parent,
			Sort:   c.groupSort,
			Name:   groupTitler.String(part),
			Slug:   ident.Slugify(part),
		})
	}
	return id
}

// addAsset converts one file into an asset element and stages its resource.
func (c *converter) addAsset(ctx context.Context, staging, p, groupID, mime string) error {
	relID, err := filepath.Rel(c.root, p)
	if err != nil {
		return err
	}
	name := stem(p)
	asset := &epmod.Asset{
		ID:     c.ids.ID(filepath.ToSlash(relID)),
		Parent: groupID,
		Name:   name,
		Tags:   assetTags(name),
	}
	c.module.Assets = append(c.module.Assets, asset)

	if mime == "video/webm" {
		return c.addAnimatedAsset(ctx, staging, p, asset)
	}

	animated, err := isAnimated(p, mime)
	if err != nil {
		return err
	}
	if animated {
		asset.Type = "animatedImage"
	} else {
		asset.Type = "image"
	}
	pix, err := media.OpenImage(p)
	if err != nil {
		return err
	}
	b := pix.Bounds()
	scale, size := assetSize(name, b.Dx(), b.Dy())
	asset.Scale, asset.Size = scale, size

	ext := strings.ToLower(filepath.Ext(p))
	oversized := b.Dx() > media.MaxTileDim || b.Dy() > media.MaxTileDim
	if ext == ".webp" && !strings.EqualFold(c.opts.ImageExt, ".webp") {
		if oversized {
			pix = media.FitLimit(pix, media.MaxTileDim)
		}
		dst := fileutil.SwapExt(p, ".png")
		if err := media.SaveImage(pix, dst); err != nil {
			return err
		}
		os.Remove(p)
		p = dst
	} else if oversized {
		pix = media.FitLimit(pix, media.MaxTileDim)
		if err := media.SaveImage(pix, p); err != nil {
			return err
		}
	}

	staged, err := stageAsset(staging, p)
	if err != nil {
		return err
	}
	asset.Resource = staged
	if c.module.Image == "" && strings.Contains(strings.ToLower(name), "preview") {
		c.module.Image = staged
	}
	return nil
}

// addAnimatedAsset converts a webm into an animated webp asset.
func (c *converter) addAnimatedAsset(ctx context.Context, staging, p string, asset *epmod.Asset) error {
	if !c.tools.HaveVideo() {
		return fmt.Errorf("webm asset %s: ffmpeg not available", filepath.Base(p))
	}
	probe, err := media.Probe(ctx, c.tools.FFprobe, p)
	if err != nil {
		return err
	}
	converted, err := c.tools.WebmToAnimatedWebP(ctx, p, probe.CodecName, probe.Frames, func(pct int) {
		c.progress(StageAssets, pct, 100)
	})
	if err != nil {
		return err
	}
	asset.Type = "animatedImage"
	staged, err := stageAsset(staging, converted)
	if err != nil {
		return err
	}
	pix, err := media.OpenImage(filepath.Join(staging, staged))
	if err == nil {
		b := pix.Bounds()
		asset.Scale, asset.Size = assetSize(stem(staged), b.Dx(), b.Dy())
	}
	asset.Resource = staged
	return nil
}

// stageAsset copies the file into the flat staging directory under a
// lowercased name, appending a counter when the name is already taken.
func stageAsset(staging, p string) (string, error) {
	base := strings.ToLower(filepath.Base(p))
	if fileutil.Exists(filepath.Join(staging, base)) {
		ext := filepath.Ext(base)
		prefix := strings.TrimSuffix(base, ext)
		for n := 1; ; n++ {
			candidate := prefix + strconv.Itoa(n) + ext
			if !fileutil.Exists(filepath.Join(staging, candidate)) {
				base = candidate
				break
			}
		}
	}
	if err := fileutil.CopyFile(p, filepath.Join(staging, base)); err != nil {
		return "", err
	}
	return base, nil
}

// assetTags derives search tags from the filename: the creature name ahead
// of a size word, or the name with any trailing serial number dropped.
func assetTags(name string) string {
	if m := creatureTagRe.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(strings.ReplaceAll(m[1], "_", " "))
	}
	m := serialTagRe.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	tag := m[3]
	if tag == "" {
		tag = m[2]
	}
	return strings.TrimSpace(strings.ReplaceAll(tag, "_", " "))
}

// assetSize reads the token footprint from the filename. Filenames that
// encode their pixel dimensions as the footprint are treated as 100px/cell.
func assetSize(name string, imgW, imgH int) (scale, size string) {
	m := sizeTagRe.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return "", ""
	}
	w, h := 1, 1
	switch {
	case m[2] != "":
		if ft, err := strconv.Atoi(m[2]); err == nil && ft/5 > 1 {
			w = ft / 5
		}
	case m[3] != "" && m[4] != "":
		w, _ = strconv.Atoi(m[3])
		h, _ = strconv.Atoi(m[4])
		scale = m[5]
	case m[6] != "":
		switch m[6] {
		case "large":
			w, h = 2, 2
		case "huge":
			w, h = 3, 3
		}
		scale = strings.TrimPrefix(m[7], "x")
	}
	if imgW == w && imgH == h {
		w = max(w/100, 1)
		h = max(h/100, 1)
	}
	return scale, fmt.Sprintf("%dx%d", w, h)
}

// isAnimated reports whether a still-image container actually animates;
// only GIF exposes its frame count to the decoder.
func isAnimated(p, mime string) (bool, error) {
	if mime != "image/gif" {
		return false, nil
	}
	f, err := os.Open(p)
	if err != nil {
		return false, err
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		return false, nil
	}
	return len(g.Image) > 1, nil
}

// assetMIME resolves a file's media type by extension, falling back to
// content sniffing.
func assetMIME(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	case ".webm":
		return "video/webm"
	}
	f, err := os.Open(p)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	return http.DetectContentType(buf[:n])
}
