package converter

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rrgeorge/FoundryToEncounter/internal/fileutil"
	"github.com/rrgeorge/FoundryToEncounter/internal/foundry"
	"github.com/rrgeorge/FoundryToEncounter/internal/logging"
	"github.com/rrgeorge/FoundryToEncounter/internal/media"
)

// addCover stages the manifest's declared cover image into destDir, fetching
// remote covers and copying local ones out of the module tree.
func (c *converter) addCover(ctx context.Context, destDir string) error {
	for _, m := range c.src.Manifest.Media {
		if m.Type != "cover" || m.Href() == "" {
			continue
		}
		name := strings.ToLower(path.Base(m.Href()))
		dest := filepath.Join(destDir, name)
		if u, err := url.Parse(m.Href()); err == nil && u.Scheme != "" {
			if err := c.downloadCover(ctx, m.Href(), dest); err != nil {
				return err
			}
		} else {
			src := filepath.Join(c.src.ContentRoot, path.Base(m.Href()))
			if err := fileutil.CopyFile(src, dest); err != nil {
				return fmt.Errorf("copy cover: %w", err)
			}
		}
		c.module.Image = name
	}
	return nil
}

func (c *converter) downloadCover(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download cover: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download cover: %s returned %s", rawURL, resp.Status)
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// coverFromScene derives the module cover from a scene's artwork: the
// top-left square, bounded to the cover size.
func (c *converter) coverFromScene(sc *foundry.Scene) error {
	img := media.Unquote(sceneImage(sc))
	if img == "" {
		return fmt.Errorf("scene %s has no artwork", sc.Name)
	}
	// Map conversion may already have re-encoded the background.
	abs := filepath.Join(c.root, filepath.FromSlash(img))
	for _, alt := range []string{abs, fileutil.SwapExt(abs, c.opts.ImageExt), fileutil.SwapExt(abs, ".jpg")} {
		if fileutil.Exists(alt) {
			abs = alt
			break
		}
	}
	pix, err := media.OpenImage(abs)
	if err != nil {
		return err
	}
	name := "module_cover" + c.coverExt()
	if err := media.SaveImage(media.CoverCrop(pix), filepath.Join(c.root, name)); err != nil {
		return err
	}
	c.module.Image = name
	return nil
}

// coverExt is the cover encoding: the configured target, except that webp
// output is not encodable and falls back to jpg.
func (c *converter) coverExt() string {
	if strings.EqualFold(c.opts.ImageExt, ".webp") {
		return ".jpg"
	}
	return c.opts.ImageExt
}

// fallbackCover picks a random scene's artwork as the cover when nothing
// else provided one.
func (c *converter) fallbackCover() {
	if c.module.Image != "" || len(c.src.Scenes) == 0 {
		return
	}
	for tries := len(c.src.Scenes) * 5; tries > 0; tries-- {
		sc := &c.src.Scenes[rand.Intn(len(c.src.Scenes))]
		if sceneImage(sc) == "" {
			continue
		}
		if err := c.coverFromScene(sc); err != nil {
			c.log.Warn("fallback cover failed", logging.String("map", sc.Name), logging.Error(err))
			continue
		}
		return
	}
}
