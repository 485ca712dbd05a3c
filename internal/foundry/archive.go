package foundry

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rrgeorge/FoundryToEncounter/internal/ident"
	"github.com/rrgeorge/FoundryToEncounter/internal/logging"
)

// ErrNoFoundryData is returned when the archive holds neither a world.json
// nor a module.json and no pack directory was requested.
var ErrNoFoundryData = errors.New("no foundry data found in archive")

// ReadOptions adjust archive loading.
type ReadOptions struct {
	// System restricts module compendium packs to the named game system.
	// Packs that declare no system always load.
	System string
	// PackDir permits archives without a manifest; a synthetic one is
	// derived from the archive filename.
	PackDir string
	Logger  *slog.Logger
}

// Source is a fully loaded input archive: the manifest, every database the
// archive carried, and the path the media tree was extracted under.
type Source struct {
	Manifest *Manifest
	IsWorld  bool
	// PackDir is the requested pack directory, possibly overridden by the
	// manifest's EncounterPackDir field.
	PackDir string

	Folders   []Folder
	Journal   []JournalEntry
	Scenes    []Scene
	Actors    []Actor
	Items     []Item
	Tables    []RollTable
	Playlists []Playlist

	// ContentRoot is the directory the archive's own tree lives under,
	// <workdir>/worlds/<name> or <workdir>/modules/<name>. Media paths in
	// the loaded records resolve relative to the workspace root.
	ContentRoot string
}

// ReadArchive loads the Foundry zip at srcPath and extracts its media tree
// into workDir. Soft-deleted records are dropped during decoding.
func ReadArchive(srcPath, workDir string, opts ReadOptions) (*Source, error) {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	src := &Source{PackDir: opts.PackDir}
	dirPath := ""
	for _, f := range zr.File {
		base := path.Base(f.Name)
		parent := path.Base(path.Dir(f.Name))
		switch {
		case base == "world.json":
			dirPath = path.Dir(f.Name)
			if dirPath == "." {
				dirPath = ""
			}
			src.Manifest = &Manifest{}
			if err := decodeEntry(f, src.Manifest); err != nil {
				return nil, fmt.Errorf("world.json: %w", err)
			}
			src.IsWorld = true
		case base == "module.json" && src.Manifest == nil:
			dirPath = path.Dir(f.Name)
			if dirPath == "." {
				dirPath = ""
			}
			src.Manifest = &Manifest{}
			if err := decodeEntry(f, src.Manifest); err != nil {
				return nil, fmt.Errorf("module.json: %w", err)
			}
		case parent == "data" && base == "folders.db":
			err = readDB(f, func(raw []byte) error {
				var rec Folder
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					src.Folders = append(src.Folders, rec)
				}
				return nil
			})
		case parent == "data" && base == "journal.db":
			err = readDB(f, func(raw []byte) error {
				var rec JournalEntry
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					src.Journal = append(src.Journal, rec)
				}
				return nil
			})
		case parent == "data" && base == "scenes.db":
			err = readDB(f, func(raw []byte) error {
				var rec Scene
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					src.Scenes = append(src.Scenes, rec)
				}
				return nil
			})
		case parent == "data" && base == "actors.db":
			err = readDB(f, func(raw []byte) error {
				var rec Actor
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					src.Actors = append(src.Actors, rec)
				}
				return nil
			})
		case parent == "data" && base == "items.db":
			err = readDB(f, func(raw []byte) error {
				var rec Item
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					src.Items = append(src.Items, rec)
				}
				return nil
			})
		case parent == "data" && base == "tables.db":
			err = readDB(f, func(raw []byte) error {
				var rec RollTable
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					src.Tables = append(src.Tables, rec)
				}
				return nil
			})
		case parent == "data" && base == "playlists.db":
			err = readDB(f, func(raw []byte) error {
				var rec Playlist
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					src.Playlists = append(src.Playlists, rec)
				}
				return nil
			})
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
	}

	if !src.IsWorld && src.Manifest != nil {
		if src.Manifest.EncounterPackDir != "" {
			src.PackDir = src.Manifest.EncounterPackDir
		}
		if err := src.loadPacks(&zr.Reader, dirPath, opts.System, log); err != nil {
			return nil, err
		}
	}
	if src.Manifest == nil {
		if src.PackDir == "" {
			return nil, ErrNoFoundryData
		}
		stem := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
		src.Manifest = &Manifest{
			Title:   cases.Title(language.Und).String(stem),
			Name:    ident.Slugify(stem),
			Version: "1",
		}
	}

	root, err := extractArchive(&zr.Reader, workDir, src.Manifest.Name, dirPath, src.IsWorld)
	if err != nil {
		return nil, err
	}
	src.ContentRoot = root
	log.Info("loaded archive",
		logging.String("title", src.Manifest.Title),
		logging.Bool("world", src.IsWorld),
		logging.Int("scenes", len(src.Scenes)),
		logging.Int("journal", len(src.Journal)))
	return src, nil
}

// loadPacks reads the module's declared compendium packs into the same
// collections the world databases fill. Pack paths in module manifests are
// inconsistently rooted; the adjustments mirror what shipping modules need.
func (s *Source) loadPacks(zr *zip.Reader, dirPath, system string, log *slog.Logger) error {
	hasPrefix := func(prefix string) bool {
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, prefix) {
				return true
			}
		}
		return false
	}
	for _, pack := range s.Manifest.Packs {
		if system != "" && pack.System != "" && pack.System != system {
			log.Info("skipping pack for other system",
				logging.String("pack", pack.Name),
				logging.String("system", pack.System))
			continue
		}
		p := strings.TrimPrefix(pack.Path, "/")
		p = strings.TrimPrefix(p, "./")
		if hasPrefix(s.Manifest.Name + "/") {
			p = s.Manifest.Name + "/" + p
		}
		if dirPath != "" && !strings.HasPrefix(p, dirPath+"/") && hasPrefix(dirPath+"/") {
			p = dirPath + "/" + p
		}
		f, err := zr.Open(p)
		if err != nil {
			log.Warn("could not open pack",
				logging.String("path", p),
				logging.Error(err))
			continue
		}
		err = scanLines(f, func(raw []byte) error {
			switch pack.Entity {
			case "JournalEntry":
				var rec JournalEntry
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					s.Journal = append(s.Journal, rec)
				}
			case "Scene":
				var rec Scene
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					s.Scenes = append(s.Scenes, rec)
				}
			case "Actor":
				var rec Actor
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					s.Actors = append(s.Actors, rec)
				}
			case "Item":
				var rec Item
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					s.Items = append(s.Items, rec)
				}
			case "Playlist":
				var rec Playlist
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				if !rec.Deleted {
					s.Playlists = append(s.Playlists, rec)
				}
			}
			return nil
		})
		f.Close()
		if err != nil {
			log.Warn("could not read pack",
				logging.String("path", p),
				logging.Error(err))
		}
	}
	return nil
}

func decodeEntry(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return json.NewDecoder(rc).Decode(v)
}

func readDB(f *zip.File, fn func(raw []byte) error) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return scanLines(rc, fn)
}

// scanLines feeds each non-empty line of a line-delimited JSON database to fn.
func scanLines(r io.Reader, fn func(raw []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

// extractArchive unpacks the zip under <workDir>/worlds or <workDir>/modules
// so that every media path inside the loaded records resolves relative to
// workDir. Archives that do not already root their tree at the package name
// are renamed or nested so they do.
func extractArchive(zr *zip.Reader, workDir, name, dirPath string, isWorld bool) (string, error) {
	kind := "modules"
	if isWorld {
		kind = "worlds"
	}
	base := filepath.Join(workDir, kind)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("create extraction dir: %w", err)
	}
	rooted := false
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, name+"/") {
			rooted = true
			break
		}
	}
	target := base
	switch {
	case rooted:
	case dirPath != "":
		if err := extractAll(zr, base); err != nil {
			return "", err
		}
		if err := os.Rename(filepath.Join(base, filepath.FromSlash(dirPath)), filepath.Join(base, name)); err != nil {
			return "", fmt.Errorf("rename extracted tree: %w", err)
		}
		return filepath.Join(base, name), nil
	default:
		target = filepath.Join(base, name)
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", fmt.Errorf("create extraction dir: %w", err)
		}
	}
	if err := extractAll(zr, target); err != nil {
		return "", err
	}
	return filepath.Join(base, name), nil
}

func extractAll(zr *zip.Reader, dest string) error {
	for _, f := range zr.File {
		out, err := sanitizePath(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		w, err := os.Create(out)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

// sanitizePath rejects entries that would escape the extraction root.
func sanitizePath(dest, name string) (string, error) {
	out := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(out, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes extraction dir: %s", name)
	}
	return out, nil
}
