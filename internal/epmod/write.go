package epmod

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/rrgeorge/FoundryToEncounter/internal/logging"
)

// ManifestName returns the manifest filename for the document kind.
func (m *Module) ManifestName() string {
	if m.IsPack() {
		return "pack.xml"
	}
	return "module.xml"
}

// WriteManifest serializes the document as indented XML with a declaration.
func (m *Module) WriteManifest(path string) error {
	return writeXML(path, m)
}

// WriteCompendium serializes a compendium tree next to the manifest.
func WriteCompendium(path string, c *Compendium) error {
	return writeXML(path, c)
}

func writeXML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if _, err := io.WriteString(f, xml.Header); err != nil {
		f.Close()
		return err
	}
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DefaultArchiveName derives the output filename from the module code.
func (m *Module) DefaultArchiveName() string {
	if m.IsPack() {
		return m.Code + ".pack"
	}
	return m.Code + ".module"
}

// Package zips the staging directory into the output archive. An exclusive
// file lock guards the output so concurrent runs aimed at the same path
// cannot interleave writes. When flatten is set (pack mode) entries lose
// their directory prefix.
func Package(stagingDir, outPath string, flatten bool, log *slog.Logger) error {
	if log == nil {
		log = logging.NewNop()
	}
	lock := flock.New(outPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock output: %w", err)
	}
	if !locked {
		return fmt.Errorf("output %s is in use by another run", outPath)
	}
	defer func() {
		lock.Unlock()
		os.Remove(lock.Path())
	}()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(out)
	err = filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if flatten {
			name = d.Name()
		}
		log.Debug("adding archive entry", logging.String("entry", name))
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, in)
		in.Close()
		return err
	})
	if err != nil {
		zw.Close()
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("package %s: %w", outPath, err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
