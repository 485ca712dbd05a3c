package foundry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FetchProgress reports bytes downloaded so far; total is -1 when the server
// does not send a length.
type FetchProgress func(done, total int64)

// IsURL reports whether the source argument is a remote manifest rather than
// a local file.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// FetchManifest downloads a Foundry manifest URL, follows its download field
// and stores the module zip under workDir. It returns the local zip path.
func FetchManifest(ctx context.Context, manifestURL, workDir string, progress FetchProgress) (string, error) {
	client := &http.Client{Timeout: 30 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch manifest: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch manifest: %s returned %s", manifestURL, resp.Status)
	}
	var manifest struct {
		Download string `json:"download"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return "", fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Download == "" {
		return "", fmt.Errorf("manifest %s has no download link", manifestURL)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, manifest.Download, nil)
	if err != nil {
		return "", fmt.Errorf("download module: %w", err)
	}
	resp2, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download module: %w", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download module: %s returned %s", manifest.Download, resp2.Status)
	}

	dest := filepath.Join(workDir, "module.zip")
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("download module: %w", err)
	}
	var reader io.Reader = resp2.Body
	if progress != nil {
		reader = &progressReader{r: resp2.Body, total: resp2.ContentLength, report: progress}
	}
	_, err = io.Copy(out, reader)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("download module: %w", err)
	}
	return dest, nil
}

type progressReader struct {
	r      io.Reader
	done   int64
	total  int64
	report FetchProgress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.done += int64(n)
	p.report(p.done, p.total)
	return n, err
}
