package media

import (
	"os/exec"
	"path/filepath"
	"runtime"
)

// Tools holds the resolved paths of the external binaries. Empty fields mean
// the binary was not found; conversions needing it are skipped.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// Discover locates ffmpeg and ffprobe. Explicit paths win over PATH lookup;
// on macOS the usual homebrew prefixes are tried when PATH has neither.
func Discover(ffmpegPath, ffprobePath string) Tools {
	t := Tools{
		FFmpeg:  resolve(ffmpegPath, "ffmpeg"),
		FFprobe: resolve(ffprobePath, "ffprobe"),
	}
	if runtime.GOOS == "darwin" && t.FFmpeg == "" && t.FFprobe == "" {
		for _, prefix := range []string{"/usr/local/bin", "/opt/homebrew/bin"} {
			if t.FFmpeg == "" {
				t.FFmpeg = statBinary(filepath.Join(prefix, "ffmpeg"))
			}
			if t.FFprobe == "" {
				t.FFprobe = statBinary(filepath.Join(prefix, "ffprobe"))
			}
		}
	}
	return t
}

// HaveVideo reports whether video conversion is possible.
func (t Tools) HaveVideo() bool { return t.FFmpeg != "" && t.FFprobe != "" }

func resolve(explicit, name string) string {
	if explicit != "" {
		return statBinary(explicit)
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func statBinary(path string) string {
	if _, err := exec.LookPath(path); err != nil {
		return ""
	}
	return path
}
