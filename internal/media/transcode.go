package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rrgeorge/FoundryToEncounter/internal/fileutil"
)

// evenPad makes both dimensions even, which libx264 requires.
const evenPad = "pad='width=ceil(iw/2)*2:height=ceil(ih/2)*2'"

// Progress receives transcode completion as a 0-100 percentage.
type Progress func(pct int)

// VideoToMP4 re-encodes a webm (or other) video background to H.264/AAC so
// the output format's player can run it. The destination swaps the source
// extension for .mp4.
func (t Tools) VideoToMP4(ctx context.Context, src string, totalFrames int, progress Progress) (string, error) {
	if t.FFmpeg == "" {
		return "", errors.New("ffmpeg: no binary")
	}
	dst := fileutil.SwapExt(src, ".mp4")
	args := []string{
		"-v", "error",
		"-i", src,
		"-vf", evenPad,
		"-vcodec", "libx264",
		"-acodec", "aac",
		"-progress", "pipe:1",
		"-y", dst,
	}
	if err := t.runWithProgress(ctx, args, totalFrames, progress); err != nil {
		return "", fmt.Errorf("convert %s to mp4: %w", src, err)
	}
	return dst, nil
}

// ExtractStill grabs the first frame of a video as the static map image.
func (t Tools) ExtractStill(ctx context.Context, src string) (string, error) {
	if t.FFmpeg == "" {
		return "", errors.New("ffmpeg: no binary")
	}
	dst := fileutil.SwapExt(src, ".jpg")
	cmd := exec.CommandContext(ctx, t.FFmpeg,
		"-v", "error",
		"-i", src,
		"-vf", evenPad,
		"-vframes", "1",
		"-y", dst)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("extract still from %s: %w: %s", src, err, strings.TrimSpace(string(output)))
	}
	return dst, nil
}

// WebmToAnimatedWebP converts an animated webm tile to an animated webp.
// The decoder must match the source codec: ffmpeg's native vp8 path loses
// the alpha channel that tiles rely on.
func (t Tools) WebmToAnimatedWebP(ctx context.Context, src, codec string, totalFrames int, progress Progress) (string, error) {
	if t.FFmpeg == "" {
		return "", errors.New("ffmpeg: no binary")
	}
	decoder := "libvpx"
	if codec == "vp9" {
		decoder = "libvpx-vp9"
	}
	dst := src + ".webp"
	args := []string{
		"-v", "error",
		"-vcodec", decoder,
		"-progress", "pipe:1",
		"-i", src,
		"-loop", "0",
		"-y", dst,
	}
	if err := t.runWithProgress(ctx, args, totalFrames, progress); err != nil {
		return "", fmt.Errorf("convert %s to webp: %w", src, err)
	}
	return dst, nil
}

// AudioToMP4 re-encodes an unsupported audio container to AAC in mp4.
func (t Tools) AudioToMP4(ctx context.Context, src string) (string, error) {
	if t.FFmpeg == "" {
		return "", errors.New("ffmpeg: no binary")
	}
	dst := fileutil.SwapExt(src, ".mp4")
	cmd := exec.CommandContext(ctx, t.FFmpeg,
		"-v", "error",
		"-i", src,
		"-acodec", "aac",
		"-y", dst)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("convert %s to aac: %w: %s", src, err, strings.TrimSpace(string(output)))
	}
	return dst, nil
}

// runWithProgress starts ffmpeg with -progress on stdout and converts its
// frame counter into percentages.
func (t Tools) runWithProgress(ctx context.Context, args []string, totalFrames int, progress Progress) error {
	cmd := exec.CommandContext(ctx, t.FFmpeg, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(stdout)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), "=")
		if !ok || key != "frame" {
			continue
		}
		if progress == nil || totalFrames <= 0 {
			continue
		}
		frame, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			continue
		}
		pct := int(math.Round(frame * 100 / float64(totalFrames)))
		if pct > 100 {
			pct = 100
		}
		progress(pct)
	}
	return cmd.Wait()
}
