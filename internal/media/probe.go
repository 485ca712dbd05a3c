package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeResult is the subset of stream and container metadata the converter
// needs: codec selection for webm re-encodes and the frame count that scales
// transcode progress.
type ProbeResult struct {
	CodecName string
	Width     int
	Height    int
	Frames    int
	Duration  float64
}

// Probe inspects the first video stream of the file at path. Frame counting
// decodes the whole stream, so this is slow on long videos; the result is
// worth it because ffmpeg's progress reports are frame-based.
func Probe(ctx context.Context, binary, path string) (ProbeResult, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return ProbeResult{}, errors.New("ffprobe: no binary")
	}
	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-count_frames",
		"-select_streams", "v:0",
		"-show_entries", "format=duration",
		"-show_entries", "stream=codec_name,height,width,nb_read_frames",
		"-of", "json",
		"--", path)
	output, err := cmd.Output()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	var raw struct {
		Streams []struct {
			CodecName    string `json:"codec_name"`
			Width        int    `json:"width"`
			Height       int    `json:"height"`
			NBReadFrames string `json:"nb_read_frames"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &raw); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	if len(raw.Streams) == 0 {
		return ProbeResult{}, fmt.Errorf("ffprobe %s: no video stream", path)
	}
	s := raw.Streams[0]
	result := ProbeResult{CodecName: s.CodecName, Width: s.Width, Height: s.Height}
	result.Frames, _ = strconv.Atoi(s.NBReadFrames)
	result.Duration, _ = strconv.ParseFloat(raw.Format.Duration, 64)
	return result, nil
}
