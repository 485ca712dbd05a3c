// Package media prepares source assets for packaging: probing and
// transcoding video and audio through external ffmpeg/ffprobe binaries, and
// decoding, resizing and re-encoding images. Video work degrades gracefully:
// when the binaries are missing the original files pass through untouched
// and the caller records the outcome.
package media
