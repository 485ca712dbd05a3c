package media

import (
	"net/http"
	"os"
	"path"
	"strings"
)

// AudioMIME sniffs a file's content type, preferring the extension for
// containers the sniffer reports generically.
func AudioMIME(absPath string) string {
	switch strings.ToLower(path.Ext(absPath)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".mp4", ".m4a":
		return "audio/mp4"
	}
	f, err := os.Open(absPath)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	return http.DetectContentType(buf[:n])
}

// SupportedAudio reports whether the importer plays the container natively;
// anything else is transcoded to AAC first.
func SupportedAudio(mime string) bool {
	switch mime {
	case "audio/mp3", "audio/mpeg", "audio/wav", "audio/wave", "audio/mp4", "video/mp4":
		return true
	}
	return false
}
