package shared

import (
	"net/http"
	"path/filepath"
	"strings"
)

// SniffLen is how many leading bytes [SniffVideo] inspects.
const SniffLen = 512

var videoExtensions = map[string]bool{
	".mp4": true, ".m4v": true, ".mov": true, ".webm": true, ".mkv": true, ".avi": true,
}

// SniffVideo reports the detected content type of head and whether it is a video.
//
// Containers the sniffer does not know (QuickTime, Matroska) are accepted by the extension of name when the
// content is opaque binary.
func SniffVideo(head []byte, name string) (string, bool) {
	contentType := http.DetectContentType(head)
	if strings.HasPrefix(contentType, "video/") {
		return contentType, true
	}
	if contentType == "application/octet-stream" && videoExtensions[strings.ToLower(filepath.Ext(name))] {
		return contentType, true
	}
	return contentType, false
}
