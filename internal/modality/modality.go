// Package modality maps file extensions to the media type that selects
// an embedding pipeline and subspace.
package modality

import (
	"path/filepath"
	"strings"
)

const (
	Text  = "text"
	Image = "image"
	Audio = "audio"
)

// All lists every modality in a fixed order. Per-modality iteration in the
// search engine follows this order so merge results are deterministic.
var All = []string{Text, Image, Audio}

var extensionModality = map[string]string{
	// Images
	".jpg":  Image,
	".jpeg": Image,
	".png":  Image,
	".gif":  Image,
	".webp": Image,
	// Audio
	".mp3":  Audio,
	".wav":  Audio,
	".ogg":  Audio,
	".flac": Audio,
	// Text
	".txt": Text,
	".md":  Text,
	".pdf": Text,
}

// FromPath determines the modality for a file path based on its extension.
// Returns false if the extension maps to no known modality.
func FromPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	m, ok := extensionModality[ext]
	return m, ok
}

// IsAllowed reports whether the filename has an extension accepted for upload.
func IsAllowed(filename string) bool {
	_, ok := FromPath(filename)
	return ok
}

// Valid reports whether m is one of the known modality labels.
func Valid(m string) bool {
	return m == Text || m == Image || m == Audio
}
