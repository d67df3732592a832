package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

// MIDIContentType is sent with Standard MIDI File responses.
const MIDIContentType = "audio/midi"

// GetAudioContentType returns the MIME type for an audio file extension,
// with or without the leading dot.
//
// Examples:
//   - "mp3" -> "audio/mpeg"
//   - ".FLAC" -> "audio/flac"
//   - "unknown" -> "application/octet-stream"
func GetAudioContentType(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp3":
		return "audio/mpeg"
	case "aac", "m4a", "mp4", "m4b":
		return "audio/mp4"
	case "ogg", "oga":
		return "audio/ogg"
	case "opus":
		return "audio/opus"
	case "flac":
		return "audio/flac"
	case "wav", "wave":
		return "audio/wav"
	case "aif", "aiff":
		return "audio/aiff"
	case "dsf":
		return "audio/dsf"
	case "mid", "midi":
		return MIDIContentType
	default:
		return "application/octet-stream"
	}
}

// GetFileExtension returns the lowercase extension of a path without the dot.
//
// Examples:
//   - "/path/to/song.MP3" -> "mp3"
//   - "/path/to/file" -> ""
func GetFileExtension(filePath string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
}

// DeclaredContentType picks the MIME type a client declared for an upload,
// falling back to the file name's extension when the declared value is empty
// or generic.
func DeclaredContentType(declared, filename string) string {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
			return mediaType
		}
	}
	return GetAudioContentType(GetFileExtension(filename))
}
