package audio

import (
	"bytes"

	"github.com/dhowden/tag"
)

type containerKind string

const (
	kindUnknown containerKind = "unknown"
	kindWAV     containerKind = "wave"
	kindMP3     containerKind = "mpeg"
	kindFLAC    containerKind = "flac"
	kindOgg     containerKind = "ogg"
	kindMP4     containerKind = "mp4"
	kindDSF     containerKind = "dsf"
)

type inspectFunc func(data []byte) (*FormatInfo, error)

// sniff identifies the container from its magic bytes.
func sniff(data []byte) containerKind {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return kindWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return kindFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		return kindOgg
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return kindMP4
	case bytes.HasPrefix(data, []byte("DSD ")):
		return kindDSF
	case bytes.HasPrefix(data, []byte("ID3")):
		return kindMP3
	case len(data) >= 4 && isFrameHeader(data[0:4]):
		return kindMP3
	}
	return kindUnknown
}

func kindFromFileType(ft tag.FileType) containerKind {
	switch ft {
	case tag.MP3:
		return kindMP3
	case tag.FLAC:
		return kindFLAC
	case tag.OGG:
		return kindOgg
	case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
		return kindMP4
	case tag.DSF:
		return kindDSF
	}
	return kindUnknown
}

// applyKindDefaults names the container and codec when the reader did not.
// MPEG-4 gets no codec default: the sample entry decides it.
func applyKindDefaults(f *FormatInfo, kind containerKind) {
	var container, codec string
	switch kind {
	case kindWAV:
		container, codec = "WAVE", "PCM"
	case kindMP3:
		container = "MPEG"
	case kindFLAC:
		container, codec = "FLAC", "FLAC"
	case kindOgg:
		container = "Ogg"
	case kindMP4:
		container = "MPEG-4"
	case kindDSF:
		container, codec = "DSF", "DSD"
	}
	if f.Container == nil && container != "" {
		f.Container = stringPtr(container)
	}
	if f.Codec == nil && codec != "" {
		f.Codec = stringPtr(codec)
	}
}
