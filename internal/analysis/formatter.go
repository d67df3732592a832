// Package analysis shapes Tag Reader output into the response returned to
// clients: a human-readable transcription, the flattened technical fields
// and a sequence of placeholder notes.
package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/FuadModaresi/music-analysis/internal/audio"
)

// Confidence is reported with every result. No measurement backs it.
const Confidence = 0.8

// FormatTranscription renders the multi-line summary shown to users.
//
// The duration line uses whole seconds as the minutes field and the
// fractional second scaled to 60 as the seconds field, so 185.5 seconds
// renders as "185:30". Clients rely on this exact rendering.
func FormatTranscription(format *audio.FormatInfo, tags *audio.Tags) string {
	if format == nil {
		format = &audio.FormatInfo{}
	}
	if tags == nil {
		tags = &audio.Tags{}
	}

	lines := make([]string, 0, 10)
	if title := optString(tags.Title); title != "" {
		lines = append(lines, "Title: "+title)
	} else {
		lines = append(lines, "Untitled")
	}
	if artist := optString(tags.Artist); artist != "" {
		lines = append(lines, "Artist: "+artist)
	}
	if album := optString(tags.Album); album != "" {
		lines = append(lines, "Album: "+album)
	}
	if tags.Year != nil && *tags.Year != 0 {
		lines = append(lines, "Year: "+strconv.Itoa(*tags.Year))
	}
	if len(tags.Genre) > 0 {
		lines = append(lines, "Genre: "+strings.Join(tags.Genre, ", "))
	}

	lines = append(lines,
		"Duration: "+FormatDuration(format.Duration),
		fmt.Sprintf("Format: %s (%s)", orDefault(format.Container, "Unknown"), orDefault(format.Codec, "Unknown codec")),
		fmt.Sprintf("Bitrate: %d kbps", kbps(format.Bitrate)),
		fmt.Sprintf("Sample Rate: %s Hz", rawInt(format.SampleRate)),
		"Channels: "+rawInt(format.Channels),
	)
	return strings.Join(lines, "\n")
}

// FormatDuration renders seconds as M:SS where M is the whole number of
// seconds and SS the rounded fraction of a second times 60. An absent,
// negative or non-finite value renders as "0:00".
func FormatDuration(seconds *float64) string {
	d := 0.0
	if seconds != nil && isFinite(*seconds) && *seconds > 0 {
		d = *seconds
	}

	minutes := int64(math.Floor(d))
	secs := int64(roundHalfUp(math.Mod(d, 1) * 60))
	if secs >= 60 {
		minutes++
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

func kbps(bitrate *float64) int64 {
	if bitrate == nil || !isFinite(*bitrate) {
		return 0
	}
	return int64(roundHalfUp(*bitrate / 1000))
}

// rawInt renders an optional integer the way an untyped client would print
// a missing field.
func rawInt(v *int) string {
	if v == nil {
		return "undefined"
	}
	return strconv.Itoa(*v)
}

func orDefault(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
