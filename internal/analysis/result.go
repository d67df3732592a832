package analysis

import (
	"github.com/FuadModaresi/music-analysis/internal/audio"
)

// Metadata is the nested tag block of a Result.
type Metadata struct {
	Title  *string  `json:"title,omitempty"`
	Artist *string  `json:"artist,omitempty"`
	Album  *string  `json:"album,omitempty"`
	Year   *int     `json:"year,omitempty"`
	Genre  []string `json:"genre,omitempty"`
}

// Result is the payload returned for a successful analysis.
type Result struct {
	Transcription    string    `json:"transcription"`
	Duration         *float64  `json:"duration,omitempty"`
	SampleRate       *int      `json:"sampleRate,omitempty"`
	NumberOfChannels *int      `json:"numberOfChannels,omitempty"`
	Bitrate          *float64  `json:"bitrate,omitempty"`
	Format           *string   `json:"format,omitempty"`
	Codec            *string   `json:"codec,omitempty"`
	Confidence       float64   `json:"confidence"`
	Notes            []Note    `json:"notes"`
	Metadata         Metadata  `json:"metadata"`
	Waveform         []float64 `json:"waveform,omitempty"`
}

// BuildResult flattens format and tags next to the transcription and notes.
// Non-finite numbers are dropped so the result always encodes as JSON.
func BuildResult(format *audio.FormatInfo, tags *audio.Tags, notes []Note) *Result {
	if format == nil {
		format = &audio.FormatInfo{}
	}
	if tags == nil {
		tags = &audio.Tags{}
	}
	if notes == nil {
		notes = []Note{}
	}

	return &Result{
		Transcription:    FormatTranscription(format, tags),
		Duration:         finiteOrNil(format.Duration),
		SampleRate:       format.SampleRate,
		NumberOfChannels: format.Channels,
		Bitrate:          finiteOrNil(format.Bitrate),
		Format:           format.Container,
		Codec:            format.Codec,
		Confidence:       Confidence,
		Notes:            notes,
		Metadata: Metadata{
			Title:  tags.Title,
			Artist: tags.Artist,
			Album:  tags.Album,
			Year:   tags.Year,
			Genre:  tags.Genre,
		},
	}
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || !isFinite(*v) {
		return nil
	}
	return v
}
