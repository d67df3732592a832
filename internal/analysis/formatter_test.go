package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/FuadModaresi/music-analysis/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }
func s(v string) *string     { return &v }

func TestFormatTranscriptionScenario(t *testing.T) {
	format := &audio.FormatInfo{
		Duration:   f64(185.5),
		SampleRate: i(44100),
		Channels:   i(2),
		Bitrate:    f64(128000),
		Container:  s("MPEG"),
		Codec:      s("MPEG 1 Layer 3"),
	}
	tags := &audio.Tags{Title: s("Test"), Artist: s("Artist X")}

	got := FormatTranscription(format, tags)
	assert.True(t, strings.HasPrefix(got, "Title: Test\nArtist: Artist X\nDuration: 185:30\n"), got)
	assert.Equal(t, strings.Join([]string{
		"Title: Test",
		"Artist: Artist X",
		"Duration: 185:30",
		"Format: MPEG (MPEG 1 Layer 3)",
		"Bitrate: 128 kbps",
		"Sample Rate: 44100 Hz",
		"Channels: 2",
	}, "\n"), got)
}

func TestFormatTranscriptionAllTags(t *testing.T) {
	tags := &audio.Tags{
		Title:  s("So What"),
		Artist: s("Miles Davis"),
		Album:  s("Kind of Blue"),
		Year:   i(1959),
		Genre:  []string{"Jazz", "Modal"},
	}
	got := FormatTranscription(&audio.FormatInfo{Duration: f64(562.25)}, tags)

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "Title: So What", lines[0])
	assert.Equal(t, "Artist: Miles Davis", lines[1])
	assert.Equal(t, "Album: Kind of Blue", lines[2])
	assert.Equal(t, "Year: 1959", lines[3])
	assert.Equal(t, "Genre: Jazz, Modal", lines[4])
	assert.Equal(t, "Duration: 562:15", lines[5])
}

func TestFormatTranscriptionMissingFields(t *testing.T) {
	got := FormatTranscription(&audio.FormatInfo{}, &audio.Tags{})

	assert.Equal(t, strings.Join([]string{
		"Untitled",
		"Duration: 0:00",
		"Format: Unknown (Unknown codec)",
		"Bitrate: 0 kbps",
		"Sample Rate: undefined Hz",
		"Channels: undefined",
	}, "\n"), got)
	assert.NotContains(t, got, "Artist")
	assert.NotContains(t, got, "Album")
	assert.NotContains(t, got, "Year")
	assert.NotContains(t, got, "Genre")
}

func TestFormatTranscriptionNilInputs(t *testing.T) {
	got := FormatTranscription(nil, nil)
	assert.True(t, strings.HasPrefix(got, "Untitled\nDuration: 0:00\n"))
}

func TestFormatTranscriptionSkipsEmptyValues(t *testing.T) {
	tags := &audio.Tags{Title: s(""), Artist: s(""), Year: i(0), Genre: []string{}}
	format := &audio.FormatInfo{Container: s(""), Codec: s("")}

	got := FormatTranscription(format, tags)
	assert.True(t, strings.HasPrefix(got, "Untitled\nDuration"))
	assert.Contains(t, got, "Format: Unknown (Unknown codec)")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want string
	}{
		{"absent", nil, "0:00"},
		{"zero", f64(0), "0:00"},
		{"whole seconds", f64(3), "3:00"},
		{"half second", f64(185.5), "185:30"},
		{"small fraction pads", f64(10.05), "10:03"},
		{"rounds up to carry", f64(59.995), "60:00"},
		{"nan", f64(math.NaN()), "0:00"},
		{"inf", f64(math.Inf(1)), "0:00"},
		{"negative", f64(-4.5), "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}

func TestFormatDurationSecondsInRange(t *testing.T) {
	for d := 0.0; d < 5; d += 0.001 {
		got := FormatDuration(&d)
		parts := strings.Split(got, ":")
		require.Len(t, parts, 2, got)
		require.Len(t, parts[1], 2, got)
		assert.LessOrEqual(t, parts[1], "59", "duration %v rendered %s", d, got)
	}
}

func TestBitrateRendering(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{f64(128000), "Bitrate: 128 kbps"},
		{f64(320000), "Bitrate: 320 kbps"},
		{f64(1411200), "Bitrate: 1411 kbps"},
		{f64(96500), "Bitrate: 97 kbps"},
		{nil, "Bitrate: 0 kbps"},
		{f64(math.NaN()), "Bitrate: 0 kbps"},
	}
	for _, tt := range tests {
		got := FormatTranscription(&audio.FormatInfo{Bitrate: tt.in}, nil)
		assert.Contains(t, got, tt.want)
	}
}

func TestBuildResult(t *testing.T) {
	format := &audio.FormatInfo{
		Duration:   f64(2.0),
		SampleRate: i(48000),
		Channels:   i(1),
		Bitrate:    f64(768000),
		Container:  s("WAVE"),
		Codec:      s("PCM"),
	}
	tags := &audio.Tags{Title: s("Tone"), Genre: []string{"Test"}}
	notes := []Note{{Pitch: "C4", Duration: Quarter, StartTime: 0}}

	r := BuildResult(format, tags, notes)
	assert.Equal(t, 0.8, r.Confidence)
	assert.Equal(t, FormatTranscription(format, tags), r.Transcription)
	assert.Equal(t, 2.0, *r.Duration)
	assert.Equal(t, 48000, *r.SampleRate)
	assert.Equal(t, 1, *r.NumberOfChannels)
	assert.Equal(t, "WAVE", *r.Format)
	assert.Equal(t, "PCM", *r.Codec)
	assert.Equal(t, notes, r.Notes)
	assert.Equal(t, "Tone", *r.Metadata.Title)
	assert.Equal(t, []string{"Test"}, r.Metadata.Genre)
}

func TestBuildResultJSON(t *testing.T) {
	r := BuildResult(&audio.FormatInfo{Duration: f64(math.NaN())}, &audio.Tags{}, nil)

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 0.8, decoded["confidence"])
	assert.Equal(t, []any{}, decoded["notes"])
	assert.Equal(t, map[string]any{}, decoded["metadata"])
	for _, key := range []string{"duration", "sampleRate", "numberOfChannels", "bitrate", "format", "codec", "waveform"} {
		assert.NotContains(t, decoded, key)
	}
}
