package audio

import (
	"bytes"
	"fmt"

	"github.com/jfreymuth/oggvorbis"
)

func inspectOgg(data []byte) (*FormatInfo, error) {
	r, err := oggvorbis.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open vorbis stream: %w", err)
	}

	info := &FormatInfo{
		SampleRate: intPtr(r.SampleRate()),
		Channels:   intPtr(r.Channels()),
		Container:  stringPtr("Ogg"),
		Codec:      stringPtr("Vorbis I"),
	}
	if n := r.Length(); n > 0 && r.SampleRate() > 0 {
		info.Duration = floatPtr(float64(n) / float64(r.SampleRate()))
	}
	switch {
	case r.Bitrate().Nominal > 0:
		info.Bitrate = floatPtr(float64(r.Bitrate().Nominal))
	case info.Duration != nil && *info.Duration > 0:
		info.Bitrate = floatPtr(float64(len(data)) * 8 / *info.Duration)
	}
	return info, nil
}

// oggSamples decodes channel 0 of a Vorbis stream.
func oggSamples(data []byte) ([]float64, error) {
	pcm, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode vorbis: %w", err)
	}
	channels := format.Channels
	if channels < 1 {
		channels = 1
	}
	samples := make([]float64, 0, len(pcm)/channels)
	for i := 0; i < len(pcm); i += channels {
		samples = append(samples, float64(pcm[i]))
	}
	return samples, nil
}
