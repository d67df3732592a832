package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoDecoder is returned by Waveform for containers without a PCM decoder.
var ErrNoDecoder = errors.New("no PCM decoder for container")

// Waveform decodes the first channel of data and reduces it to at most
// points peak amplitudes in [0, 1].
func Waveform(data []byte, points int) ([]float64, error) {
	if points <= 0 {
		return nil, nil
	}

	var decode func([]byte) ([]float64, error)
	switch kind := sniff(data); kind {
	case kindWAV:
		decode = wavSamples
	case kindMP3:
		decode = mp3Samples
	case kindOgg:
		decode = oggSamples
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoDecoder, kind)
	}

	var samples []float64
	if err := safely(func() error {
		var decErr error
		samples, decErr = decode(data)
		return decErr
	}); err != nil {
		return nil, err
	}
	return downsample(samples, points), nil
}

// downsample keeps the absolute value of every step-th sample.
func downsample(samples []float64, points int) []float64 {
	if len(samples) == 0 || points <= 0 {
		return []float64{}
	}
	step := int(math.Ceil(float64(len(samples)) / float64(points)))
	if step < 1 {
		step = 1
	}

	out := make([]float64, 0, points)
	for i := 0; i < len(samples) && len(out) < points; i += step {
		v := math.Abs(samples[i])
		if v > 1 {
			v = 1
		}
		out = append(out, v)
	}
	return out
}
