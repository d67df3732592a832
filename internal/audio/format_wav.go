package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-audio/wav"
)

var errInvalidWAV = errors.New("invalid WAVE header")

func inspectWAV(data []byte) (*FormatInfo, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errInvalidWAV
	}

	d, err := dec.Duration()
	if err != nil {
		return nil, fmt.Errorf("wave duration: %w", err)
	}

	// The riff parser derives duration from the RIFF size, which includes
	// the headers. Prefer the data chunk when it can be reached.
	seconds := d.Seconds()
	if err := dec.FwdToPCM(); err == nil && dec.PCMSize > 0 && dec.AvgBytesPerSec > 0 {
		seconds = float64(dec.PCMSize) / float64(dec.AvgBytesPerSec)
	}

	info := &FormatInfo{
		Duration:   floatPtr(seconds),
		SampleRate: intPtr(int(dec.SampleRate)),
		Channels:   intPtr(int(dec.NumChans)),
		Container:  stringPtr("WAVE"),
		Codec:      stringPtr(wavCodecName(dec.WavAudioFormat)),
	}
	if dec.AvgBytesPerSec > 0 {
		info.Bitrate = floatPtr(float64(dec.AvgBytesPerSec) * 8)
	}
	return info, nil
}

func wavCodecName(format uint16) string {
	switch format {
	case 1:
		return "PCM"
	case 3:
		return "IEEE_FLOAT"
	case 6:
		return "ALAW"
	case 7:
		return "MULAW"
	case 0xFFFE:
		return "PCM"
	}
	return fmt.Sprintf("WAVE format 0x%04x", format)
}

// wavSamples decodes channel 0 as normalized amplitudes.
func wavSamples(data []byte) ([]float64, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wave: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, errInvalidWAV
	}

	channels := buf.Format.NumChannels
	depth := buf.SourceBitDepth
	if depth < 2 {
		depth = 16
	}
	scale := float64(int64(1) << (depth - 1))

	samples := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, float64(buf.Data[i])/scale)
	}
	return samples, nil
}
