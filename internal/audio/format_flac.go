package audio

import (
	"bytes"
	"errors"
	"fmt"

	flac "github.com/go-flac/go-flac"
)

var errNoStreamInfo = errors.New("missing FLAC STREAMINFO block")

func inspectFLAC(data []byte) (*FormatInfo, error) {
	f, err := flac.ParseMetadata(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse flac: %w", err)
	}
	// GetStreamInfo indexes Meta[0] without a length check.
	if len(f.Meta) == 0 {
		return nil, errNoStreamInfo
	}

	si, err := f.GetStreamInfo()
	switch {
	case errors.Is(err, flac.ErrorNoStreamInfo), errors.Is(err, flac.ErrorStreamInfoEarlyEOF):
		return nil, fmt.Errorf("%w: %v", errNoStreamInfo, err)
	case err != nil:
		return nil, fmt.Errorf("read flac stream info: %w", err)
	}

	info := &FormatInfo{
		Channels:  intPtr(si.ChannelCount),
		Container: stringPtr("FLAC"),
		Codec:     stringPtr("FLAC"),
	}
	if si.SampleRate > 0 {
		info.SampleRate = intPtr(si.SampleRate)
	}
	if si.SampleRate > 0 && si.SampleCount > 0 {
		seconds := float64(si.SampleCount) / float64(si.SampleRate)
		info.Duration = floatPtr(seconds)
		info.Bitrate = floatPtr(float64(len(data)) * 8 / seconds)
	}
	return info, nil
}
