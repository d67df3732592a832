package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	mp4 "github.com/abema/go-mp4"
)

// errNoAudioTrack marks an ISO-BMFF file (HEIC, AVIF, video-only MP4) that
// carries no sound track.
var errNoAudioTrack = errors.New("no audio track in MPEG-4 container")

var soundHandler = [4]byte{'s', 'o', 'u', 'n'}

var sampleEntryCodecs = map[string]string{
	"mp4a": "AAC",
	"enca": "AAC",
	"alac": "ALAC",
	"Opus": "Opus",
	"fLaC": "FLAC",
	"ac-3": "AC-3",
	"ec-3": "E-AC-3",
	".mp3": "MP3",
}

func inspectMP4(data []byte) (*FormatInfo, error) {
	r := bytes.NewReader(data)
	traks, err := mp4.ExtractBox(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeTrak()})
	if err != nil {
		return nil, fmt.Errorf("parse mp4: %w", err)
	}

	for _, trak := range traks {
		boxes, err := mp4.ExtractBoxesWithPayload(r, trak, []mp4.BoxPath{
			{mp4.BoxTypeMdia(), mp4.BoxTypeHdlr()},
			{mp4.BoxTypeMdia(), mp4.BoxTypeMdhd()},
		})
		if err != nil {
			return nil, fmt.Errorf("parse mp4 track: %w", err)
		}

		var (
			sound bool
			mdhd  *mp4.Mdhd
		)
		for _, b := range boxes {
			switch p := b.Payload.(type) {
			case *mp4.Hdlr:
				sound = p.HandlerType == soundHandler
			case *mp4.Mdhd:
				mdhd = p
			}
		}
		if !sound {
			continue
		}
		return soundTrackFormat(r, trak, mdhd, len(data))
	}
	return nil, errNoAudioTrack
}

func soundTrackFormat(r io.ReadSeeker, trak *mp4.BoxInfo, mdhd *mp4.Mdhd, size int) (*FormatInfo, error) {
	info := &FormatInfo{Container: stringPtr("MPEG-4")}

	if mdhd != nil && mdhd.Timescale > 0 {
		duration := uint64(mdhd.DurationV0)
		if mdhd.GetVersion() == 1 {
			duration = mdhd.DurationV1
		}
		if duration > 0 {
			seconds := float64(duration) / float64(mdhd.Timescale)
			info.Duration = floatPtr(seconds)
			info.Bitrate = floatPtr(float64(size) * 8 / seconds)
		}
	}

	stsd := mp4.BoxPath{mp4.BoxTypeMdia(), mp4.BoxTypeMinf(), mp4.BoxTypeStbl(), mp4.BoxTypeStsd()}
	entries, err := mp4.ExtractBox(r, trak, append(stsd, mp4.BoxTypeAny()))
	if err != nil {
		return nil, fmt.Errorf("parse mp4 sample description: %w", err)
	}
	if len(entries) == 0 {
		return info, nil
	}

	entry := entries[0]
	fourCC := entry.Type.String()
	if codec, ok := sampleEntryCodecs[fourCC]; ok {
		info.Codec = stringPtr(codec)
	} else {
		info.Codec = stringPtr(strings.TrimSpace(fourCC))
	}

	if !entry.IsSupportedType() {
		return info, nil
	}
	payloads, err := mp4.ExtractBoxWithPayload(r, trak, append(stsd, entry.Type))
	if err != nil {
		return nil, fmt.Errorf("parse mp4 sample entry: %w", err)
	}
	for _, p := range payloads {
		ase, ok := p.Payload.(*mp4.AudioSampleEntry)
		if !ok {
			continue
		}
		if ase.ChannelCount > 0 {
			info.Channels = intPtr(int(ase.ChannelCount))
		}
		if rate := int(ase.SampleRate >> 16); rate > 0 {
			info.SampleRate = intPtr(rate)
		}
		break
	}
	return info, nil
}
