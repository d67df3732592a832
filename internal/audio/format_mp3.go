package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/tcolgate/mp3"
)

var errNoMPEGFrame = errors.New("no MPEG audio frame found")

var (
	mpegVersionNames = map[mp3.FrameVersion]string{
		mp3.MPEG1:  "1",
		mp3.MPEG2:  "2",
		mp3.MPEG25: "2.5",
	}
	mpegLayerNumbers = map[mp3.FrameLayer]int{
		mp3.Layer1: 1,
		mp3.Layer2: 2,
		mp3.Layer3: 3,
	}
)

// mpegStream summarises the frames found after any ID3v2 tag.
type mpegStream struct {
	first   mp3.FrameHeader
	frames  int
	samples int
	bytes   int
	vbr     bool
}

// isFrameHeader applies the same sync checks the frame decoder uses.
func isFrameHeader(b []byte) bool {
	if len(b) < 4 || b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return false
	}
	h := mp3.FrameHeader(b[:4])
	return h.Version() != mp3.MPEGReserved &&
		h.Layer() != mp3.LayerReserved &&
		h.Emphasis() != mp3.EmphReserved &&
		h.BitRate() != mp3.ErrInvalidBitrate &&
		h.SampleRate() != mp3.ErrInvalidSampleRate
}

// id3v2Size returns the length of a leading ID3v2 tag including its header
// and optional footer.
func id3v2Size(data []byte) int {
	if len(data) < 10 || !bytes.HasPrefix(data, []byte("ID3")) {
		return 0
	}
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 | int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	size += 10
	if data[5]&0x10 != 0 {
		size += 10
	}
	if size > len(data) {
		return len(data)
	}
	return size
}

// scanMPEGFrames walks every complete frame. A truncated last frame ends the
// scan without error.
func scanMPEGFrames(data []byte) (*mpegStream, error) {
	dec := mp3.NewDecoder(bytes.NewReader(data[id3v2Size(data):]))

	var (
		frame   mp3.Frame
		skipped int
		s       mpegStream
	)
	for {
		err := dec.Decode(&frame, &skipped)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		h := frame.Header()
		if s.frames == 0 {
			s.first = append(mp3.FrameHeader(nil), h...)
		} else if h.BitRate() != s.first.BitRate() {
			s.vbr = true
		}
		s.frames++
		s.samples += frame.Samples()
		s.bytes += frame.Size()
	}
	if s.frames == 0 {
		return nil, errNoMPEGFrame
	}
	return &s, nil
}

func inspectMP3(data []byte) (*FormatInfo, error) {
	stream, err := scanMPEGFrames(data)
	if err != nil {
		return nil, err
	}

	h := stream.first
	sampleRate := int(h.SampleRate())
	channels := 2
	if h.ChannelMode() == mp3.SingleChannel {
		channels = 1
	}

	info := &FormatInfo{
		SampleRate: intPtr(sampleRate),
		Channels:   intPtr(channels),
		Container:  stringPtr("MPEG"),
		Codec:      stringPtr(fmt.Sprintf("MPEG %s Layer %d", mpegVersionNames[h.Version()], mpegLayerNumbers[h.Layer()])),
	}

	seconds := float64(stream.samples) / float64(sampleRate)
	if h.Layer() == mp3.Layer3 {
		if decoded, ok := decodedMP3Length(data); ok {
			seconds = decoded
		}
	}
	info.Duration = floatPtr(seconds)

	if stream.vbr && seconds > 0 {
		info.Bitrate = floatPtr(float64(stream.bytes) * 8 / seconds)
	} else {
		info.Bitrate = floatPtr(float64(h.BitRate()))
	}
	return info, nil
}

// decodedMP3Length reports the decoded Layer III length in seconds.
func decodedMP3Length(data []byte) (float64, bool) {
	var seconds float64
	err := safely(func() error {
		dec, err := gomp3.NewDecoder(bytes.NewReader(data))
		if err != nil {
			return err
		}
		if dec.Length() <= 0 || dec.SampleRate() <= 0 {
			return errNoMPEGFrame
		}
		// go-mp3 always emits 16-bit stereo frames.
		seconds = float64(dec.Length()/4) / float64(dec.SampleRate())
		return nil
	})
	return seconds, err == nil
}

// mp3Samples decodes the left channel as normalized amplitudes.
func mp3Samples(data []byte) ([]float64, error) {
	dec, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating MP3 decoder: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}

	const bytesPerFrame = 4
	samples := make([]float64, 0, len(pcm)/bytesPerFrame)
	for i := 0; i+bytesPerFrame <= len(pcm); i += bytesPerFrame {
		left := int16(binary.LittleEndian.Uint16(pcm[i : i+2]))
		samples = append(samples, float64(left)/32768.0)
	}
	return samples, nil
}
