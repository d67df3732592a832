// Package audiotest builds small in-memory audio fixtures for tests.
package audiotest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// WAV encodes a 16-bit PCM sine wave of the given length.
func WAV(t testing.TB, sampleRate, channels int, seconds float64) []byte {
	t.Helper()

	frames := int(float64(sampleRate) * seconds)
	data := make([]int, 0, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)) * 16000)
		for c := 0; c < channels; c++ {
			data = append(data, v)
		}
	}

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	return out
}

// ID3Frame is a single ID3v2.3 text frame such as TIT2 or TPE1.
type ID3Frame struct {
	ID   string
	Text string
}

// ID3v23 builds an ID3v2.3 tag holding latin-1 text frames.
func ID3v23(frames ...ID3Frame) []byte {
	var body bytes.Buffer
	for _, fr := range frames {
		payload := append([]byte{0x00}, []byte(fr.Text)...)
		body.WriteString(fr.ID)
		_ = binary.Write(&body, binary.BigEndian, uint32(len(payload)))
		body.Write([]byte{0x00, 0x00})
		body.Write(payload)
	}

	size := body.Len()
	header := []byte{
		'I', 'D', '3', 0x03, 0x00, 0x00,
		byte(size>>21) & 0x7F,
		byte(size>>14) & 0x7F,
		byte(size>>7) & 0x7F,
		byte(size) & 0x7F,
	}
	return append(header, body.Bytes()...)
}

// MPEGFrames returns n MPEG-1 Layer III frames at 128 kbps, 44.1 kHz,
// joint stereo, with a silent payload.
func MPEGFrames(n int) []byte {
	// 144 * 128000 / 44100 = 417 bytes per frame without padding.
	const frameSize = 417
	out := make([]byte, 0, n*frameSize)
	for i := 0; i < n; i++ {
		frame := make([]byte, frameSize)
		copy(frame, []byte{0xFF, 0xFB, 0x90, 0x64})
		out = append(out, frame...)
	}
	return out
}

// MPEGLayer2Frames returns n MPEG-1 Layer II frames at 160 kbps, 44.1 kHz,
// stereo, with a silent payload.
func MPEGLayer2Frames(n int) []byte {
	// 144 * 160000 / 44100 = 522 bytes per frame without padding.
	const frameSize = 522
	out := make([]byte, 0, n*frameSize)
	for i := 0; i < n; i++ {
		frame := make([]byte, frameSize)
		copy(frame, []byte{0xFF, 0xFD, 0x90, 0x04})
		out = append(out, frame...)
	}
	return out
}

// MP4 builds an ISO-BMFF file holding one track. handler is the hdlr type
// ("soun", "vide") and entry the fourcc of its only sample description.
func MP4(handler, entry string, channels, sampleRate int, seconds float64) []byte {
	const timescale = 1000

	mdhd := make([]byte, 24)
	binary.BigEndian.PutUint32(mdhd[12:], timescale)
	binary.BigEndian.PutUint32(mdhd[16:], uint32(seconds*timescale))
	binary.BigEndian.PutUint16(mdhd[20:], 0x55C4) // "und"

	hdlr := make([]byte, 8, 40)
	hdlr = append(hdlr, handler...)
	hdlr = append(hdlr, make([]byte, 12)...)
	hdlr = append(hdlr, "Handler\x00"...)

	sample := make([]byte, 28)
	binary.BigEndian.PutUint16(sample[6:], 1)
	binary.BigEndian.PutUint16(sample[16:], uint16(channels))
	binary.BigEndian.PutUint16(sample[18:], 16)
	binary.BigEndian.PutUint32(sample[24:], uint32(sampleRate)<<16)

	stsd := mp4Box("stsd", []byte{0, 0, 0, 0, 0, 0, 0, 1}, mp4Box(entry, sample))
	mdia := mp4Box("mdia",
		mp4Box("mdhd", mdhd),
		mp4Box("hdlr", hdlr),
		mp4Box("minf", mp4Box("stbl", stsd)),
	)

	out := mp4Box("ftyp", []byte("M4A \x00\x00\x00\x00M4A isom"))
	return append(out, mp4Box("moov", mp4Box("trak", mdia))...)
}

func mp4Box(boxType string, payload ...[]byte) []byte {
	size := 8
	for _, p := range payload {
		size += len(p)
	}
	out := make([]byte, 8, size)
	binary.BigEndian.PutUint32(out, uint32(size))
	copy(out[4:], boxType)
	for _, p := range payload {
		out = append(out, p...)
	}
	return out
}

// NotAudio is a buffer no container reader recognises.
func NotAudio() []byte {
	return []byte("this is definitely not an audio file")
}
