// Package audio reads container, technical and tag metadata from uploaded
// audio buffers. Every numeric field is optional: a nil pointer means the
// container did not tell us, which is different from a zero value.
package audio

import (
	"errors"
	"fmt"
)

// UploadedAudio is one file received from a client. It lives only for the
// duration of a request.
type UploadedAudio struct {
	Data     []byte
	MIMEType string
	Size     int64
	Filename string
}

// FormatInfo describes the container and the encoded stream.
type FormatInfo struct {
	Duration   *float64 // seconds
	SampleRate *int     // Hz
	Channels   *int
	Bitrate    *float64 // bits per second
	Container  *string
	Codec      *string
}

// Tags holds the common descriptive tags found in the container.
type Tags struct {
	Title  *string
	Artist *string
	Album  *string
	Year   *int
	Genre  []string
}

// TagReader turns raw bytes into format information and tags.
type TagReader interface {
	Parse(data []byte, mimeType string, size int64) (*FormatInfo, *Tags, error)
}

// ErrUnrecognized is returned (wrapped in a ParseError) when no container reader
// recognises the buffer as audio.
var ErrUnrecognized = errors.New("unrecognized audio container")

// ParseError reports that a buffer could not be interpreted as audio.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(reason string, err error) *ParseError {
	return &ParseError{Reason: reason, Err: err}
}

// IsParseError reports whether err carries a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func stringPtr(v string) *string  { return &v }

// String renders the format for debug logs.
func (f *FormatInfo) String() string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("container=%s codec=%s duration=%s rate=%s channels=%s bitrate=%s",
		deref(f.Container), deref(f.Codec), derefFloat(f.Duration),
		derefInt(f.SampleRate), derefInt(f.Channels), derefFloat(f.Bitrate))
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func derefInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func derefFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}
