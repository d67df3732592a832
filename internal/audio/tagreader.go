package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dhowden/tag"
	"github.com/hashicorp/go-hclog"
)

// Reader is the default TagReader. Tags come from dhowden/tag, technical
// information from a per-container reader, and ffprobe optionally fills
// whatever the Go readers could not.
type Reader struct {
	logger     hclog.Logger
	inspectors map[containerKind]inspectFunc
	ffprobe    *FFProbe
}

// Option configures a Reader.
type Option func(*Reader)

// WithFFProbe enables the external ffprobe fallback.
func WithFFProbe(p *FFProbe) Option {
	return func(r *Reader) {
		r.ffprobe = p
	}
}

// NewReader creates a tag reader with the built-in container inspectors.
func NewReader(logger hclog.Logger, opts ...Option) *Reader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	r := &Reader{
		logger: logger.Named("tagreader"),
		inspectors: map[containerKind]inspectFunc{
			kindWAV:  inspectWAV,
			kindMP3:  inspectMP3,
			kindFLAC: inspectFLAC,
			kindOgg:  inspectOgg,
			kindMP4:  inspectMP4,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Parse implements TagReader.
func (r *Reader) Parse(data []byte, mimeType string, size int64) (*FormatInfo, *Tags, error) {
	if len(data) == 0 {
		return nil, nil, newParseError("empty audio buffer", nil)
	}

	tags, fileType, tagErr := readTags(data)
	tagsFound := tagErr == nil
	if tagErr != nil && !errors.Is(tagErr, tag.ErrNoTagsFound) {
		r.logger.Debug("tag read failed", "mime_type", mimeType, "error", tagErr)
	}

	kind := sniff(data)
	if kind == kindUnknown && tagsFound {
		kind = kindFromFileType(fileType)
	}

	r.logger.Trace("parsing upload", "kind", kind, "mime_type", mimeType, "size", size, "tags", tagsFound)

	format := &FormatInfo{}
	var inspectErr error
	inspect, hasInspector := r.inspectors[kind]
	if hasInspector {
		if err := safely(func() error {
			var err error
			format, err = inspect(data)
			return err
		}); err != nil {
			inspectErr = err
			format = &FormatInfo{}
			r.logger.Debug("container inspection failed", "kind", kind, "error", err)
		}
	}

	switch {
	// dhowden/tag reads any ISO-BMFF file without error, so tags never
	// vouch for an MP4 whose track layout could not be read.
	case kind == kindMP4 && inspectErr != nil:
		if ok := r.fillFromFFProbe(format, data); ok {
			return format, tags, nil
		}
		if errors.Is(inspectErr, errNoAudioTrack) {
			return nil, nil, newParseError("buffer is not audio", inspectErr)
		}
		return nil, nil, newParseError("corrupt or truncated mp4 stream", inspectErr)
	case kind == kindUnknown && !tagsFound:
		if ok := r.fillFromFFProbe(format, data); ok {
			return format, tags, nil
		}
		return nil, nil, newParseError("buffer is not audio", ErrUnrecognized)
	case hasInspector && inspectErr != nil && !tagsFound:
		if ok := r.fillFromFFProbe(format, data); ok {
			return format, tags, nil
		}
		return nil, nil, newParseError(fmt.Sprintf("corrupt or truncated %s stream", kind), inspectErr)
	case !hasInspector && tagErr != nil && !errors.Is(tagErr, tag.ErrNoTagsFound):
		return nil, nil, newParseError(fmt.Sprintf("corrupt %s container", kind), tagErr)
	}

	applyKindDefaults(format, kind)
	if format.Duration == nil {
		r.fillFromFFProbe(format, data)
	}
	return format, tags, nil
}

func (r *Reader) fillFromFFProbe(format *FormatInfo, data []byte) bool {
	if r.ffprobe == nil || !r.ffprobe.Available() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.ffprobe.Timeout)
	defer cancel()

	external, err := r.ffprobe.Probe(ctx, data)
	if err != nil {
		r.logger.Debug("ffprobe fallback failed", "error", err)
		return false
	}
	mergeFormat(format, external)
	return true
}

// readTags extracts common tags. A buffer without tags yields an empty Tags
// value together with tag.ErrNoTagsFound.
func readTags(data []byte) (tags *Tags, fileType tag.FileType, err error) {
	tags = &Tags{}
	var md tag.Metadata
	if err = safely(func() error {
		var readErr error
		md, readErr = tag.ReadFrom(bytes.NewReader(data))
		return readErr
	}); err != nil {
		return tags, tag.UnknownFileType, err
	}

	if v := cleanString(md.Title()); v != "" {
		tags.Title = &v
	}
	if v := cleanString(md.Artist()); v != "" {
		tags.Artist = &v
	}
	if v := cleanString(md.Album()); v != "" {
		tags.Album = &v
	}
	if y := md.Year(); y != 0 {
		tags.Year = &y
	}
	tags.Genre = splitGenre(md.Genre())
	return tags, md.FileType(), nil
}

// splitGenre splits multi-valued genre tags, keeping source order.
func splitGenre(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == 0
	})
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := cleanString(p); g != "" {
			genres = append(genres, g)
		}
	}
	if len(genres) == 0 {
		return nil
	}
	return genres
}

// cleanString strips surrounding whitespace and the NUL padding some taggers
// leave behind. Interior spacing is part of the value and is kept.
func cleanString(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	})
}

// mergeFormat copies fields from src that are absent in dst.
func mergeFormat(dst, src *FormatInfo) {
	if src == nil {
		return
	}
	if dst.Duration == nil {
		dst.Duration = src.Duration
	}
	if dst.SampleRate == nil {
		dst.SampleRate = src.SampleRate
	}
	if dst.Channels == nil {
		dst.Channels = src.Channels
	}
	if dst.Bitrate == nil {
		dst.Bitrate = src.Bitrate
	}
	if dst.Container == nil {
		dst.Container = src.Container
	}
	if dst.Codec == nil {
		dst.Codec = src.Codec
	}
}

// safely runs fn and turns a panic inside a third-party decoder into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = fmt.Errorf("decoder panic: %w", v)
			default:
				err = fmt.Errorf("decoder panic: %v", v)
			}
		}
	}()
	return fn()
}
