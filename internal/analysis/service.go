package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/FuadModaresi/music-analysis/internal/audio"
	"github.com/hashicorp/go-hclog"
)

// Stage names a step of a single analysis request. Failed is reachable
// from every other stage.
type Stage string

const (
	StageAwaitingUpload Stage = "awaiting_upload"
	StageValidating     Stage = "validating"
	StageParsing        Stage = "parsing"
	StageFormatting     Stage = "formatting"
	StageResponding     Stage = "responding"
	StageDone           Stage = "done"
	StageFailed         Stage = "failed"
)

// ErrNoUpload is returned when Analyze is called without audio.
var ErrNoUpload = errors.New("no upload")

// Settings are the reloadable knobs of a Service.
type Settings struct {
	NoteMode       Mode
	NoteSeed       uint64 // 0 means unseeded
	WaveformPoints int    // 0 disables the preview
}

type serviceState struct {
	settings Settings
	notes    *NoteGenerator
}

// Service runs the Tag Reader, formatter and note generator for one upload
// at a time. It holds no per-request state.
type Service struct {
	reader audio.TagReader
	logger hclog.Logger
	state  atomic.Pointer[serviceState]
}

// NewService creates a Service using reader for metadata extraction.
func NewService(reader audio.TagReader, settings Settings, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Service{
		reader: reader,
		logger: logger.Named("analysis"),
	}
	s.ApplySettings(settings)
	return s
}

// ApplySettings swaps the active settings. Requests already running keep
// the settings they started with.
func (s *Service) ApplySettings(settings Settings) {
	if settings.NoteMode == "" {
		settings.NoteMode = ModeRandom
	}
	var opts []GeneratorOption
	if settings.NoteSeed != 0 {
		opts = append(opts, WithSource(NewSeededSource(settings.NoteSeed)))
	}
	s.state.Store(&serviceState{
		settings: settings,
		notes:    NewNoteGenerator(settings.NoteMode, opts...),
	})
	s.logger.Debug("settings applied",
		"note_mode", settings.NoteMode,
		"seeded", settings.NoteSeed != 0,
		"waveform_points", settings.WaveformPoints)
}

// Settings returns the active settings.
func (s *Service) Settings() Settings {
	return s.state.Load().settings
}

// Analyze parses the upload and builds its result. Tag Reader failures are
// returned unchanged so callers can match *audio.ParseError.
func (s *Service) Analyze(ctx context.Context, upload *audio.UploadedAudio) (*Result, error) {
	if upload == nil {
		return nil, ErrNoUpload
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := s.state.Load()
	log := s.logger.With("filename", upload.Filename, "size", upload.Size)
	started := time.Now()

	log.Trace("stage", "stage", StageParsing, "mime_type", upload.MIMEType)
	format, tags, err := s.reader.Parse(upload.Data, upload.MIMEType, upload.Size)
	if err != nil {
		log.Debug("stage", "stage", StageFailed, "from", StageParsing, "error", err)
		return nil, err
	}
	if format == nil {
		format = &audio.FormatInfo{}
	}
	log.Trace("stage", "stage", StageFormatting, "format", format.String())

	result, err := s.format(format, tags, st.notes)
	if err != nil {
		log.Error("stage", "stage", StageFailed, "from", StageFormatting, "error", err)
		return nil, err
	}

	if st.settings.WaveformPoints > 0 {
		peaks, werr := audio.Waveform(upload.Data, st.settings.WaveformPoints)
		switch {
		case werr != nil:
			log.Debug("waveform skipped", "error", werr)
		case len(peaks) > 0:
			result.Waveform = peaks
		}
	}

	log.Debug("analysis complete",
		"notes", len(result.Notes),
		"container", optString(format.Container),
		"duration_ms", time.Since(started).Milliseconds())
	return result, nil
}

// format runs the formatter and note generator, converting a panic in
// either into an error.
func (s *Service) format(format *audio.FormatInfo, tags *audio.Tags, gen *NoteGenerator) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formatting result: %v", r)
		}
	}()

	notes := gen.Generate(noteDuration(format.Duration))
	return BuildResult(format, tags, notes), nil
}

// noteDuration treats NaN as absent.
func noteDuration(d *float64) *float64 {
	if d == nil || math.IsNaN(*d) {
		return nil
	}
	return d
}
