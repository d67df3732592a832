package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/FuadModaresi/music-analysis/internal/analysis"
	"github.com/FuadModaresi/music-analysis/internal/api"
	"github.com/FuadModaresi/music-analysis/internal/audio"
	"github.com/FuadModaresi/music-analysis/internal/utils"
)

// UploadField is the multipart field carrying the audio file.
const UploadField = "musicFile"

// ErrUploadNotFile is returned when UploadField arrives as a plain text
// field. It is not a missing upload: the client sent something unreadable.
var ErrUploadNotFile = errors.New("upload field is not a file")

// Analyzer runs the analysis pipeline for one upload.
type Analyzer interface {
	Analyze(ctx context.Context, upload *audio.UploadedAudio) (*analysis.Result, error)
}

// AnalyzeHandler serves the upload endpoints.
type AnalyzeHandler struct {
	analyzer Analyzer
	logger   hclog.Logger
}

// NewAnalyzeHandler creates a handler backed by analyzer.
func NewAnalyzeHandler(analyzer Analyzer, logger hclog.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &AnalyzeHandler{
		analyzer: analyzer,
		logger:   logger.Named("analyze"),
	}
}

// AnalyzeAudio returns the analysis result as JSON.
func (h *AnalyzeHandler) AnalyzeAudio(c *gin.Context) {
	result, ok := h.analyze(c)
	if !ok {
		return
	}
	h.stage(c, analysis.StageResponding, "format", "json")
	c.JSON(http.StatusOK, result)
	h.stage(c, analysis.StageDone)
}

// AnalyzeAudioMIDI returns the generated notes as a Standard MIDI File.
func (h *AnalyzeHandler) AnalyzeAudioMIDI(c *gin.Context) {
	result, ok := h.analyze(c)
	if !ok {
		return
	}

	h.stage(c, analysis.StageResponding, "format", "midi")
	var buf bytes.Buffer
	if err := analysis.WriteMIDI(&buf, result.Notes); err != nil {
		h.stage(c, analysis.StageFailed, "from", analysis.StageResponding, "error", err)
		api.RespondWithError(c, fmt.Errorf("encoding MIDI: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, midiFilename(c)))
	c.Data(http.StatusOK, utils.MIDIContentType, buf.Bytes())
	h.stage(c, analysis.StageDone)
}

// stage logs a request state change. The parsing and formatting stages are
// logged by the analysis service.
func (h *AnalyzeHandler) stage(c *gin.Context, s analysis.Stage, args ...interface{}) {
	fields := append([]interface{}{"stage", s, "request_id", c.GetString("request_id")}, args...)
	if s == analysis.StageFailed {
		h.logger.Debug("stage", fields...)
		return
	}
	h.logger.Trace("stage", fields...)
}

// analyze reads the upload and runs the pipeline. On failure the error
// envelope has already been written.
func (h *AnalyzeHandler) analyze(c *gin.Context) (*analysis.Result, bool) {
	defer func() {
		if form := c.Request.MultipartForm; form != nil {
			_ = form.RemoveAll()
		}
	}()

	h.stage(c, analysis.StageAwaitingUpload)
	upload, err := readUpload(c)
	if err != nil {
		h.stage(c, analysis.StageFailed, "from", analysis.StageAwaitingUpload, "error", err)
		api.RespondWithError(c, err)
		return nil, false
	}
	h.stage(c, analysis.StageValidating, "size", upload.Size, "mime_type", upload.MIMEType)

	if h.logger.IsDebug() {
		h.logger.Debug("upload received",
			"filename", upload.Filename,
			"size", upload.Size,
			"mime_type", upload.MIMEType,
			"sha256", utils.TruncateHash(utils.ContentHash(upload.Data), 12),
			"request_id", c.GetString("request_id"))
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), upload)
	if err != nil {
		api.RespondWithError(c, err)
		return nil, false
	}
	return result, true
}

func readUpload(c *gin.Context) (*audio.UploadedAudio, error) {
	header, err := c.FormFile(UploadField)
	if errors.Is(err, http.ErrMissingFile) {
		if _, isText := c.GetPostForm(UploadField); isText {
			return nil, fmt.Errorf("%w: %s", ErrUploadNotFile, UploadField)
		}
	}
	if err != nil {
		return nil, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	return &audio.UploadedAudio{
		Data:     data,
		MIMEType: utils.DeclaredContentType(header.Header.Get("Content-Type"), header.Filename),
		Size:     header.Size,
		Filename: header.Filename,
	}, nil
}

func midiFilename(c *gin.Context) string {
	name := "notes"
	if form := c.Request.MultipartForm; form != nil {
		if files := form.File[UploadField]; len(files) > 0 {
			base := filepath.Base(files[0].Filename)
			base = strings.TrimSuffix(base, filepath.Ext(base))
			base = strings.Map(func(r rune) rune {
				if r == '"' || r == '\\' || r < 0x20 {
					return -1
				}
				return r
			}, base)
			if base != "" && base != "." {
				name = base
			}
		}
	}
	return name + ".mid"
}
