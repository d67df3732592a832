package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FuadModaresi/music-analysis/internal/analysis"
	"github.com/FuadModaresi/music-analysis/internal/audio"
)

type stubAnalyzer struct {
	calls int
}

func (s *stubAnalyzer) Analyze(context.Context, *audio.UploadedAudio) (*analysis.Result, error) {
	s.calls++
	return analysis.BuildResult(&audio.FormatInfo{}, &audio.Tags{}, nil), nil
}

func traceHandler(t *testing.T) (*AnalyzeHandler, *stubAnalyzer, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	stub := &stubAnalyzer{}
	log := hclog.New(&hclog.LoggerOptions{Level: hclog.Trace, Output: &logs})
	return NewAnalyzeHandler(stub, log), stub, &logs
}

func formRequest(t *testing.T, build func(*multipart.Writer)) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	build(mw)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/analyze-audio", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalyzeAudioLogsStages(t *testing.T) {
	h, stub, logs := traceHandler(t)
	r := gin.New()
	r.POST("/analyze-audio", h.AnalyzeAudio)

	req := formRequest(t, func(mw *multipart.Writer) {
		fw, err := mw.CreateFormFile(UploadField, "a.wav")
		require.NoError(t, err)
		_, err = fw.Write([]byte("RIFF"))
		require.NoError(t, err)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.calls)

	out := logs.String()
	last := -1
	for _, stage := range []analysis.Stage{
		analysis.StageAwaitingUpload,
		analysis.StageValidating,
		analysis.StageResponding,
		analysis.StageDone,
	} {
		idx := strings.Index(out, "stage="+string(stage))
		require.GreaterOrEqual(t, idx, 0, "stage %s not logged", stage)
		assert.Greater(t, idx, last, "stage %s out of order", stage)
		last = idx
	}
}

func TestAnalyzeAudioTextFieldIsNotAnUpload(t *testing.T) {
	h, stub, logs := traceHandler(t)
	r := gin.New()
	r.POST("/analyze-audio", h.AnalyzeAudio)

	req := formRequest(t, func(mw *multipart.Writer) {
		require.NoError(t, mw.WriteField(UploadField, "song.mp3"))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), ErrUploadNotFile.Error())
	assert.Zero(t, stub.calls)
	assert.Contains(t, logs.String(), "stage="+string(analysis.StageFailed))
}
