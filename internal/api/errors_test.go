package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FuadModaresi/music-analysis/internal/analysis"
	"github.com/FuadModaresi/music-analysis/internal/audio"
	"github.com/FuadModaresi/music-analysis/internal/audio/audiotest"
	apperrors "github.com/FuadModaresi/music-analysis/internal/errors"
	"github.com/FuadModaresi/music-analysis/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAsAnalysisError(t *testing.T) {
	_, _, parseErr := audio.NewReader(logger.Default()).Parse(audiotest.NotAudio(), "text/plain", 9)
	require.Error(t, parseErr)

	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"missing multipart file", http.ErrMissingFile, apperrors.CodeMissingFile, http.StatusBadRequest},
		{"no upload", fmt.Errorf("handler: %w", analysis.ErrNoUpload), apperrors.CodeMissingFile, http.StatusBadRequest},
		{"parse error", parseErr, apperrors.CodeParseFailed, http.StatusInternalServerError},
		{"already classified", apperrors.NewMissingFileError(), apperrors.CodeMissingFile, http.StatusBadRequest},
		{"anything else", errors.New("disk full"), apperrors.CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := AsAnalysisError(tt.err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.code, ae.Code)
			assert.Equal(t, tt.status, ae.HTTPStatus)
		})
	}

	assert.Nil(t, AsAnalysisError(nil))
}

func TestRespondWithError(t *testing.T) {
	r := gin.New()
	r.GET("/parse", func(c *gin.Context) {
		RespondWithError(c, errors.New("read failed"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/parse", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to process audio file. Please try again.","details":"read failed"}`, w.Body.String())
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	r := gin.New()
	r.Use(ErrorMiddleware())
	r.GET("/boom", func(c *gin.Context) {
		panic("secret internals")
	})
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "fine")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to process audio file. Please try again.","details":"unexpected server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret internals")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fine", w.Body.String())
}
