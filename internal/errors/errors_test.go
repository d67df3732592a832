package errors

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respond(e *AnalysisError) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/analyze-audio", nil)
	e.ToGinResponse(c)
	return w
}

func TestMissingFileResponse(t *testing.T) {
	w := respond(NewMissingFileError())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `{"error":"No file provided"}`, w.Body.String())
}

func TestParseErrorResponse(t *testing.T) {
	cause := stderrors.New("unexpected EOF")
	err := NewParseError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to process audio file. Please try again.: unexpected EOF", err.Error())

	w := respond(err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to process audio file. Please try again.","details":"unexpected EOF"}`, w.Body.String())
}

func TestInternalErrorWithoutCause(t *testing.T) {
	err := NewInternalError(nil)
	assert.Equal(t, "unknown error", err.Details)
	assert.Equal(t, processFailedMessage, err.Error())

	w := respond(&AnalysisError{Message: "boom"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestInternalErrorResponse(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewInternalError(cause)

	assert.Equal(t, CodeInternal, err.Code)
	assert.ErrorIs(t, err, cause)

	w := respond(err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to process audio file. Please try again.","details":"disk full"}`, w.Body.String())
}
