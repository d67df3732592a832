// Package errors defines the errors that reach the HTTP surface and how they
// are rendered as JSON.
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FuadModaresi/music-analysis/internal/logger"
)

// Error codes. They are logged but never written to the wire.
const (
	CodeMissingFile = "MISSING_FILE"
	CodeParseFailed = "PARSE_FAILED"
	CodeInternal    = "INTERNAL_ERROR"
)

const (
	missingFileMessage   = "No file provided"
	processFailedMessage = "Failed to process audio file. Please try again."
)

// AnalysisError is an error with an HTTP status and a client-facing message.
type AnalysisError struct {
	Code       string
	Message    string
	Details    string
	HTTPStatus int
	Cause      error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// ToGinResponse writes the error envelope. Only "error" and, when set,
// "details" are sent.
func (e *AnalysisError) ToGinResponse(c *gin.Context) {
	statusCode := e.HTTPStatus
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}

	response := gin.H{"error": e.Message}
	if e.Details != "" {
		response["details"] = e.Details
	}

	fields := []interface{}{
		"status", statusCode,
		"code", e.Code,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"request_id", c.GetString("request_id"),
	}
	if e.Cause != nil {
		fields = append(fields, "cause", e.Cause.Error())
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP error response", fields...)
	} else {
		logger.Warn("HTTP error response", fields...)
	}

	c.JSON(statusCode, response)
}

// NewMissingFileError is returned when the upload has no file field.
func NewMissingFileError() *AnalysisError {
	return &AnalysisError{
		Code:       CodeMissingFile,
		Message:    missingFileMessage,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewParseError wraps a failure to read the uploaded audio.
func NewParseError(cause error) *AnalysisError {
	return &AnalysisError{
		Code:       CodeParseFailed,
		Message:    processFailedMessage,
		Details:    causeMessage(cause),
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewInternalError wraps any other failure while handling an upload.
func NewInternalError(cause error) *AnalysisError {
	return &AnalysisError{
		Code:       CodeInternal,
		Message:    processFailedMessage,
		Details:    causeMessage(cause),
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func causeMessage(cause error) string {
	if cause == nil {
		return "unknown error"
	}
	return cause.Error()
}
