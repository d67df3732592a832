// Package api maps errors from the analysis pipeline onto HTTP responses.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FuadModaresi/music-analysis/internal/analysis"
	"github.com/FuadModaresi/music-analysis/internal/audio"
	apperrors "github.com/FuadModaresi/music-analysis/internal/errors"
	"github.com/FuadModaresi/music-analysis/internal/logger"
)

// AsAnalysisError classifies err. Nil stays nil.
func AsAnalysisError(err error) *apperrors.AnalysisError {
	if err == nil {
		return nil
	}

	var ae *apperrors.AnalysisError
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, analysis.ErrNoUpload):
		return apperrors.NewMissingFileError()
	case audio.IsParseError(err):
		return apperrors.NewParseError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

// RespondWithError sends the error envelope for err and aborts the chain.
func RespondWithError(c *gin.Context, err error) {
	ae := AsAnalysisError(err)
	if ae == nil {
		return
	}
	ae.ToGinResponse(c)
	c.Abort()
}

// ErrorMiddleware recovers from panics in later handlers and answers with the
// generic 500 envelope. The panic value is logged, never sent.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}

			var err error
			switch v := r.(type) {
			case error:
				err = v
			case string:
				err = errors.New(v)
			default:
				err = fmt.Errorf("unknown panic: %v", v)
			}

			logger.Error("panic recovered",
				"error", err,
				"request_id", c.GetString("request_id"),
				"request_path", c.Request.URL.Path,
				"request_method", c.Request.Method,
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			ae := apperrors.NewInternalError(err)
			ae.Details = "unexpected server error"
			RespondWithError(c, ae)
		}()

		c.Next()
	}
}
