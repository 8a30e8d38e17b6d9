package api

import (
	"net/http"

	apperrors "primoboost-workers/internal/common/errors"

	"github.com/gin-gonic/gin"
)

// errorBody renders err as {error, code, details?, debug?}. Details of 5xx
// errors stay in the logs since they carry store and upstream messages.
func errorBody(stdErr *apperrors.StandardError) gin.H {
	body := gin.H{
		"error": stdErr.Message,
		"code":  string(stdErr.Code),
	}
	if stdErr.Details != "" && apperrors.HTTPStatus(stdErr.Code) < http.StatusInternalServerError {
		body["details"] = stdErr.Details
	}
	if debug, ok := stdErr.Metadata["debug"]; ok {
		body["debug"] = debug
	}
	return body
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	s.abortWithBody(c, err, nil)
}

// abortWithBody renders err and merges extra into the body.
func (s *Server) abortWithBody(c *gin.Context, err error, extra gin.H) {
	stdErr := apperrors.As(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"route":     c.FullPath(),
		"code":      string(stdErr.Code),
		"requestId": c.GetString(requestIDKey),
		"error":     err.Error(),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields)
	} else {
		s.logger.Debug("request rejected", fields)
	}

	body := errorBody(stdErr)
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

func invalidBody(err error) *apperrors.StandardError {
	return apperrors.NewValidationError("Invalid request body", err.Error())
}
