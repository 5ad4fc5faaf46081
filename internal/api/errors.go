package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "procedure-assistant/internal/common/errors"
)

type errorBody struct {
	Message  string                 `json:"message"`
	Code     apperrors.ErrorCode    `json:"code"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// errorResponse maps err to a status and body. Internal errors never expose
// their details.
func errorResponse(err error) (int, errorBody) {
	stdErr := apperrors.AsStandardError(err)
	status := apperrors.HTTPStatus(stdErr.Code)
	body := errorBody{Message: stdErr.Message, Code: stdErr.Code, Metadata: stdErr.Metadata}
	if status == http.StatusInternalServerError {
		body.Message = "Internal server error"
		body.Metadata = nil
	}
	return status, body
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
	}
	c.AbortWithStatusJSON(status, body)
}
