package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

// Envelope is the common response contract: data on success, error otherwise.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}, meta ...map[string]interface{}) {
	JSON(c, http.StatusOK, data, meta...)
}

// Accepted responds with HTTP 202 for queued work.
func Accepted(c *gin.Context, data interface{}) {
	JSON(c, http.StatusAccepted, data)
}

// Error converts err to the common structure and records it on the gin context for request logging.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}
