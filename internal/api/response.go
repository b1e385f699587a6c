package api

import (
	"errors"
	"net/http"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/service"
	"github.com/gin-gonic/gin"
)

// Response is the uniform wire envelope. Failures are reported in-body
// with success:false over an HTTP 200; there is no separate error-code
// taxonomy on the wire.
type Response struct {
	Success          bool        `json:"success"`
	Data             interface{} `json:"data,omitempty"`
	Error            string      `json:"error,omitempty"`
	RequiresHoursLog bool        `json:"requiresHoursLog,omitempty"`
}

// Success writes a successful envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Fail writes a failed envelope with a human-readable message.
func Fail(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{
		Success: false,
		Error:   message,
	})
}

// FailHoursGate writes a failed envelope carrying the machine-readable
// requiresHoursLog flag, so clients can prompt for hours and retry.
func FailHoursGate(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{
		Success:          false,
		Error:            message,
		RequiresHoursLog: true,
	})
}

// HandleServiceError translates a service-layer error into the envelope,
// localizing domain errors and masking infrastructure ones.
func HandleServiceError(c *gin.Context, err error) {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		Fail(c, T(c, validation.MessageKey))
		return
	}

	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		Fail(c, T(c, notFound.MessageKey))
		return
	}

	var permission *service.PermissionError
	if errors.As(err, &permission) {
		Fail(c, T(c, permission.MessageKey))
		return
	}

	var hoursGate *service.HoursGateError
	if errors.As(err, &hoursGate) {
		FailHoursGate(c, T(c, hoursGate.MessageKey))
		return
	}

	GetLogger().WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	Fail(c, T(c, "error.internal_error"))
}
