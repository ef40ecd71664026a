// Package handlers implements the gin handlers of the planning API.
package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/syclop/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps err to its HTTP status.  Server-side failures are masked.
func writeAppError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	if status >= http.StatusInternalServerError {
		c.JSON(status, ErrorResponse{Code: code.String(), Message: errors.DefaultMessageForCode(code)})
		return
	}

	resp := ErrorResponse{Code: code.String(), Message: err.Error()}
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	}
	c.JSON(status, resp)
}

// badRequest writes a 400 for malformed input.
func badRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{Code: errors.CodeInvalidParam.String(), Message: message}
	if err != nil {
		resp.Detail = err.Error()
		_ = c.Error(err)
	}
	c.JSON(http.StatusBadRequest, resp)
}
