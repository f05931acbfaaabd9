package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/playground/core"
)

// Twirp error codes
const (
	CodeInvalidArgument    = "invalid_argument"
	CodeMalformed          = "malformed"
	CodeUnauthenticated    = "unauthenticated"
	CodeFailedPrecondition = "failed_precondition"
	CodeInternal           = "internal"
	CodeBadRoute           = "bad_route"
)

// ErrorResponse is the twirp JSON error body
type ErrorResponse struct {
	Code string            `json:"code"`
	Msg  string            `json:"msg"`
	Meta map[string]string `json:"meta,omitempty"`
}

// statusOf maps an error class to a twirp code and HTTP status
func statusOf(kind core.Kind) (string, int) {
	switch kind {
	case core.KindValidation, core.KindVerification:
		return CodeInvalidArgument, http.StatusBadRequest
	case core.KindAuth:
		return CodeUnauthenticated, http.StatusUnauthorized
	case core.KindPrecondition:
		return CodeFailedPrecondition, http.StatusPreconditionFailed
	default:
		return CodeInternal, http.StatusInternalServerError
	}
}

// writeError aborts the request with err mapped to a twirp error
func writeError(c *gin.Context, err error) {
	code, status := statusOf(core.KindOf(err))

	resp := ErrorResponse{Code: code, Msg: err.Error()}
	var e *core.Error
	if errors.As(err, &e) && len(e.Meta) > 0 {
		resp.Meta = e.Meta
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}
