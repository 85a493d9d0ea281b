package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lovstudio/lovcode/backend/internal/domain/workspace"
	"github.com/lovstudio/lovcode/backend/internal/infrastructure/tracing"
	"github.com/lovstudio/lovcode/backend/internal/providers/terminal"
)

var errInvalidRequest = errors.New("invalid request")

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrNotFound),
		errors.Is(err, terminal.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrAlreadyExists),
		errors.Is(err, terminal.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, workspace.ErrInvalid),
		errors.Is(err, workspace.ErrNoActiveFeature),
		errors.Is(err, terminal.ErrInvalidSession):
		return http.StatusBadRequest
	case errors.Is(err, terminal.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": msg} with the status matching err.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		ctx := c.Request.Context()
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("trace", tracing.FormatTrace(tracing.GetTraceID(ctx), tracing.GetSpanID(ctx))),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
