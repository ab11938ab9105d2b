package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var validation *domain.ValidationError
	var media *domain.MediaGenerationError
	var provider *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &media), errors.As(err, &provider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as JSON with its mapped status.
func abortWithError(c *gin.Context, err error, action string) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}
	var media *domain.MediaGenerationError
	if errors.As(err, &media) {
		resp.Stage = media.Stage
	}

	if status >= http.StatusInternalServerError {
		logger.CtxError(c.Request.Context(), "%s failed: status=%d, error=%v", action, status, err)
	} else {
		logger.CtxWarn(c.Request.Context(), "%s rejected: status=%d, error=%v", action, status, err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}
