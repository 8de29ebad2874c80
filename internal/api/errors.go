package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ginjaninja78/inventory-matcher/internal/resolver"
)

// APIError represents a structured error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeMissingColumn = "missing_column"
	ErrCodeTooLarge      = "too_large"
	ErrCodeRateLimited   = "rate_limited"
	ErrCodeInternalError = "internal_error"
)

// writeError aborts the request with an error body.
func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, APIError{Code: code, Message: message})
}

// writeRunError maps a reconciliation error to a response.
func writeRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, resolver.ErrMissingColumn):
		writeError(c, http.StatusUnprocessableEntity, ErrCodeMissingColumn, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, ErrCodeInternalError, "an internal error occurred")
	}
}
