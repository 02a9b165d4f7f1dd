package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderdash/backend/internal/domain/orders"
	"github.com/orderdash/backend/internal/domain/syncstate"
	"github.com/orderdash/backend/internal/infrastructure/logger"
	"github.com/orderdash/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with list meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total, limit int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, limit))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := errorCode(err)
	status := dto.GetHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
	}
	h.Error(c, status, code, err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, syncstate.ErrInvalidSyncType):
		return dto.ErrCodeBadRequest
	case errors.Is(err, syncstate.ErrSyncInProgress):
		return dto.ErrCodeSyncInProgress
	case errors.Is(err, syncstate.ErrAuthenticationFailed):
		return dto.ErrCodeUpstreamAuth
	case errors.Is(err, syncstate.ErrRateLimited):
		return dto.ErrCodeRateLimited
	case errors.Is(err, syncstate.ErrFetchFailed):
		return dto.ErrCodeUpstreamFetch
	case errors.Is(err, syncstate.ErrCheckpointNotFound),
		errors.Is(err, syncstate.ErrConnectionNotFound):
		return dto.ErrCodeNotFound
	case errors.Is(err, orders.ErrOrderExists):
		return dto.ErrCodeConflict
	case errors.Is(err, orders.ErrMissingIdentity):
		return dto.ErrCodeValidation
	default:
		return dto.ErrCodeInternal
	}
}
