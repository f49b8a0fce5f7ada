package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"afriotv/internal/docpath"
	"afriotv/internal/docstore"
	"afriotv/internal/genai"
	"afriotv/internal/microservices/http-api/service"
	"afriotv/internal/storage"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes.
func respondError(c *gin.Context, err error) {
	var denied *docstore.DeniedError
	if errors.As(err, &denied) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "permission denied",
			"path":      denied.Path,
			"operation": denied.Operation,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrContentNotFound), errors.Is(err, service.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, docpath.ErrInvalidPath):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrEmailInUse):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrExpiredToken),
		errors.Is(err, service.ErrUnknownState),
		errors.Is(err, service.ErrEmailNotVerified):
		status = http.StatusUnauthorized
	case errors.Is(err, storage.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrNotImage):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, genai.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, service.ErrStorageDisabled),
		errors.Is(err, service.ErrOAuthDisabled),
		errors.Is(err, genai.ErrDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		slog.Error("request_failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
