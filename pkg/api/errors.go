package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/workflow"
)

// ErrorResponse is the JSON envelope for every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// badPatchError marks a config patch that cannot apply to the settings
// document. The client sent it, so it maps to 400.
type badPatchError struct {
	err error
}

func (e *badPatchError) Error() string {
	return "invalid config patch: " + e.err.Error()
}

// mapServiceError maps service-layer errors to an HTTP status and a
// client-safe message.
func mapServiceError(err error) (int, string) {
	var patchErr *badPatchError
	switch {
	case errors.As(err, &patchErr):
		return http.StatusBadRequest, patchErr.Error()
	case errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound, "task not found"
	case errors.Is(err, store.ErrEventNotFound):
		return http.StatusNotFound, "event not found"
	case errors.Is(err, hil.ErrTaskNotPending):
		return http.StatusConflict, "task is not pending"
	case errors.Is(err, workflow.ErrEmptyMessage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrLockNotAcquired):
		return http.StatusServiceUnavailable, "store is busy, retry shortly"
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return http.StatusInternalServerError, "internal server error"
}

// abortWithError writes the mapped envelope and stops the chain.
func abortWithError(c *gin.Context, err error) {
	status, msg := mapServiceError(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}
