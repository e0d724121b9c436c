package api

import (
	"encoding/json"
	"io"
	"net/http"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/gin-gonic/gin"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
)

// getConfigHandler handles GET /api/v1/config: the runtime settings as
// persisted, including the current config_version.
func (s *Server) getConfigHandler(c *gin.Context) {
	var settings models.Settings
	err := s.store.WithLock(c.Request.Context(), func(db *store.Database) error {
		settings = db.LoadSettings()
		return nil
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// patchConfigHandler handles PATCH /api/v1/config. The body is an RFC
// 7386 merge patch against the current settings document; provided
// fields override, absent fields keep their value. Saving bumps
// config_version, which invalidates cached provider routing on the next
// message cycle.
func (s *Server) patchConfigHandler(c *gin.Context) {
	patch, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable request body"})
		return
	}
	if len(patch) == 0 || !json.Valid(patch) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "body must be a JSON merge patch"})
		return
	}

	var updated models.Settings
	err = s.store.WithLock(c.Request.Context(), func(db *store.Database) error {
		current, err := json.Marshal(db.LoadSettings())
		if err != nil {
			return err
		}
		merged, err := jsonpatch.MergePatch(current, patch)
		if err != nil {
			return &badPatchError{err: err}
		}
		var next models.Settings
		if err := json.Unmarshal(merged, &next); err != nil {
			return &badPatchError{err: err}
		}
		db.SaveSettings(next)
		updated = db.LoadSettings()
		return nil
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	s.logger.Info("runtime settings patched", "config_version", updated.ConfigVersion)
	c.JSON(http.StatusOK, updated)
}
