package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
)

// loadEvent fetches one event by id under the store lock, returning a
// detached copy.
func (s *Server) loadEvent(c *gin.Context, eventID string) (*models.Event, error) {
	var out *models.Event
	err := s.store.WithLock(c.Request.Context(), func(db *store.Database) error {
		e := db.FindEventByID(eventID)
		if e == nil {
			return store.ErrEventNotFound
		}
		copied := *e
		out = &copied
		return nil
	})
	return out, err
}

// getEventHandler handles GET /api/v1/events/:id.
func (s *Server) getEventHandler(c *gin.Context) {
	event, err := s.loadEvent(c, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// eventTraceHandler handles GET /api/v1/events/:id/trace. The raw trace
// rows back the debug surface; they live in memory and reset with the
// process.
func (s *Server) eventTraceHandler(c *gin.Context) {
	event, err := s.loadEvent(c, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &TraceResponse{
		EventID:  event.EventID,
		ThreadID: event.ThreadID,
		Entries:  s.router.Trace().Entries(event.ThreadID),
	})
}

// eventActivityHandler handles GET /api/v1/events/:id/activity: the
// trace reduced to the human-readable items the activity surface shows.
func (s *Server) eventActivityHandler(c *gin.Context) {
	event, err := s.loadEvent(c, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &ActivityResponse{
		EventID:  event.EventID,
		ThreadID: event.ThreadID,
		Items:    s.router.Trace().ActivityView(event.ThreadID),
	})
}
