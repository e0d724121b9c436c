package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// extractReviewer resolves the acting reviewer for a task decision.
// Priority: request body > X-Forwarded-User (oauth2-proxy) >
// X-Forwarded-Email (oauth2-proxy) > X-Remote-User (kube-rbac-proxy) >
// "api-client"
func extractReviewer(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if user := c.Request.Header.Get("X-Forwarded-User"); user != "" {
		return user
	}
	if email := c.Request.Header.Get("X-Forwarded-Email"); email != "" {
		return email
	}
	if user := c.Request.Header.Get("X-Remote-User"); user != "" {
		return user
	}
	return "api-client"
}

// listTasksHandler handles GET /api/v1/tasks. The optional status query
// parameter filters; absent means all tasks.
func (s *Server) listTasksHandler(c *gin.Context) {
	status := models.TaskStatus(c.Query("status"))
	switch status {
	case "", models.TaskPending, models.TaskApproved, models.TaskRejected, models.TaskEdited:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid status: must be pending, approved, rejected, or edited",
		})
		return
	}

	tasks, err := s.hil.List(c.Request.Context(), status)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	c.JSON(http.StatusOK, &TaskListResponse{Tasks: tasks, Count: len(tasks)})
}

// getTaskHandler handles GET /api/v1/tasks/:id.
func (s *Server) getTaskHandler(c *gin.Context) {
	taskID := c.Param("id")

	task, err := s.hil.Get(c.Request.Context(), taskID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// approveTaskHandler handles POST /api/v1/tasks/:id/approve: the gated
// draft goes out as written.
func (s *Server) approveTaskHandler(c *gin.Context) {
	s.resolveTask(c, func(taskID string, d hil.Decision) (*hil.Outcome, error) {
		return s.hil.Approve(c.Request.Context(), taskID, d)
	})
}

// approveEditedTaskHandler handles POST /api/v1/tasks/:id/approve-edited:
// the reviewer's body replaces the draft before sending.
func (s *Server) approveEditedTaskHandler(c *gin.Context) {
	s.resolveTask(c, func(taskID string, d hil.Decision) (*hil.Outcome, error) {
		if d.Body == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "body is required for approve-edited"})
			return nil, nil
		}
		return s.hil.ApproveEdited(c.Request.Context(), taskID, d)
	})
}

// rejectTaskHandler handles POST /api/v1/tasks/:id/reject: the draft is
// discarded and the thread returns to the team.
func (s *Server) rejectTaskHandler(c *gin.Context) {
	s.resolveTask(c, func(taskID string, d hil.Decision) (*hil.Outcome, error) {
		return s.hil.Reject(c.Request.Context(), taskID, d)
	})
}

// resolveTask binds the decision body, fills the reviewer, and writes
// the outcome. A nil outcome with nil error means the resolver already
// replied. An empty request body is allowed; the reviewer then comes
// from the proxy headers.
func (s *Server) resolveTask(c *gin.Context, resolve func(string, hil.Decision) (*hil.Outcome, error)) {
	taskID := c.Param("id")

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	outcome, err := resolve(taskID, hil.Decision{
		Reviewer: extractReviewer(c, req.Reviewer),
		Body:     req.Body,
		Note:     req.Note,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if outcome == nil {
		return
	}

	c.JSON(http.StatusOK, outcome)
}
