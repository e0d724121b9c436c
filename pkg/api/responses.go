package api

import (
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/session"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/trace"
)

// TaskListResponse is returned by GET /api/v1/tasks.
type TaskListResponse struct {
	Tasks []*models.Task `json:"tasks"`
	Count int            `json:"count"`
}

// TraceResponse is returned by GET /api/v1/events/:id/trace.
type TraceResponse struct {
	EventID  string        `json:"event_id"`
	ThreadID string        `json:"thread_id"`
	Entries  []trace.Entry `json:"entries"`
}

// ActivityResponse is returned by GET /api/v1/events/:id/activity.
type ActivityResponse struct {
	EventID  string                 `json:"event_id"`
	ThreadID string                 `json:"thread_id"`
	Items    []models.ActivityEntry `json:"items"`
}

// SessionListResponse is returned by GET /api/v1/sessions.
type SessionListResponse struct {
	Sessions []session.Summary `json:"sessions"`
	Count    int               `json:"count"`
}

// HealthCheck is one component's health in the health response.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}
