package hil

import (
	"log/slog"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// Notifier is told whenever a task enters the approval queue. The default
// implementation logs; a deployment can swap in email or chat push.
type Notifier interface {
	TaskQueued(task *models.Task)
}

// LogNotifier announces queued tasks on the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier writing to logger, or the default
// logger when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "hil_notifier")}
}

// TaskQueued implements Notifier.
func (n *LogNotifier) TaskQueued(task *models.Task) {
	n.logger.Info("approval task queued",
		"task_id", task.TaskID,
		"task_type", string(task.Type),
		"event_id", task.EventID,
		"thread_id", task.ThreadID)
}
