// Package hil implements the human-in-the-loop approval queue: listing
// pending tasks, approving (optionally with edits) or rejecting them, and
// resuming the workflow when an approved task unblocks a waiting thread.
package hil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
)

// ErrTaskNotPending is returned when a reviewer acts on an already
// resolved task.
var ErrTaskNotPending = errors.New("task is not pending")

// Resumer continues a workflow that paused for approval. It is satisfied
// by the workflow router; the indirection exists because the router is
// constructed after this service.
type Resumer interface {
	Resume(ctx context.Context, dbPath string, msg *models.InboundMessage) (*models.ProcessResult, error)
}

// Decision is the reviewer verdict applied to a task.
type Decision struct {
	Reviewer string
	// Body overrides the draft body when non-empty (approve-with-edits).
	Body string
	Note string
}

// Outcome reports what resolving a task did.
type Outcome struct {
	Task *models.Task `json:"task"`
	// Sent is true when the gated draft went out to the client.
	Sent bool `json:"sent"`
	// Resume carries the workflow result when the approval unblocked a
	// waiting thread.
	Resume *models.ProcessResult `json:"resume,omitempty"`
}

// Service owns reviewer operations over the task queue.
type Service struct {
	store    *store.Store
	notifier Notifier
	resumer  Resumer
	logger   *slog.Logger
}

// NewService creates the approval service. Store must not be nil; the
// resumer is attached later via SetResumer.
func NewService(st *store.Store, notifier Notifier, logger *slog.Logger) *Service {
	if st == nil {
		panic("hil.NewService: nil store")
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		notifier: notifier,
		logger:   logger.With("component", "hil"),
	}
}

// SetResumer attaches the workflow router once it exists.
func (s *Service) SetResumer(r Resumer) { s.resumer = r }

// NewTask builds a pending task for a gated draft. Callers enqueue it
// themselves while they hold the store lock.
func NewTask(taskType models.TaskType, event *models.Event, draft *models.Draft, context string) *models.Task {
	t := &models.Task{
		TaskID:    uuid.NewString(),
		Type:      taskType,
		Status:    models.TaskPending,
		Context:   context,
		CreatedAt: time.Now().UTC(),
	}
	if event != nil {
		t.EventID = event.EventID
		t.ThreadID = event.ThreadID
	}
	if draft != nil {
		copied := *draft
		t.Draft = &copied
	}
	return t
}

// Announce forwards a queued task to the notifier.
func (s *Service) Announce(task *models.Task) {
	s.notifier.TaskQueued(task)
}

// List returns tasks, newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status models.TaskStatus) ([]*models.Task, error) {
	var out []*models.Task
	err := s.store.WithLock(ctx, func(db *store.Database) error {
		for _, t := range db.Tasks {
			if status != "" && t.Status != status {
				continue
			}
			copied := *t
			out = append(out, &copied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Get returns one task by id.
func (s *Service) Get(ctx context.Context, taskID string) (*models.Task, error) {
	var out *models.Task
	err := s.store.WithLock(ctx, func(db *store.Database) error {
		t, err := db.FindTask(taskID)
		if err != nil {
			return err
		}
		copied := *t
		out = &copied
		return nil
	})
	return out, err
}

// Approve sends the gated draft as-is. When the task gates a transition
// message the paused workflow is resumed afterwards and the resume result
// is attached to the outcome.
func (s *Service) Approve(ctx context.Context, taskID string, d Decision) (*Outcome, error) {
	return s.resolve(ctx, taskID, models.TaskApproved, d)
}

// ApproveEdited sends the draft with the reviewer's replacement body.
func (s *Service) ApproveEdited(ctx context.Context, taskID string, d Decision) (*Outcome, error) {
	if d.Body == "" {
		return nil, fmt.Errorf("approve task %s: edited body is empty", taskID)
	}
	return s.resolve(ctx, taskID, models.TaskEdited, d)
}

// Reject discards the draft. The thread returns to in-progress so the
// team can follow up manually.
func (s *Service) Reject(ctx context.Context, taskID string, d Decision) (*Outcome, error) {
	return s.resolve(ctx, taskID, models.TaskRejected, d)
}

func (s *Service) resolve(ctx context.Context, taskID string, verdict models.TaskStatus, d Decision) (*Outcome, error) {
	var (
		resolved   models.Task
		sent       bool
		resumeWith *models.InboundMessage
	)
	err := s.store.WithLock(ctx, func(db *store.Database) error {
		task, err := db.FindTask(taskID)
		if err != nil {
			return err
		}
		if task.Status != models.TaskPending {
			return fmt.Errorf("%w: %s is %s", ErrTaskNotPending, taskID, task.Status)
		}

		task.Status = verdict
		task.Resolution = &models.TaskResolution{
			ResolvedBy: d.Reviewer,
			Note:       d.Note,
			ResolvedAt: time.Now().UTC(),
		}

		event := db.FindEventByID(task.EventID)
		if verdict == models.TaskApproved || verdict == models.TaskEdited {
			body := ""
			if task.Draft != nil {
				body = task.Draft.Body
			}
			if verdict == models.TaskEdited {
				body = d.Body
			}
			if body != "" && event != nil {
				if client := db.FindClient(event.ClientID); client != nil {
					db.AppendHistory(client, models.HistoryEntry{
						MsgID:     "task-" + task.TaskID,
						Direction: models.DirectionOutbound,
						Body:      body,
						Ts:        time.Now().UTC(),
					})
					sent = true
				}
				task.Resolution.SentBody = body
			}
		}

		if event != nil {
			db.AppendAuditEntry(event, models.AuditEntry{
				Field:  "task",
				From:   string(models.TaskPending),
				To:     string(verdict),
				Detail: fmt.Sprintf("%s %s by %s", task.Type, verdict, d.Reviewer),
			})
			s.settleThreadState(db, event, task, verdict)
			if verdict != models.TaskRejected && task.Type == models.TaskTransitionMessage && task.ThreadID != "" {
				resumeWith = &models.InboundMessage{
					MsgID:          "resume-" + task.TaskID,
					FromEmail:      event.ClientID,
					Body:           models.ContinuationMarker,
					ThreadID:       task.ThreadID,
					IsContinuation: true,
				}
			}
		}

		resolved = *task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task resolved",
		"task_id", taskID,
		"verdict", string(verdict),
		"reviewer", d.Reviewer,
		"sent", sent)

	out := &Outcome{Task: &resolved, Sent: sent}
	if resumeWith != nil {
		if s.resumer == nil {
			s.logger.Warn("no resumer attached, workflow stays paused", "task_id", taskID)
			return out, nil
		}
		res, err := s.resumer.Resume(ctx, s.store.Path(), resumeWith)
		if err != nil {
			s.logger.Error("resume after approval failed", "task_id", taskID, "error", err)
			return out, nil
		}
		out.Resume = res
	}
	return out, nil
}

// settleThreadState moves the thread out of the HIL-wait state once no
// pending task remains for the event.
func (s *Service) settleThreadState(db *store.Database, event *models.Event, task *models.Task, verdict models.TaskStatus) {
	if event.ThreadState != models.ThreadStateWaitingOnHIL {
		return
	}
	for _, t := range db.PendingTasks() {
		if t.EventID == event.EventID {
			return
		}
	}
	next := models.ThreadStateAwaitingClient
	if verdict == models.TaskRejected {
		next = models.ThreadStateInProgress
	} else if event.Status == models.EventStatusConfirmed {
		next = models.ThreadStateConfirmed
	}
	if verdict != models.TaskRejected && task.Type == models.TaskTransitionMessage {
		// The resume cycle owns the thread state from here.
		return
	}
	db.UpdateEventMetadata(event, store.EventPatch{ThreadState: &next})
}
