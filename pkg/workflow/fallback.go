package workflow

import (
	"encoding/json"
	"time"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/config"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
)

// FallbackContext is the record attached to the manual-review task when
// a message cycle ends in the fallback reply.
type FallbackContext struct {
	Source   string    `json:"source"`
	Trigger  ErrorKind `json:"trigger"`
	EventID  string    `json:"event_id,omitempty"`
	ThreadID string    `json:"thread_id,omitempty"`
	Error    string    `json:"error"`
	Ts       time.Time `json:"ts"`
}

// genericFallbackBody is the visible reply when processing failed and the
// environment hides error detail.
const genericFallbackBody = "Thank you for your message! We hit a technical hiccup while processing it, " +
	"so a member of our events team will pick this up personally and get back to you shortly."

// fallbackBody picks the client-visible text for a failed cycle. Critical
// provider errors surface verbatim in dev; everything else, and all of
// prod, gets the generic reply.
func (r *Router) fallbackBody(kind ErrorKind, err error) string {
	if r.env == config.EnvironmentDev && kind == ErrKindProviderAuthFailed && err != nil {
		return "Processing failed: " + err.Error()
	}
	return genericFallbackBody
}

// fallbackResult builds the never-silent reply for a failed cycle: a
// visible fallback draft, a manual-review task carrying the fallback
// context, and a result that still names the thread and event.
func (r *Router) fallbackResult(ctx FallbackContext, err error, msg *models.InboundMessage, db *store.Database, event *models.Event) *models.ProcessResult {
	kind := ctx.Trigger
	if kind == "" {
		kind = ClassifyError(err)
		ctx.Trigger = kind
	}
	if err != nil {
		ctx.Error = err.Error()
	}
	if ctx.Ts.IsZero() {
		ctx.Ts = time.Now().UTC()
	}
	if event != nil {
		ctx.EventID = event.EventID
		ctx.ThreadID = event.ThreadID
	} else if msg != nil {
		ctx.ThreadID = msg.ThreadID
	}

	level := r.logger.Error
	if kind == ErrKindProviderAuthFailed {
		// Account-level failures page someone; they never self-heal.
		level = func(msg string, args ...any) {
			r.logger.Error(msg, append(args, "critical", true)...)
		}
	}
	level("message cycle fell back",
		"source", ctx.Source,
		"trigger", string(kind),
		"event_id", ctx.EventID,
		"thread_id", ctx.ThreadID,
		"error", err)

	if db != nil {
		detail, _ := json.Marshal(ctx)
		task := hil.NewTask(models.TaskManualReview, event, nil, string(detail))
		if task.ThreadID == "" && msg != nil {
			task.ThreadID = msg.ThreadID
		}
		db.EnqueueTask(task)
		r.hil.Announce(task)
		hilTasksQueuedTotal.WithLabelValues(string(models.TaskManualReview)).Inc()
	}

	fallbacksTotal.Inc()

	res := &models.ProcessResult{
		Action: ActionFallback,
		DraftMessages: []models.Draft{{
			Body:  r.fallbackBody(kind, err),
			Topic: models.TopicFallback,
		}},
		ThreadState: models.ThreadStateInProgress,
	}
	if event != nil {
		res.EventID = event.EventID
		res.ThreadID = event.ThreadID
		res.CurrentStep = event.CurrentStep
		res.ThreadState = event.ThreadState
		res.Progress = ProgressFor(event.CurrentStep)
		res.DraftMessages[0].Step = event.CurrentStep
	} else if msg != nil {
		res.ThreadID = msg.ThreadID
	}
	return res
}
