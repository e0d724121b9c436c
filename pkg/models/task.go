package models

import "time"

// TaskType says why a task sits in the approval queue.
type TaskType string

const (
	// TaskManualReview flags a message a human must look at
	TaskManualReview TaskType = "manual_review"
	// TaskConfirmationMessage gates the final confirmation draft
	TaskConfirmationMessage TaskType = "confirmation_message"
	// TaskTransitionMessage gates the accept-to-confirm handoff draft
	TaskTransitionMessage TaskType = "transition_message"
	// TaskOfferDraft gates an outbound offer
	TaskOfferDraft TaskType = "offer_draft"
	// TaskNegotiationDecision gates a negotiation reply
	TaskNegotiationDecision TaskType = "negotiation_decision"
)

// IsValid checks if the task type is a known value.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskManualReview,
		TaskConfirmationMessage,
		TaskTransitionMessage,
		TaskOfferDraft,
		TaskNegotiationDecision:
		return true
	default:
		return false
	}
}

// TaskStatus is the review state of a queued task.
type TaskStatus string

const (
	// TaskPending awaits a reviewer
	TaskPending TaskStatus = "pending"
	// TaskApproved was sent as-is
	TaskApproved TaskStatus = "approved"
	// TaskRejected was discarded
	TaskRejected TaskStatus = "rejected"
	// TaskEdited was revised by the reviewer and then sent
	TaskEdited TaskStatus = "edited"
)

// IsValid checks if the task status is a known value.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskApproved, TaskRejected, TaskEdited:
		return true
	default:
		return false
	}
}

// Terminal reports whether the task left the pending queue.
func (s TaskStatus) Terminal() bool {
	return s == TaskApproved || s == TaskRejected || s == TaskEdited
}

// TaskResolution records how a reviewer closed a task.
type TaskResolution struct {
	ResolvedBy string    `json:"resolved_by,omitempty"`
	SentBody   string    `json:"sent_body,omitempty"`
	Note       string    `json:"note,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Task is one human-in-the-loop queue entry.
type Task struct {
	TaskID     string          `json:"task_id"`
	EventID    string          `json:"event_id"`
	ThreadID   string          `json:"thread_id,omitempty"`
	Type       TaskType        `json:"type"`
	Draft      *Draft          `json:"draft,omitempty"`
	Context    string          `json:"context,omitempty"`
	Status     TaskStatus      `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	Resolution *TaskResolution `json:"resolution,omitempty"`
}
