// Package models defines the domain records shared across the workflow
// engine: inbound messages, clients, events, detections, drafts, tasks,
// and the per-message processing result.
package models

import "time"

// InboundMessage is one client message entering the workflow.
type InboundMessage struct {
	MsgID           string `json:"msg_id"`
	FromName        string `json:"from_name,omitempty"`
	FromEmail       string `json:"from_email"`
	Subject         string `json:"subject,omitempty"`
	Body            string `json:"body"`
	Ts              string `json:"ts,omitempty"`
	ThreadID        string `json:"thread_id,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	IsContinuation  bool   `json:"is_continuation,omitempty"`
	DepositJustPaid bool   `json:"deposit_just_paid,omitempty"`
}

// Time parses the message timestamp, falling back to now when absent
// or malformed.
func (m *InboundMessage) Time() time.Time {
	if m.Ts != "" {
		if t, err := time.Parse(time.RFC3339, m.Ts); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// ContinuationMarker is the synthetic body used when an approved HIL task
// resumes a waiting workflow.
const ContinuationMarker = "[CONTINUE_AFTER_APPROVAL]"
