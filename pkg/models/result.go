package models

// Progress maps a step to the client-facing stage and completion percent.
type Progress struct {
	CurrentStage string `json:"current_stage"`
	Percentage   int    `json:"percentage"`
}

// ResultFlags carries auxiliary outcome bits of one processed message.
type ResultFlags struct {
	PendingHILApproval bool `json:"pending_hil_approval"`
}

// DevChoice is the test affordance offered when an inbound address
// already owns an open event.
type DevChoice struct {
	Prompt   string   `json:"prompt"`
	EventIDs []string `json:"event_ids"`
}

// ProcessResult is the outcome of routing one inbound message.
type ProcessResult struct {
	Action        string      `json:"action"`
	EventID       string      `json:"event_id,omitempty"`
	ThreadID      string      `json:"thread_id,omitempty"`
	Intent        Intent      `json:"intent,omitempty"`
	Confidence    float64     `json:"confidence,omitempty"`
	DraftMessages []Draft     `json:"draft_messages,omitempty"`
	Actions       []string    `json:"actions,omitempty"`
	ThreadState   ThreadState `json:"thread_state,omitempty"`
	CurrentStep   int         `json:"current_step,omitempty"`
	Progress      Progress    `json:"progress"`
	Res           ResultFlags `json:"res"`
	DevChoice     *DevChoice  `json:"dev_choice,omitempty"`
}
