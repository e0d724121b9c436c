package api

// MessageRequest is the HTTP request body for POST /api/v1/messages.
// It mirrors models.InboundMessage; msg_id and from_email identify the
// message and sender and are required.
type MessageRequest struct {
	MsgID           string `json:"msg_id" binding:"required"`
	FromName        string `json:"from_name,omitempty"`
	FromEmail       string `json:"from_email" binding:"required"`
	Subject         string `json:"subject,omitempty"`
	Body            string `json:"body"`
	Ts              string `json:"ts,omitempty"`
	ThreadID        string `json:"thread_id,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	DepositJustPaid bool   `json:"deposit_just_paid,omitempty"`
}

// DecisionRequest is the body for the task approve, approve-edited and
// reject endpoints. Reviewer falls back to the proxy identity headers
// when empty. Body is the replacement draft text and is required on
// approve-edited only.
type DecisionRequest struct {
	Reviewer string `json:"reviewer,omitempty"`
	Body     string `json:"body,omitempty"`
	Note     string `json:"note,omitempty"`
}
