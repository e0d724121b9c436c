package models

// Intent is the classified purpose of one inbound message.
type Intent string

const (
	// IntentEventRequest is a new booking inquiry
	IntentEventRequest Intent = "event_request"
	// IntentConfirmDate confirms a proposed event date
	IntentConfirmDate Intent = "confirm_date"
	// IntentAcceptOffer accepts the current offer
	IntentAcceptOffer Intent = "accept_offer"
	// IntentDeclineOffer declines the current offer
	IntentDeclineOffer Intent = "decline_offer"
	// IntentChangeRequest revises an already-confirmed variable
	IntentChangeRequest Intent = "change_request"
	// IntentQnA is a question that advances nothing
	IntentQnA Intent = "qna"
	// IntentNonEvent is unrelated to any booking
	IntentNonEvent Intent = "non_event"
	// IntentCancellation cancels the booking
	IntentCancellation Intent = "cancellation"
	// IntentManagerRequest asks for a human manager
	IntentManagerRequest Intent = "manager_request"
)

// IsValid checks if the intent is a known value.
func (i Intent) IsValid() bool {
	switch i {
	case IntentEventRequest,
		IntentConfirmDate,
		IntentAcceptOffer,
		IntentDeclineOffer,
		IntentChangeRequest,
		IntentQnA,
		IntentNonEvent,
		IntentCancellation,
		IntentManagerRequest:
		return true
	default:
		return false
	}
}

// Signals are boolean cues extracted alongside the intent.
type Signals struct {
	IsConfirmation   bool `json:"is_confirmation"`
	IsAcceptance     bool `json:"is_acceptance"`
	IsRejection      bool `json:"is_rejection"`
	IsChangeRequest  bool `json:"is_change_request"`
	IsManagerRequest bool `json:"is_manager_request"`
	IsQuestion       bool `json:"is_question"`
	HasUrgency       bool `json:"has_urgency"`
}

// Entities are the structured values pulled out of one message.
type Entities struct {
	DateISO        string          `json:"date_iso,omitempty"`
	DateText       string          `json:"date_text,omitempty"`
	StartTime      string          `json:"start_time,omitempty"`
	EndTime        string          `json:"end_time,omitempty"`
	Participants   *int            `json:"participants,omitempty"`
	DurationHours  *float64        `json:"duration_hours,omitempty"`
	RoomPreference string          `json:"room_preference,omitempty"`
	ProductsAdd    []string        `json:"products_add,omitempty"`
	ProductsRemove []string        `json:"products_remove,omitempty"`
	BillingAddress *BillingDetails `json:"billing_address,omitempty"`
	MenuChoice     string          `json:"menu_choice,omitempty"`
}

// Empty reports whether no entity field carries a value.
func (e Entities) Empty() bool {
	return e.DateISO == "" && e.DateText == "" && e.StartTime == "" &&
		e.EndTime == "" && e.Participants == nil && e.DurationHours == nil &&
		e.RoomPreference == "" && len(e.ProductsAdd) == 0 &&
		len(e.ProductsRemove) == 0 && e.BillingAddress == nil && e.MenuChoice == ""
}

// UnifiedDetection is the full structured read of one message.
type UnifiedDetection struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Language   string   `json:"language,omitempty"`
	Signals    Signals  `json:"signals"`
	Entities   Entities `json:"entities"`
	QnATypes   []string `json:"qna_types,omitempty"`
	StepAnchor *int     `json:"step_anchor,omitempty"`
}
