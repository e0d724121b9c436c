package models

import "time"

// Step bounds for the booking state machine.
const (
	StepIntake       = 1
	StepDate         = 2
	StepRoom         = 3
	StepOffer        = 4
	StepNegotiation  = 5
	StepTransition   = 6
	StepConfirmation = 7

	StepMin = StepIntake
	StepMax = StepConfirmation
)

// ClampStep forces a step number into the valid range.
func ClampStep(step int) int {
	if step < StepMin {
		return StepMin
	}
	if step > StepMax {
		return StepMax
	}
	return step
}

// ThreadState describes who the conversation is waiting on.
type ThreadState string

const (
	// ThreadStateAwaitingClient means the venue replied and waits for the client
	ThreadStateAwaitingClient ThreadState = "Awaiting Client"
	// ThreadStateAwaitingClientResponse means a specific question is pending with the client
	ThreadStateAwaitingClientResponse ThreadState = "Awaiting Client Response"
	// ThreadStateWaitingOnHIL means a draft sits in the approval queue
	ThreadStateWaitingOnHIL ThreadState = "Waiting on HIL"
	// ThreadStateInProgress means the workflow is actively processing
	ThreadStateInProgress ThreadState = "In Progress"
	// ThreadStateClosed means the thread ended without a booking
	ThreadStateClosed ThreadState = "Closed"
	// ThreadStateConfirmed means the booking completed
	ThreadStateConfirmed ThreadState = "Confirmed"
)

// IsValid checks if the thread state is a known value.
func (s ThreadState) IsValid() bool {
	switch s {
	case ThreadStateAwaitingClient,
		ThreadStateAwaitingClientResponse,
		ThreadStateWaitingOnHIL,
		ThreadStateInProgress,
		ThreadStateClosed,
		ThreadStateConfirmed:
		return true
	default:
		return false
	}
}

// EventStatus is the commercial stage of a booking.
type EventStatus string

const (
	// EventStatusLead is a new inquiry without a confirmed date
	EventStatusLead EventStatus = "Lead"
	// EventStatusDateConfirmed means the event date is fixed
	EventStatusDateConfirmed EventStatus = "Date Confirmed"
	// EventStatusOfferSent means an offer is with the client
	EventStatusOfferSent EventStatus = "Offer Sent"
	// EventStatusAccepted means the client accepted the offer
	EventStatusAccepted EventStatus = "Accepted"
	// EventStatusConfirmed means the booking is finalized
	EventStatusConfirmed EventStatus = "Confirmed"
	// EventStatusCancelled keeps the record but releases the date
	EventStatusCancelled EventStatus = "Cancelled"
)

// IsValid checks if the event status is a known value.
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusLead,
		EventStatusDateConfirmed,
		EventStatusOfferSent,
		EventStatusAccepted,
		EventStatusConfirmed,
		EventStatusCancelled:
		return true
	default:
		return false
	}
}

// TimeRange is a start/end pair in HH:MM venue-local time.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Requirements holds the client-stated needs an offer is built from.
type Requirements struct {
	NumberOfParticipants *int       `json:"number_of_participants,omitempty"`
	Duration             *TimeRange `json:"duration,omitempty"`
	SeatingLayout        string     `json:"seating_layout,omitempty"`
	SpecialRequirements  string     `json:"special_requirements,omitempty"`
	PreferredRoom        string     `json:"preferred_room,omitempty"`
}

// PricingUnit says how a line item's unit price scales.
type PricingUnit string

const (
	// UnitPerPerson multiplies by participant count
	UnitPerPerson PricingUnit = "per_person"
	// UnitPerEvent is a flat price for the booking
	UnitPerEvent PricingUnit = "per_event"
)

// IsValid checks if the pricing unit is a known value.
func (u PricingUnit) IsValid() bool {
	return u == UnitPerPerson || u == UnitPerEvent
}

// Display renders the unit the way client prose spells it.
func (u PricingUnit) Display() string {
	switch u {
	case UnitPerPerson:
		return "per person"
	case UnitPerEvent:
		return "per event"
	default:
		return string(u)
	}
}

// LineItem is one priced row of an offer.
type LineItem struct {
	Description string      `json:"description"`
	Quantity    int         `json:"quantity"`
	UnitPrice   float64     `json:"unit_price"`
	Unit        PricingUnit `json:"unit,omitempty"`
	Total       float64     `json:"total"`
}

// Offer is one priced proposal. Offers are append-only; the newest is
// referenced by Event.CurrentOfferID.
type Offer struct {
	OfferID     int        `json:"offer_id"`
	TotalAmount float64    `json:"total_amount"`
	LineItems   []LineItem `json:"line_items"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DepositType selects how a deposit amount is derived.
type DepositType string

const (
	// DepositTypePercentage computes the deposit as a share of the offer total
	DepositTypePercentage DepositType = "percentage"
	// DepositTypeFixed uses a flat configured amount
	DepositTypeFixed DepositType = "fixed"
)

// IsValid checks if the deposit type is a known value.
func (t DepositType) IsValid() bool {
	return t == DepositTypePercentage || t == DepositTypeFixed
}

// DepositInfo tracks the deposit demanded for a booking.
type DepositInfo struct {
	Required bool        `json:"required"`
	Type     DepositType `json:"type,omitempty"`
	Amount   float64     `json:"amount,omitempty"`
	DueDate  string      `json:"due_date,omitempty"`
	Paid     bool        `json:"paid"`
}

// BillingDetails is the invoice address captured from the client.
type BillingDetails struct {
	NameOrCompany string `json:"name_or_company,omitempty"`
	Street        string `json:"street,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	City          string `json:"city,omitempty"`
	Country       string `json:"country,omitempty"`
}

// MissingFields lists the billing fields the confirmation gate requires
// but which are still empty. Country is optional.
func (b BillingDetails) MissingFields() []string {
	var missing []string
	if b.NameOrCompany == "" {
		missing = append(missing, "name_or_company")
	}
	if b.Street == "" {
		missing = append(missing, "street")
	}
	if b.PostalCode == "" {
		missing = append(missing, "postal_code")
	}
	if b.City == "" {
		missing = append(missing, "city")
	}
	return missing
}

// Complete reports whether all gate-required billing fields are present.
func (b BillingDetails) Complete() bool {
	return len(b.MissingFields()) == 0
}

// BillingRequirements flags which workflow transition is blocked on
// billing capture.
type BillingRequirements struct {
	AwaitingBillingForAccept       bool `json:"awaiting_billing_for_accept"`
	AwaitingBillingForConfirmation bool `json:"awaiting_billing_for_confirmation"`
}

// SiteVisitStatus is the stage of the site-visit sub-state machine.
type SiteVisitStatus string

const (
	// SiteVisitIdle means no visit is being arranged
	SiteVisitIdle SiteVisitStatus = "idle"
	// SiteVisitDatePending means the client must pick a visit date
	SiteVisitDatePending SiteVisitStatus = "date_pending"
	// SiteVisitTimePending means the client must pick a time slot
	SiteVisitTimePending SiteVisitStatus = "time_pending"
	// SiteVisitConfirmPending means a concrete slot awaits the client's yes
	SiteVisitConfirmPending SiteVisitStatus = "confirm_pending"
	// SiteVisitScheduled means the visit is booked
	SiteVisitScheduled SiteVisitStatus = "scheduled"
	// SiteVisitCompleted means the visit took place
	SiteVisitCompleted SiteVisitStatus = "completed"
	// SiteVisitCancelled means the visit was called off
	SiteVisitCancelled SiteVisitStatus = "cancelled"
)

// IsValid checks if the site-visit status is a known value.
func (s SiteVisitStatus) IsValid() bool {
	switch s {
	case SiteVisitIdle,
		SiteVisitDatePending,
		SiteVisitTimePending,
		SiteVisitConfirmPending,
		SiteVisitScheduled,
		SiteVisitCompleted,
		SiteVisitCancelled:
		return true
	default:
		return false
	}
}

// Pending reports whether the sub-state machine is mid-arrangement.
func (s SiteVisitStatus) Pending() bool {
	return s == SiteVisitDatePending || s == SiteVisitTimePending || s == SiteVisitConfirmPending
}

// SiteVisitState tracks an in-flight or booked venue visit.
// RoomID is a legacy field kept readable for old records; new code
// never writes it.
type SiteVisitState struct {
	Status        SiteVisitStatus `json:"status"`
	DateISO       string          `json:"date_iso,omitempty"`
	TimeSlot      string          `json:"time_slot,omitempty"`
	ProposedDates []string        `json:"proposed_dates,omitempty"`
	ProposedSlots []string        `json:"proposed_slots,omitempty"`
	PendingSlot   string          `json:"pending_slot,omitempty"`
	RoomID        string          `json:"room_id,omitempty"`
}

// PendingConfirmation names the reply Step 7 is waiting for.
type PendingConfirmation struct {
	Kind string `json:"kind"`
}

// ConfirmationState carries Step 7's conversational position.
type ConfirmationState struct {
	Pending          *PendingConfirmation `json:"pending,omitempty"`
	LastResponseType string               `json:"last_response_type,omitempty"`
}

// AuditEntry is one breadcrumb in the event's audit trail.
type AuditEntry struct {
	Ts     time.Time `json:"ts"`
	Field  string    `json:"field,omitempty"`
	From   string    `json:"from,omitempty"`
	To     string    `json:"to,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// ActivityEntry is one rendered item for the activity surface.
type ActivityEntry struct {
	Ts    time.Time `json:"ts"`
	Kind  string    `json:"kind"`
	Label string    `json:"label"`
}

// Event is the booking record for one conversation thread.
type Event struct {
	EventID  string `json:"event_id"`
	ClientID string `json:"client_id"`
	ThreadID string `json:"thread_id"`

	CurrentStep int  `json:"current_step"`
	CallerStep  *int `json:"caller_step,omitempty"`

	ThreadState ThreadState `json:"thread_state"`
	Status      EventStatus `json:"status"`

	Requirements     Requirements `json:"requirements"`
	RequirementsHash string       `json:"requirements_hash,omitempty"`

	ChosenDate    string `json:"chosen_date,omitempty"`
	DateConfirmed bool   `json:"date_confirmed"`

	LockedRoomID string `json:"locked_room_id,omitempty"`
	RoomEvalHash string `json:"room_eval_hash,omitempty"`

	SelectedProducts []string `json:"selected_products,omitempty"`
	MenuChoice       string   `json:"menu_choice,omitempty"`

	Offers         []Offer `json:"offers,omitempty"`
	CurrentOfferID int     `json:"current_offer_id,omitempty"`
	OfferHash      string  `json:"offer_hash,omitempty"`
	OfferAccepted  bool    `json:"offer_accepted"`
	OfferStatus    string  `json:"offer_status,omitempty"`

	DepositInfo         DepositInfo         `json:"deposit_info"`
	BillingDetails      BillingDetails      `json:"billing_details"`
	BillingRequirements BillingRequirements `json:"billing_requirements"`

	SiteVisitState    SiteVisitState    `json:"site_visit_state"`
	ConfirmationState ConfirmationState `json:"confirmation_state"`

	Msgs []string `json:"msgs,omitempty"`

	Logs        []string        `json:"logs,omitempty"`
	Audit       []AuditEntry    `json:"audit,omitempty"`
	ActivityLog []ActivityEntry `json:"activity_log,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMsg reports whether a msg_id was already processed on this event.
func (e *Event) HasMsg(msgID string) bool {
	for _, id := range e.Msgs {
		if id == msgID {
			return true
		}
	}
	return false
}

// CurrentOffer returns the offer referenced by CurrentOfferID, or nil.
func (e *Event) CurrentOffer() *Offer {
	for i := range e.Offers {
		if e.Offers[i].OfferID == e.CurrentOfferID {
			return &e.Offers[i]
		}
	}
	return nil
}

// AddProduct records a product selection. Reports whether the list changed.
func (e *Event) AddProduct(name string) bool {
	for _, p := range e.SelectedProducts {
		if p == name {
			return false
		}
	}
	e.SelectedProducts = append(e.SelectedProducts, name)
	return true
}

// RemoveProduct drops a product selection. Reports whether it was present.
func (e *Event) RemoveProduct(name string) bool {
	for i, p := range e.SelectedProducts {
		if p == name {
			e.SelectedProducts = append(e.SelectedProducts[:i], e.SelectedProducts[i+1:]...)
			return true
		}
	}
	return false
}

// NextOfferID returns the next monotonically increasing offer id.
func (e *Event) NextOfferID() int {
	max := 0
	for _, o := range e.Offers {
		if o.OfferID > max {
			max = o.OfferID
		}
	}
	return max + 1
}
